package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"tenantgate/internal/document/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/audit"
)

// Storage persists document blobs.
type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// Service validates and stores supporting documents. Content type comes from
// sniffing the bytes, never from the client-supplied filename or header.
type Service struct {
	storage   Storage
	keyPrefix string
	audit     *audit.Emitter
}

type Option func(*Service)

func WithAudit(emitter *audit.Emitter) Option {
	return func(s *Service) { s.audit = emitter }
}

func New(storage Storage, keyPrefix string, opts ...Option) *Service {
	s := &Service{storage: storage, keyPrefix: keyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var allowedTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// Upload sniffs, validates and stores a document, returning its descriptor.
func (s *Service) Upload(ctx context.Context, ownerID id.UserID, kind models.Kind, data []byte) (*models.Document, error) {
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "document is empty")
	}
	if len(data) > models.MaxSizeBytes {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"document exceeds the %d byte limit", models.MaxSizeBytes)
	}

	sniffed, err := filetype.Match(data)
	if err != nil || sniffed == filetype.Unknown {
		return nil, dErrors.New(dErrors.CodeValidation, "unrecognized document format")
	}
	contentType := sniffed.MIME.Value
	if _, ok := allowedTypes[contentType]; !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"document type %s is not allowed; upload an image or a PDF", contentType)
	}

	key := s.objectKey(ownerID, kind, sniffed.Extension)
	url, err := s.storage.Put(ctx, key, contentType, data)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:  audit.EventDocumentUploaded,
		ActorID: ownerID,
		OwnerID: ownerID,
	})
	return &models.Document{
		Key:         key,
		URL:         url,
		Kind:        kind,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

// DownloadURL returns a short-lived link for a stored document.
func (s *Service) DownloadURL(ctx context.Context, key string) (string, error) {
	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign document url")
	}
	return url, nil
}

func (s *Service) objectKey(ownerID id.UserID, kind models.Kind, ext string) string {
	key := fmt.Sprintf("%s/%s/%s.%s", ownerID.String(), kind, uuid.NewString(), ext)
	if s.keyPrefix != "" {
		key = s.keyPrefix + "/" + key
	}
	return key
}
