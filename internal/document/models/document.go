package models

import (
	"strings"

	dErrors "tenantgate/pkg/domain-errors"
)

// Kind names the slot a supporting document fills on an application.
type Kind string

const (
	KindIDDocument    Kind = "id_document"
	KindIncomeProof   Kind = "income_proof"
	KindRentalHistory Kind = "rental_history"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindIDDocument, KindIncomeProof, KindRentalHistory:
		return true
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document kind %q", s)
	}
	return kind, nil
}

// MaxSizeBytes caps a single document upload.
const MaxSizeBytes = 10 << 20

// Document describes a stored upload.
type Document struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Kind        Kind   `json:"kind"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}
