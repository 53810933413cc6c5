package models

// Filter narrows a listing. Zero values mean "no constraint".
type Filter struct {
	// Status limits results to one lifecycle state when set.
	Status Status
	// Query is a case-insensitive substring match over the applicant's
	// full name and email.
	Query string
}

// StatusCounts summarizes the review queue for the admin dashboard.
type StatusCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}
