package opengov

import "github.com/agrimatrix/mandi-prices/internal/domain"

// apiResponse is the raw JSON envelope returned by the data.gov.in resource
// endpoint.
type apiResponse struct {
	Total       int                `json:"total"`
	Count       int                `json:"count"`
	UpdatedDate string             `json:"updated_date"`
	Records     []domain.RawRecord `json:"records"`
}

// Page is one fetched page of feed records.
type Page struct {
	Records         []domain.RawRecord
	Total           int
	SourceUpdatedAt string
}

// FetchResult is the outcome of a full paginated fetch. It exists only when
// every page succeeded: a failed page aborts the whole fetch with no partial
// result.
type FetchResult struct {
	Records         []domain.RawRecord
	Total           int
	SourceUpdatedAt string
}
