package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// ListQuery carries the query parameters shared by every list screen.
type ListQuery struct {
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
	CompanyID string
	Active    *bool
	Status    string
}

// optional unwraps a pointer so absent values reach callers as an untyped nil.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
