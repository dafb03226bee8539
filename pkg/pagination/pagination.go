package pagination

import "math"

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int64.
	MaxPage = 1_000_000
)

// Params represents offset based pagination as sent by the dashboard.
type Params struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// Normalize clamps page and limit into their accepted ranges.
func (p *Params) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}

	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Offset returns the number of documents to skip.
func (p Params) Offset() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return int64(p.Page-1) * int64(p.Limit)
}

// PageInfo describes where a page sits in the full result set.
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// NewPageInfo computes page information for the given total.
func NewPageInfo(p Params, total int64) PageInfo {
	info := PageInfo{Page: p.Page, Limit: p.Limit, TotalCount: total}
	if p.Limit > 0 {
		info.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	info.HasNext = p.Page < info.TotalPages
	return info
}
