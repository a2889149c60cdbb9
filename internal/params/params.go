package params

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 15
	MaxLimit     = 50
)

// Pagination is parsed from ?page=&limit= and completed with ComputeMeta once
// the repository has counted the matching rows.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination never fails: junk values fall back to the defaults and
// limits are clamped to MaxLimit.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Limit: DefaultLimit, Page: 1}

	if n, ok := positiveInt(q.Get("limit")); ok {
		p.Limit = min(n, MaxLimit)
	}
	if n, ok := positiveInt(q.Get("page")); ok {
		p.Page = n
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = (total + p.Limit - 1) / p.Limit
	}
	p.HasPrev = p.Page > 1
	p.HasNext = p.Page*p.Limit < total
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
