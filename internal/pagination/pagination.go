package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage = 0
	DefaultSize = 10
	MaxSize     = 100
)

// Request carries sanitized pagination and sorting parameters. Page is
// 0-based.
type Request struct {
	Page   int
	Size   int
	SortBy string
}

// Response wraps one page of results.
type Response struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	PageSize      int   `json:"pageSize"`
	Data          any   `json:"data"`
}

func NewResponse(req Request, total int64, data any) Response {
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return Response{
		CurrentPage:   req.Page,
		TotalPages:    totalPages,
		TotalElements: total,
		PageSize:      req.Size,
		Data:          data,
	}
}

// ParseQuery reads page, size and sortBy from query parameters, applying
// defaults and clamping size. An unknown sort field falls back to the default
// rather than failing the request.
func ParseQuery(query url.Values, allowedSortFields []string, defaultSortField string) Request {
	req := Request{Page: DefaultPage, Size: DefaultSize, SortBy: defaultSortField}

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			req.Page = v
		}
	}

	if raw := strings.TrimSpace(query.Get("size")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			if v > MaxSize {
				v = MaxSize
			}
			req.Size = v
		}
	}

	req.SortBy = SanitizeSortField(query.Get("sortBy"), allowedSortFields, defaultSortField)
	return req
}

// SanitizeSortField whitelists the sort field so user input never reaches an
// ORDER BY clause directly.
func SanitizeSortField(sortBy string, allowed []string, fallback string) string {
	trimmed := strings.TrimSpace(sortBy)
	if trimmed == "" {
		return fallback
	}

	for _, field := range allowed {
		if strings.EqualFold(field, trimmed) {
			return field
		}
	}
	return fallback
}

func (r Request) Offset() int {
	return r.Page * r.Size
}
