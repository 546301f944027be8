package handler

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Shivanand-hulikatti/eventreg/internal/model"
)

// Paging holds the page-size policy for paginated listings.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

func (p Paging) withDefaults() Paging {
	if p.DefaultSize <= 0 {
		p.DefaultSize = 10
	}
	if p.MaxSize <= 0 {
		p.MaxSize = 100
	}
	if p.DefaultSize > p.MaxSize {
		p.DefaultSize = p.MaxSize
	}
	return p
}

type pageRequest struct {
	number int
	size   int
}

// parse reads page and page_size from the query string. A missing page means
// the first one; a malformed or non-positive page is rejected. page_size falls
// back to the default when malformed and is clamped to MaxSize.
func (p Paging) parse(r *http.Request) (pageRequest, bool) {
	q := r.URL.Query()
	req := pageRequest{number: 1, size: p.DefaultSize}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, false
		}
		req.number = n
	}
	if raw := q.Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			req.size = min(n, p.MaxSize)
		}
	}
	if req.number > math.MaxInt/req.size {
		return req, false
	}
	return req, true
}

func (p pageRequest) offset() int {
	return (p.number - 1) * p.size
}

// exists reports whether the page falls inside a result set of total items.
// The first page always exists, even when empty.
func (p pageRequest) exists(total int) bool {
	return p.number == 1 || p.offset() < total
}

func newPage[T any](r *http.Request, p pageRequest, total int, results []T) model.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := model.Page[T]{Count: total, Results: results}
	if p.number*p.size < total {
		next := pageURL(r, p.number+1)
		page.Next = &next
	}
	if p.number > 1 {
		prev := pageURL(r, p.number-1)
		page.Previous = &prev
	}
	return page
}

// pageURL rebuilds the absolute request URL pointing at page n. The first
// page is addressed without a page parameter.
func pageURL(r *http.Request, n int) string {
	u := url.URL{
		Scheme: "http",
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		u.Scheme = proto
	}

	q := r.URL.Query()
	if n == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
