// Package pagination implements page-number pagination for list endpoints:
// ?page=N&limit=M in, {count, next, previous, results} out.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/foodgram-go/apperror"
)

// MaxLimit caps the page size a client can ask for.
const MaxLimit = 100

// Params is a parsed page request. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the paginated response envelope.
type Page[T any] struct {
	Count    int64   `json:"count" example:"123"`
	Next     *string `json:"next" example:"http://foodgram.example.org/api/recipes/?page=4"`
	Previous *string `json:"previous" example:"http://foodgram.example.org/api/recipes/?page=2"`
	Results  []T     `json:"results"`
}

// FromRequest reads page and limit from the query string. Missing values fall back to
// page 1 and defaultLimit; limit is capped at MaxLimit.
func FromRequest(r *http.Request, defaultLimit int) (Params, error) {
	q := r.URL.Query()
	p := Params{Page: 1, Limit: defaultLimit}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Params{}, apperror.NewNotFoundError("invalid page", nil)
		}
		p.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err == nil && limit > 0 {
			p.Limit = limit
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p, nil
}

// New builds a Page for results, linking to the neighbouring pages of the current URL.
func New[T any](r *http.Request, p Params, count int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: count, Results: results}
	if int64(p.Page*p.Limit) < count {
		next := pageURL(r, p.Page+1)
		page.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(r, p.Page-1)
		page.Previous = &prev
	}
	return page
}

// pageURL rewrites the page parameter of the request URL. Page 1 drops the parameter.
func pageURL(r *http.Request, page int) string {
	u := url.URL{
		Scheme: "http",
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
