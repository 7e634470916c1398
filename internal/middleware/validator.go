package middleware

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ValidatePage clamps page to >= 1.
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Pagination reads ?page= and ?page_size=; garbage falls back to defaults.
func Pagination(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	pageSize, _ = strconv.Atoi(q.Get("page_size"))
	return ValidatePage(page), ValidateLimit(pageSize)
}

// BodyLimit caps request bodies at n bytes. n <= 0 disables the cap.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if n <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				WriteError(w, http.StatusRequestEntityTooLarge, KindTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimitForImage is the body cap that admits a base64 data URI of maxImageBytes plus envelope.
func BodyLimitForImage(maxImageBytes int64) int64 {
	if maxImageBytes <= 0 {
		return 0
	}
	return (maxImageBytes+2)/3*4 + 1024
}
