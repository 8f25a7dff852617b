package github

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimit is a snapshot of the API quota headers from the most recent
// response. It is overwritten wholesale on every request; callers never
// mutate it.
type RateLimit struct {
	Limit     int
	Remaining int
	Used      int
	ResetAt   time.Time
}

// updateFromHeaders overlays the snapshot with whatever quota headers the
// response carried. Absent headers leave the previous value in place, which
// matches the API's behavior of omitting them on some endpoints.
func (r *RateLimit) updateFromHeaders(h http.Header) {
	if v := h.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.Limit = n
		}
	}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.Remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Used"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.Used = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.ResetAt = time.Unix(epoch, 0)
		}
	}
}
