package httpinterface

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/paystell/paystell-daemon/pkg/stats"
)

const (
	UserIDHeader      = "X-User-Id"
	UserAddressHeader = "X-User-Address"
)

type requesterKey struct{}

// withRequester rejects the requests that don't carry the identity forwarded
// by the auth gateway.
func withRequester(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requester := application.Requester{
			UserID:  strings.TrimSpace(r.Header.Get(UserIDHeader)),
			Address: strings.TrimSpace(r.Header.Get(UserAddressHeader)),
		}
		if requester.UserID == "" {
			writeError(w, r, application.ErrMissingRequester)
			return
		}
		ctx := context.WithValue(r.Context(), requesterKey{}, requester)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requesterFrom(ctx context.Context) application.Requester {
	requester, _ := ctx.Value(requesterKey{}).(application.Requester)
	return requester
}

// withMetrics records count and latency of requests by route template.
func withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		// Unmatched routes would blow up the label cardinality.
		if route == "" {
			return
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		stats.HTTPRequestsTotal.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		stats.HTTPRequestDuration.
			WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
