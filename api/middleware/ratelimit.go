package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/api/weberr"
	"github.com/irsalhamdi/ecosera-cart/rate"
)

// RateLimit throttles each client ip with lim.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !lim.Check(ip) {
				return weberr.TooManyRequests(errors.New("rate limit exceeded"), weberr.WithFields(map[string]any{"client": ip}))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
