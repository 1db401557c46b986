package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors logs handler failures and turns them into JSON responses. Errors
// without an attached response become a generic 500.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := logrus.Fields{
				"req_id": ContextRequestID(ctx),
				"path":   r.URL.Path,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			body, status, ok := weberr.Response(err)
			if !ok {
				body = weberr.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
				status = http.StatusInternalServerError
			}

			entry := log.WithFields(fields).WithError(err)
			if status >= http.StatusInternalServerError {
				entry.Error("request failed")
			} else {
				entry.Warn("request rejected")
			}

			return web.Respond(ctx, w, body, status)
		}
		return h
	}
	return m
}
