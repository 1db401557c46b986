package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/api/weberr"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func serve(t *testing.T, h web.Handler, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := h(r.Context(), rec, r); err != nil {
		t.Fatalf("error escaped the middleware chain: %v", err)
	}
	return rec
}

func TestErrorsAndPanics(t *testing.T) {
	log, hook := test.NewNullLogger()

	tests := []struct {
		name    string
		handler web.Handler
		status  int
		body    string
		level   logrus.Level
	}{
		{
			name: "web error",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return weberr.Invalid(errors.New("quantity must be positive"))
			},
			status: http.StatusBadRequest,
			body:   "quantity must be positive",
			level:  logrus.WarnLevel,
		},
		{
			name: "plain error",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errors.New("disk on fire")
			},
			status: http.StatusInternalServerError,
			body:   http.StatusText(http.StatusInternalServerError),
			level:  logrus.ErrorLevel,
		},
		{
			name: "panic",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("nil map")
			},
			status: http.StatusInternalServerError,
			body:   http.StatusText(http.StatusInternalServerError),
			level:  logrus.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			h := web.WrapMiddleware([]web.Middleware{RequestID(), Errors(log), Panics()}, tt.handler)

			rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/cart", nil))
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}

			var er weberr.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&er); err != nil {
				t.Fatal(err)
			}
			if er.Error != tt.body {
				t.Fatalf("expected body %q, got %q", tt.body, er.Error)
			}

			entry := hook.LastEntry()
			if entry == nil || entry.Level != tt.level {
				t.Fatalf("expected a %s log entry, got %+v", tt.level, entry)
			}
			if entry.Data["req_id"] == "" {
				t.Fatal("expected the request id to be logged")
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID()(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		got = ContextRequestID(ctx)
		return nil
	})

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.HasPrefix(got, reqPrefix+"-") {
		t.Fatalf("expected a generated id, got %q", got)
	}
	if rec.Header().Get(RequestIDHeader) != got {
		t.Fatal("expected the id to be echoed back")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	serve(t, h, r)
	if len(got) != requestIDLengthLimit {
		t.Fatalf("expected the caller id to be truncated, got %d chars", len(got))
	}
}
