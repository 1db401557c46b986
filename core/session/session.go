// Package session binds an anonymous browser session to a cart id.
package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/validate"
)

const cartIDKey = "cart_id"

type ctxKey int

const sessionKey ctxKey = 1

// Session is what handlers know about the caller.
type Session struct {
	CartID string
}

func Set(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func Get(ctx context.Context) (Session, error) {
	v, ok := ctx.Value(sessionKey).(Session)
	if !ok {
		return Session{}, errors.New("session value missing from context")
	}
	return v, nil
}

// Bind makes sure the scs session carries a cart id, minting one on the
// first request, and exposes it through Get. sm.LoadAndSave must wrap the
// router for the id to reach the cookie.
func Bind(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := sm.GetString(ctx, cartIDKey)
			if validate.CheckID(id) != nil {
				id = validate.GenerateID()
				sm.Put(ctx, cartIDKey, id)
			}

			ctx = Set(ctx, Session{CartID: id})
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
