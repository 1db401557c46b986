package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/ecosera-cart/api/middleware"
	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/core/cart"
	"github.com/irsalhamdi/ecosera-cart/core/catalog"
	"github.com/irsalhamdi/ecosera-cart/core/checkout"
	"github.com/irsalhamdi/ecosera-cart/core/session"
	"github.com/irsalhamdi/ecosera-cart/rate"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	Session    *scs.SessionManager
	Carts      *cart.Registry
	Catalog    *catalog.Catalog
	Shop       checkout.Shop

	// Limiter throttles cart mutations per client. Nil disables it.
	Limiter *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}
		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	sess := session.Bind(cfg.Session)

	var throttle web.Middleware
	if cfg.Limiter != nil {
		throttle = middleware.RateLimit(cfg.Limiter)
	}

	a.Handle(http.MethodGet, "/health", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	a.Handle(http.MethodGet, "/products", catalog.HandleList(cfg.Catalog))
	a.Handle(http.MethodGet, "/products/{id}/related", catalog.HandleRelated(cfg.Catalog))
	a.Handle(http.MethodGet, "/products/{id}", catalog.HandleShow(cfg.Catalog))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts), sess)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Carts), throttle, sess)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.Carts, cfg.Catalog), throttle, sess)
	a.Handle(http.MethodPatch, "/cart/items/{product_id}", cart.HandleUpdateItem(cfg.Carts), throttle, sess)
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(cfg.Carts), throttle, sess)
	a.Handle(http.MethodGet, "/cart/checkout", checkout.HandleShow(cfg.Carts, cfg.Shop), sess)

	return cfg.Session.LoadAndSave(a.Router)
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id": middleware.ContextRequestID(ctx),
			}).WithError(err).Error("unhandled error")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
