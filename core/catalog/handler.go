package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/api/weberr"
)

const relatedLimit = 8

func HandleList(c *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if f := r.URL.Query().Get("featured"); f != "" {
			featured, err := strconv.ParseBool(f)
			if err != nil {
				return weberr.Invalid(errors.New("featured must be a boolean"))
			}
			if featured {
				return web.Respond(ctx, w, c.Featured(ctx), http.StatusOK)
			}
		}
		return web.Respond(ctx, w, c.All(ctx), http.StatusOK)
	}
}

func HandleShow(c *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		p, err := c.Fetch(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", id, err)
		}
		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleRelated(c *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		p, err := c.Fetch(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", id, err)
		}
		return web.Respond(ctx, w, c.Related(ctx, p.Category, p.ID, relatedLimit), http.StatusOK)
	}
}
