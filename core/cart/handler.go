package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/api/weberr"
	"github.com/irsalhamdi/ecosera-cart/core/catalog"
	"github.com/irsalhamdi/ecosera-cart/core/session"
	"github.com/irsalhamdi/ecosera-cart/validate"
)

// Products resolves the product a shopper asks to add.
type Products interface {
	Fetch(ctx context.Context, id string) (catalog.Product, error)
}

type ItemCreate struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,lte=10000"`
}

type QuantityUp struct {
	Quantity *int `json:"quantity" validate:"required,lte=10000"`
}

func current(ctx context.Context, reg *Registry) (*Store, session.Session, error) {
	sess, err := session.Get(ctx)
	if err != nil {
		return nil, session.Session{}, weberr.InternalError(err)
	}
	return reg.Store(ctx, sess.CartID), sess, nil
}

func HandleShow(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, _, err := current(ctx, reg)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, s.Snapshot(), http.StatusOK)
	}
}

func HandleDelete(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, _, err := current(ctx, reg)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, s.Clear(ctx), http.StatusOK)
	}
}

func HandleCreateItem(reg *Registry, products Products) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, sess, err := current(ctx, reg)
		if err != nil {
			return err
		}

		var in ItemCreate
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(in); err != nil {
			return weberr.Invalid(err)
		}

		qty := 1
		if in.Quantity != nil {
			qty = *in.Quantity
		}

		p, err := products.Fetch(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return weberr.NotFound(err, weberr.WithFields(map[string]any{"product_id": in.ProductID}))
			}
			return fmt.Errorf("fetching product[%s]: %w", in.ProductID, err)
		}

		c, err := s.AddItem(ctx, ItemNew{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			ThumbnailURL: p.Image,
			SellerName:   p.SellerName,
		}, qty)
		if err != nil {
			if errors.Is(err, ErrInvalidArgument) {
				return weberr.Invalid(err, weberr.WithFields(map[string]any{"cart_id": sess.CartID}))
			}
			return fmt.Errorf("adding product[%s] to cart[%s]: %w", p.ID, sess.CartID, err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleUpdateItem(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, _, err := current(ctx, reg)
		if err != nil {
			return err
		}

		var in QuantityUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(in); err != nil {
			return weberr.Invalid(err)
		}

		c, err := s.UpdateQuantity(ctx, web.Param(r, "product_id"), *in.Quantity)
		if err != nil {
			if errors.Is(err, ErrInvalidArgument) {
				return weberr.Invalid(err)
			}
			return fmt.Errorf("updating cart: %w", err)
		}
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDeleteItem(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, _, err := current(ctx, reg)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, s.RemoveItem(ctx, web.Param(r, "product_id")), http.StatusOK)
	}
}
