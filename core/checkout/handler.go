package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/ecosera-cart/api/web"
	"github.com/irsalhamdi/ecosera-cart/api/weberr"
	"github.com/irsalhamdi/ecosera-cart/core/cart"
	"github.com/irsalhamdi/ecosera-cart/core/session"
)

func HandleShow(reg *cart.Registry, shop Shop) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		sess, err := session.Get(ctx)
		if err != nil {
			return weberr.InternalError(err)
		}

		c := reg.Store(ctx, sess.CartID).Snapshot()
		if len(c.Items) == 0 {
			return weberr.Unprocessable(errors.New("no items to checkout"))
		}

		return web.Respond(ctx, w, Handoffs(shop, c), http.StatusOK)
	}
}
