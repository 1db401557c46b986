package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/ecosera-cart/api"
	"github.com/irsalhamdi/ecosera-cart/core/cart"
	"github.com/irsalhamdi/ecosera-cart/core/catalog"
	"github.com/irsalhamdi/ecosera-cart/core/checkout"
	"github.com/irsalhamdi/ecosera-cart/rate"
	"github.com/irsalhamdi/ecosera-cart/storage/memory"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const products = `[
	{"id": "A", "name": "Kopi", "price": 45000, "stock": 10, "category": "minuman", "tags": ["kopi"], "sellerName": "Toko Semendo", "featured": true},
	{"id": "B", "name": "Gula", "price": 38000, "stock": 5, "category": "bahan", "sellerName": "Toko X"},
	{"id": "C", "name": "Teh", "price": 12000, "stock": 3, "category": "minuman", "tags": ["kopi"], "sellerName": "Toko X"}
]`

type TestEnv struct {
	*httptest.Server
	KV    *memory.Store
	Carts *cart.Registry
	Log   *logrus.Logger
}

func NewTestEnv(t *testing.T, lim *rate.Limiter) *TestEnv {
	t.Helper()

	log, _ := logtest.NewNullLogger()

	cat, err := catalog.Load(strings.NewReader(products))
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	kv := memory.New()
	carts := cart.NewRegistry(cart.KeyedPersisters(kv, cart.DefaultKey), log)

	mux := api.APIMux(api.APIConfig{
		Log:     log,
		Session: scs.New(),
		Carts:   carts,
		Catalog: cat,
		Shop:    checkout.Shop{Name: "Ecosera", WhatsApp: "6281234567890"},
		Limiter: lim,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	srv.Client().Jar = jar

	return &TestEnv{Server: srv, KV: kv, Carts: carts, Log: log}
}

// Do sends body as JSON and decodes the response into out when it is not nil.
func (env *TestEnv) Do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequestWithContext(context.Background(), method, env.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := env.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if out != nil && w.StatusCode < 300 {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return w.StatusCode
}

func (env *TestEnv) expect(t *testing.T, method, path string, body any, status int) cart.Cart {
	t.Helper()

	var c cart.Cart
	if got := env.Do(t, method, path, body, &c); got != status {
		t.Fatalf("%s %s: expected status %d, got %d", method, path, status, got)
	}
	return c
}

func item(id string, n int) map[string]any {
	return map[string]any{"productId": id, "quantity": n}
}

func describe(c cart.Cart) string {
	var parts []string
	for _, it := range c.Items {
		parts = append(parts, fmt.Sprintf("%s:%d", it.ID, it.Quantity))
	}
	return strings.Join(parts, ",")
}
