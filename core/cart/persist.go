package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/irsalhamdi/ecosera-cart/storage"
)

// SchemaVersion is the layout written by KVPersister.
const SchemaVersion = 1

// DefaultKey is the storage key of a cart when no namespace is needed.
const DefaultKey = "app.cart"

var ErrUnsupportedSchema = errors.New("unsupported cart schema")

type document struct {
	SchemaVersion int             `json:"schemaVersion"`
	Items         json.RawMessage `json:"items"`
}

type savedDocument struct {
	SchemaVersion int    `json:"schemaVersion"`
	Items         []Item `json:"items"`
}

// record accepts every layout a cart was ever stored in: flat lines with
// either "quantity" or "qty", and {product, quantity} pairs.
type record struct {
	ID           json.RawMessage `json:"id"`
	Name         string          `json:"name"`
	Price        float64         `json:"price"`
	Quantity     *float64        `json:"quantity"`
	Qty          *float64        `json:"qty"`
	ThumbnailURL string          `json:"thumbnailUrl"`
	Image        string          `json:"image"`
	SellerName   string          `json:"sellerName"`
	Product      *record         `json:"product"`
}

// KVPersister stores a cart as one versioned JSON document under Key.
type KVPersister struct {
	KV  storage.KV
	Key string
}

func NewKVPersister(kv storage.KV, key string) *KVPersister {
	return &KVPersister{KV: kv, Key: key}
}

func (p *KVPersister) Load(ctx context.Context) ([]Item, error) {
	b, err := p.KV.Get(ctx, p.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cart[%s]: %w", p.Key, err)
	}

	items, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decoding cart[%s]: %w", p.Key, err)
	}
	return items, nil
}

// Save writes items under Key. An empty cart removes the key.
func (p *KVPersister) Save(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		if err := p.KV.Delete(ctx, p.Key); err != nil {
			return fmt.Errorf("deleting cart[%s]: %w", p.Key, err)
		}
		return nil
	}

	b, err := Encode(items)
	if err != nil {
		return fmt.Errorf("encoding cart[%s]: %w", p.Key, err)
	}
	if err := p.KV.Set(ctx, p.Key, b); err != nil {
		return fmt.Errorf("writing cart[%s]: %w", p.Key, err)
	}
	return nil
}

// Encode renders items in the current schema.
func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = make([]Item, 0)
	}
	return json.Marshal(savedDocument{SchemaVersion: SchemaVersion, Items: items})
}

// Decode reads any known layout and migrates it to the current one.
// Lines that cannot form a valid item are dropped and repeated ids merged.
func Decode(b []byte) ([]Item, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	var raw json.RawMessage
	switch b[0] {
	case '[':
		// schema 0: a bare array with no envelope
		raw = b
	case '{':
		var doc document
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, err
		}
		if doc.SchemaVersion != SchemaVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, doc.SchemaVersion)
		}
		raw = doc.Items
	default:
		return nil, errors.New("cart document is neither an object nor an array")
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, err
	}

	return migrate(recs), nil
}

// migrate applies the same bounds as AddItem: a merged line stays within
// MaxQuantity and the running subtotal never overflows. A record that would
// break either is dropped.
func migrate(recs []record) []Item {
	items := make([]Item, 0, len(recs))
	index := make(map[string]int)
	var sub int64

	for _, r := range recs {
		it, ok := r.item()
		if !ok {
			continue
		}

		i, dup := index[it.ID]
		price := it.Price
		if dup {
			price = items[i].Price
			if items[i].Quantity+it.Quantity > MaxQuantity {
				continue
			}
		}
		delta := price * int64(it.Quantity)
		if !fits(sub, delta) {
			continue
		}
		sub += delta

		if dup {
			items[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}

	return items
}

func (r record) item() (Item, bool) {
	qty := r.Quantity
	if qty == nil {
		qty = r.Qty
	}

	src := r
	if r.Product != nil {
		src = *r.Product
	}

	id := rawID(src.ID)
	if id == "" || qty == nil {
		return Item{}, false
	}
	if math.IsNaN(src.Price) || src.Price < 0 || src.Price > MaxPrice {
		return Item{}, false
	}
	if *qty < 1 || *qty > MaxQuantity || *qty != math.Trunc(*qty) {
		return Item{}, false
	}

	thumb := src.ThumbnailURL
	if thumb == "" {
		thumb = src.Image
	}

	return Item{
		ID:           id,
		Name:         src.Name,
		Price:        int64(math.Round(src.Price)),
		Quantity:     int(*qty),
		ThumbnailURL: thumb,
		SellerName:   src.SellerName,
	}, true
}

// rawID accepts string or numeric ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}
