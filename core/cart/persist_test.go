package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/ecosera-cart/storage/memory"
	"github.com/sirupsen/logrus/hooks/test"
)

type brokenKV struct {
	err error
}

func (b *brokenKV) Get(ctx context.Context, key string) ([]byte, error) { return nil, b.err }

func (b *brokenKV) Set(ctx context.Context, key string, value []byte) error { return b.err }

func (b *brokenKV) Delete(ctx context.Context, key string) error { return b.err }

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()
	kv := memory.New()

	s := NewStore(ctx, NewKVPersister(kv, DefaultKey), log)
	add(t, s, teh, 2)
	add(t, s, ItemNew{ID: "A", Name: "Kopi", Price: 45000, ThumbnailURL: "https://img/kopi.png"}, 1)
	add(t, s, gula, 4)
	update(t, s, "C", 5)
	before := s.Snapshot()

	reloaded := NewStore(ctx, NewKVPersister(kv, DefaultKey), log)
	if diff := cmp.Diff(before, reloaded.Snapshot()); diff != "" {
		t.Fatalf("reloaded cart differs (-want +got):\n%s", diff)
	}
}

func TestCorruptStorage(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", `{{{not json`},
		{"truncated", `{"schemaVersion":1,"items":[{"id":"A"`},
		{"wrong type", `"a string"`},
		{"items not a list", `{"schemaVersion":1,"items":{"id":"A"}}`},
		{"future schema", `{"schemaVersion":7,"items":[]}`},
		{"missing schema", `{"items":[{"id":"A","name":"Kopi","price":1,"quantity":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			log, hook := test.NewNullLogger()
			kv := memory.New()
			if err := kv.Set(ctx, DefaultKey, []byte(tt.data)); err != nil {
				t.Fatal(err)
			}

			s := NewStore(ctx, NewKVPersister(kv, DefaultKey), log)
			if n := len(s.Items()); n != 0 {
				t.Fatalf("expected an empty cart, got %d items", n)
			}
			if hook.LastEntry() == nil {
				t.Fatal("expected the load failure to be logged")
			}
		})
	}
}

func TestDecodeMigratesLegacyLayouts(t *testing.T) {
	tests := []struct {
		name string
		data string
		exp  []Item
	}{
		{
			name: "bare array of flat lines",
			data: `[{"id":"A","name":"Kopi","price":45000,"quantity":2,"sellerName":"Toko X"}]`,
			exp:  []Item{{ID: "A", Name: "Kopi", Price: 45000, Quantity: 2, SellerName: "Toko X"}},
		},
		{
			name: "qty field",
			data: `[{"id":"A","name":"Kopi","price":45000,"qty":3,"image":"https://img/a.png"}]`,
			exp:  []Item{{ID: "A", Name: "Kopi", Price: 45000, Quantity: 3, ThumbnailURL: "https://img/a.png"}},
		},
		{
			name: "product pairs",
			data: `[{"product":{"id":7,"name":"Gula","price":38000,"sellerName":"Toko X"},"quantity":1}]`,
			exp:  []Item{{ID: "7", Name: "Gula", Price: 38000, Quantity: 1, SellerName: "Toko X"}},
		},
		{
			name: "invalid lines dropped and duplicates merged",
			data: `[
				{"id":"A","name":"Kopi","price":45000,"quantity":1},
				{"id":"","name":"nameless","price":1,"quantity":1},
				{"id":"B","name":"Gula","price":-5,"quantity":1},
				{"id":"C","name":"Teh","price":1,"quantity":0},
				{"id":"D","name":"Beras","price":1},
				{"id":"A","name":"Kopi lagi","price":1,"quantity":4}
			]`,
			exp: []Item{{ID: "A", Name: "Kopi", Price: 45000, Quantity: 5}},
		},
		{
			name: "out of range lines dropped",
			data: `[
				{"id":"A","name":"Kopi","price":45000,"quantity":2},
				{"id":"B","name":"Gula","price":38000,"quantity":1e30},
				{"id":"C","name":"Teh","price":12000,"quantity":1.9},
				{"id":"D","name":"Beras","price":1e19,"quantity":1},
				{"id":"E","name":"Garam","price":1000,"qty":10001},
				{"id":"A","name":"Kopi","price":45000,"quantity":9999}
			]`,
			exp: []Item{{ID: "A", Name: "Kopi", Price: 45000, Quantity: 2}},
		},
		{
			name: "lines at the bounds kept",
			data: `[
				{"id":"A","name":"Emas","price":1e12,"quantity":10000},
				{"id":"B","name":"Emas","price":1e12,"quantity":10000},
				{"id":"C","name":"Kopi","price":45000,"quantity":1}
			]`,
			exp: []Item{
				{ID: "A", Name: "Emas", Price: MaxPrice, Quantity: MaxQuantity},
				{ID: "B", Name: "Emas", Price: MaxPrice, Quantity: MaxQuantity},
				{ID: "C", Name: "Kopi", Price: 45000, Quantity: 1},
			},
		},
		{
			name: "current schema",
			data: `{"schemaVersion":1,"items":[{"id":"A","name":"Kopi","price":45000,"quantity":1}]}`,
			exp:  []Item{{ID: "A", Name: "Kopi", Price: 45000, Quantity: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.exp, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeKeepsTotalsInRange(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 1000; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":"L%d","name":"Emas","price":1e12,"quantity":10000}`, i)
	}
	b.WriteString("]")

	items, err := Decode([]byte(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 || len(items) == 1000 {
		t.Fatalf("expected the lines past the int64 range to be dropped, kept %d", len(items))
	}
	if sub := subtotal(items); sub < 0 || sub != int64(len(items))*MaxPrice*MaxQuantity {
		t.Fatalf("subtotal of decoded cart out of range: %d", sub)
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, data := range []string{"", "  ", "null", "[]", `{"schemaVersion":1,"items":[]}`} {
		items, err := Decode([]byte(data))
		if err != nil {
			t.Fatalf("%q: %v", data, err)
		}
		if len(items) != 0 {
			t.Fatalf("%q: expected no items, got %+v", data, items)
		}
	}

	if _, err := Decode([]byte(`{"schemaVersion":2,"items":[]}`)); !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"schemaVersion":1,"items":[]}` {
		t.Fatalf("unexpected document %s", b)
	}

	b, err = Encode([]Item{{ID: "A", Name: "Kopi", Price: 45000, Quantity: 2}})
	if err != nil {
		t.Fatal(err)
	}
	exp := `{"schemaVersion":1,"items":[{"id":"A","name":"Kopi","price":45000,"quantity":2}]}`
	if string(b) != exp {
		t.Fatalf("expected %s, got %s", exp, b)
	}
}
