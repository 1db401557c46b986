package cart

import (
	"errors"
	"math"
)

// UnassignedSeller labels the group of items added without a seller.
const UnassignedSeller = "unassigned"

// MaxQuantity caps a single line and MaxPrice a unit price, in rupiah.
// Together they keep every line total far inside int64.
const (
	MaxQuantity = 10000
	MaxPrice    = 1_000_000_000_000
)

// ErrInvalidArgument marks input rejected at the store boundary.
var ErrInvalidArgument = errors.New("invalid argument")

// Item is a single line of the cart. Price is in whole rupiah.
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	SellerName   string `json:"sellerName,omitempty"`
}

// Total is the line total, price times quantity.
func (it Item) Total() int64 {
	return it.Price * int64(it.Quantity)
}

// ItemNew is what a caller hands to AddItem.
type ItemNew struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Price        int64  `json:"price" validate:"gte=0,lte=1000000000000"`
	ThumbnailURL string `json:"thumbnailUrl"`
	SellerName   string `json:"sellerName"`
}

// SellerGroup is the part of a cart sold by one seller.
type SellerGroup struct {
	Seller   string `json:"seller"`
	Items    []Item `json:"items"`
	Subtotal int64  `json:"subtotal"`
}

// Cart is a read-only snapshot of a Store. ItemCount is the sum of
// quantities, not the number of lines.
type Cart struct {
	Items     []Item        `json:"items"`
	Subtotal  int64         `json:"subtotal"`
	ItemCount int           `json:"itemCount"`
	Sellers   []SellerGroup `json:"sellers"`
}

func subtotal(items []Item) int64 {
	var tot int64
	for _, it := range items {
		tot += it.Total()
	}
	return tot
}

// fits reports whether adding delta to sub stays inside int64.
func fits(sub, delta int64) bool {
	return delta <= math.MaxInt64-sub
}

func itemCount(items []Item) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func sellerOf(it Item) string {
	if it.SellerName == "" {
		return UnassignedSeller
	}
	return it.SellerName
}

// groupBySeller partitions items by seller. Groups come out in order of the
// seller's first appearance, items keep their relative order.
func groupBySeller(items []Item) []SellerGroup {
	groups := make([]SellerGroup, 0)
	index := make(map[string]int)

	for _, it := range items {
		s := sellerOf(it)
		i, ok := index[s]
		if !ok {
			i = len(groups)
			index[s] = i
			groups = append(groups, SellerGroup{Seller: s, Items: make([]Item, 0, 1)})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal += it.Total()
	}

	return groups
}
