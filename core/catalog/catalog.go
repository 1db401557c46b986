// Package catalog is the read-only product listing the storefront sells
// from. Handlers resolve products here before putting them in a cart.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const Placeholder = "https://placehold.co/800x800/png?text=Ecosera"

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Unit        string   `json:"unit"`
	Stock       int      `json:"stock"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SellerName  string   `json:"sellerName"`
	SellerPhone string   `json:"sellerPhone"`
	Location    string   `json:"location"`
	Rating      float64  `json:"rating"`
	Sold        int      `json:"sold"`
	Tags        []string `json:"tags"`
	Featured    bool     `json:"featured"`
	Available   bool     `json:"available"`
}

type Catalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) *Catalog {
	c := &Catalog{
		products: products,
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if _, dup := c.byID[p.ID]; !dup {
			c.byID[p.ID] = i
		}
	}
	return c
}

// Open loads the catalog from a JSON file.
func Open(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads a JSON array of raw products, drops the unavailable ones and
// fills missing fields with the storefront defaults.
func Load(r io.Reader) (*Catalog, error) {
	var raws []raw
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	products := make([]Product, 0, len(raws))
	for _, rp := range raws {
		if rp.Available != nil && !*rp.Available {
			continue
		}
		products = append(products, rp.normalize())
	}

	return New(products), nil
}

func (c *Catalog) All(ctx context.Context) []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Fetch(ctx context.Context, id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("product[%s]: %w", id, ErrNotFound)
	}
	return c.products[i], nil
}

func (c *Catalog) Featured(ctx context.Context) []Product {
	out := make([]Product, 0)
	for _, p := range c.products {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Related ranks products against category and the tags of excludeID.
// Same category scores 2, each shared tag 1 (up to 3), no stock costs 2.
// Ties are broken by stock, then rating.
func (c *Catalog) Related(ctx context.Context, category, excludeID string, limit int) []Product {
	mainTags := make(map[string]bool)
	if i, ok := c.byID[excludeID]; ok {
		for _, t := range c.products[i].Tags {
			mainTags[strings.ToLower(t)] = true
		}
	}

	type scored struct {
		p     Product
		score int
	}

	cands := make([]scored, 0, len(c.products))
	for _, p := range c.products {
		if p.ID == excludeID {
			continue
		}

		sc := 0
		if category != "" && p.Category == category {
			sc += 2
		}
		if len(mainTags) > 0 {
			shared := 0
			for _, t := range p.Tags {
				if mainTags[strings.ToLower(t)] {
					shared++
					if shared >= 3 {
						break
					}
				}
			}
			sc += shared
		}
		if p.Stock <= 0 {
			sc -= 2
		}

		if sc > -2 {
			cands = append(cands, scored{p: p, score: sc})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.p.Stock != b.p.Stock {
			return a.p.Stock > b.p.Stock
		}
		return a.p.Rating > b.p.Rating
	})

	if limit <= 0 || limit > len(cands) {
		limit = len(cands)
	}

	out := make([]Product, 0, limit)
	for _, s := range cands[:limit] {
		out = append(out, s.p)
	}
	return out
}

type raw struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	Unit        string          `json:"unit"`
	Stock       json.RawMessage `json:"stock"`
	Inventory   json.RawMessage `json:"inventory"`
	Qty         json.RawMessage `json:"qty"`
	Images      []string        `json:"images"`
	Thumb       string          `json:"thumb"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	SellerName  string          `json:"sellerName"`
	SellerPhone string          `json:"sellerPhone"`
	Location    string          `json:"location"`
	Rating      *float64        `json:"rating"`
	Sold        int             `json:"sold"`
	Tags        []string        `json:"tags"`
	Featured    bool            `json:"featured"`
	Available   *bool           `json:"available"`
}

func (r raw) normalize() Product {
	imgs := r.Images
	if len(imgs) == 0 {
		if r.Thumb != "" {
			imgs = []string{r.Thumb}
		} else {
			imgs = []string{Placeholder}
		}
	}
	primary := imgs[0]
	if primary == "" {
		primary = Placeholder
	}

	rating := 4.8
	if r.Rating != nil {
		rating = *r.Rating
	}

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return Product{
		ID:          text(r.ID),
		Name:        orDefault(r.Name, "Unknown Product"),
		Price:       int64(r.Price),
		Unit:        orDefault(r.Unit, "pcs"),
		Stock:       r.stock(),
		Image:       primary,
		Images:      imgs,
		Description: orDefault(r.Description, "No description available"),
		Category:    orDefault(r.Category, "general"),
		SellerName:  orDefault(r.SellerName, "UMKM Lokal"),
		SellerPhone: r.SellerPhone,
		Location:    orDefault(r.Location, "Muara Enim"),
		Rating:      rating,
		Sold:        r.Sold,
		Tags:        tags,
		Featured:    r.Featured,
		Available:   true,
	}
}

// stock falls back through stock, inventory and qty, then to 999.
func (r raw) stock() int {
	for _, v := range []json.RawMessage{r.Stock, r.Inventory, r.Qty} {
		s := text(v)
		if s == "" || s == "null" {
			continue
		}
		n, ok := leadingInt(s)
		if !ok {
			return 999
		}
		return n
	}
	return 999
}

// leadingInt reads the integer at the start of s and ignores the rest, so
// "12.5" and "12 pcs" are both 12.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func text(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
