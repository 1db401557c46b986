package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/irsalhamdi/ecosera-cart/validate"
	"github.com/sirupsen/logrus"
)

// Persister loads and saves the full list of items of one cart.
type Persister interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Store owns the items of a single cart. Mutations are serialised and
// written through to the Persister after the in-memory update. Storage
// failures are logged and never returned.
type Store struct {
	mu      sync.Mutex
	items   []Item
	persist Persister
	log     logrus.FieldLogger
}

// NewStore rehydrates a cart from p. Anything that cannot be loaded
// results in an empty cart. A nil p keeps the cart in memory only.
func NewStore(ctx context.Context, p Persister, log logrus.FieldLogger) *Store {
	s := &Store{
		items:   make([]Item, 0),
		persist: p,
		log:     log,
	}

	if p == nil {
		return s
	}

	items, err := p.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("cart could not be loaded, starting empty")
		return s
	}
	if items != nil {
		s.items = items
	}

	return s
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) save(ctx context.Context) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(ctx, s.copyItems()); err != nil {
		s.log.WithError(err).Error("cart could not be persisted, keeping it in memory")
	}
}

func (s *Store) copyItems() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// AddItem appends ni with the given quantity, or adds quantity to the line
// already holding ni.ID. The existing line keeps its name, price, seller and
// thumbnail.
func (s *Store) AddItem(ctx context.Context, ni ItemNew, quantity int) (Cart, error) {
	if quantity <= 0 {
		return Cart{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, quantity)
	}
	if err := validate.Check(ni); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if quantity > MaxQuantity {
		return Cart{}, fmt.Errorf("%w: quantity must be at most %d, got %d", ErrInvalidArgument, MaxQuantity, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(ni.ID)

	price := ni.Price
	if i >= 0 {
		price = s.items[i].Price
		if s.items[i].Quantity+quantity > MaxQuantity {
			return Cart{}, fmt.Errorf("%w: line %s would exceed %d units", ErrInvalidArgument, ni.ID, MaxQuantity)
		}
	}
	if !fits(subtotal(s.items), price*int64(quantity)) {
		return Cart{}, fmt.Errorf("%w: cart total would overflow", ErrInvalidArgument)
	}

	if i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, Item{
			ID:           ni.ID,
			Name:         ni.Name,
			Price:        ni.Price,
			Quantity:     quantity,
			ThumbnailURL: ni.ThumbnailURL,
			SellerName:   ni.SellerName,
		})
	}

	s.save(ctx)
	return s.snapshot(), nil
}

// UpdateQuantity sets the quantity of id. A quantity of zero or less
// removes the line. Unknown ids are ignored. Quantities above MaxQuantity
// are rejected.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) (Cart, error) {
	if quantity > MaxQuantity {
		return Cart{}, fmt.Errorf("%w: quantity must be at most %d, got %d", ErrInvalidArgument, MaxQuantity, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.snapshot(), nil
	}

	if quantity <= 0 {
		s.removeAt(i)
	} else {
		it := s.items[i]
		if delta := it.Price * int64(quantity-it.Quantity); delta > 0 && !fits(subtotal(s.items), delta) {
			return Cart{}, fmt.Errorf("%w: cart total would overflow", ErrInvalidArgument)
		}
		s.items[i].Quantity = quantity
	}

	s.save(ctx)
	return s.snapshot(), nil
}

// RemoveItem drops the line holding id, if any.
func (s *Store) RemoveItem(ctx context.Context, id string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.snapshot()
	}

	s.removeAt(i)
	s.save(ctx)
	return s.snapshot()
}

func (s *Store) removeAt(i int) {
	s.items = append(s.items[:i], s.items[i+1:]...)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]Item, 0)
	s.save(ctx)
	return s.snapshot()
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

func (s *Store) GroupBySeller() []SellerGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return groupBySeller(s.items)
}

// TotalItemCount is the sum of all quantities.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.items)
}

func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() Cart {
	items := s.copyItems()
	return Cart{
		Items:     items,
		Subtotal:  subtotal(items),
		ItemCount: itemCount(items),
		Sellers:   groupBySeller(items),
	}
}
