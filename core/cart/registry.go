package cart

import (
	"context"
	"sync"
	"time"

	"github.com/irsalhamdi/ecosera-cart/storage"
	"github.com/sirupsen/logrus"
)

// PersisterFunc returns the persister backing the cart with the given id.
type PersisterFunc func(cartID string) Persister

// KeyedPersisters namespaces every cart under base inside kv.
func KeyedPersisters(kv storage.KV, base string) PersisterFunc {
	return func(cartID string) Persister {
		return NewKVPersister(kv, base+":"+cartID)
	}
}

type entry struct {
	once       sync.Once
	store      *Store
	lastAccess time.Time
}

// Registry hands out one Store per cart id, rehydrating it on first use.
type Registry struct {
	mu           sync.Mutex
	stores       map[string]*entry
	newPersister PersisterFunc
	log          logrus.FieldLogger
}

func NewRegistry(f PersisterFunc, log logrus.FieldLogger) *Registry {
	return &Registry{
		stores:       make(map[string]*entry),
		newPersister: f,
		log:          log,
	}
}

// Store returns the cart for cartID. Rehydration runs outside the registry
// lock, so a slow backend only holds up callers of the same cart.
func (r *Registry) Store(ctx context.Context, cartID string) *Store {
	r.mu.Lock()
	e, ok := r.stores[cartID]
	if !ok {
		e = &entry{}
		r.stores[cartID] = e
	}
	e.lastAccess = time.Now()
	r.mu.Unlock()

	e.once.Do(func() {
		var p Persister
		if r.newPersister != nil {
			p = r.newPersister(cartID)
		}
		e.store = NewStore(ctx, p, r.log.WithField("cart_id", cartID))
	})
	return e.store
}

// Evict drops carts idle for longer than maxIdle from memory. Their state
// stays in storage and is reloaded on the next access.
func (r *Registry) Evict(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.stores {
		if time.Since(e.lastAccess) > maxIdle {
			delete(r.stores, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
