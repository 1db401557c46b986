package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/irsalhamdi/ecosera-cart/storage/memory"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()
	kv := memory.New()
	reg := NewRegistry(KeyedPersisters(kv, DefaultKey), log)

	alice := reg.Store(ctx, "alice")
	bob := reg.Store(ctx, "bob")
	if alice == bob {
		t.Fatal("expected a store per cart id")
	}
	if reg.Store(ctx, "alice") != alice {
		t.Fatal("expected the same store for the same cart id")
	}

	add(t, alice, kopi, 2)
	if len(bob.Items()) != 0 {
		t.Fatal("carts must not share items")
	}

	if _, err := kv.Get(ctx, DefaultKey+":alice"); err != nil {
		t.Fatalf("expected alice's cart under its own key: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if n := reg.Evict(time.Millisecond); n != 2 {
		t.Fatalf("expected 2 evictions, got %d", n)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected an empty registry, got %d", reg.Len())
	}

	reloaded := reg.Store(ctx, "alice")
	if reloaded == alice {
		t.Fatal("expected a fresh store after eviction")
	}
	if reloaded.TotalItemCount() != 2 {
		t.Fatalf("expected the evicted cart to be rehydrated, got %d units", reloaded.TotalItemCount())
	}
}

type gatedPersister struct {
	Persister
	release chan struct{}
}

func (g *gatedPersister) Load(ctx context.Context) ([]Item, error) {
	<-g.release
	return g.Persister.Load(ctx)
}

func TestRegistrySlowLoad(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()
	kv := memory.New()
	keyed := KeyedPersisters(kv, DefaultKey)
	release := make(chan struct{})

	reg := NewRegistry(func(cartID string) Persister {
		if cartID == "slow" {
			return &gatedPersister{Persister: keyed(cartID), release: release}
		}
		return keyed(cartID)
	}, log)

	var wg sync.WaitGroup
	slow := make([]*Store, 2)
	for i := range slow {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slow[i] = reg.Store(ctx, "slow")
		}(i)
	}

	done := make(chan *Store)
	go func() {
		done <- reg.Store(ctx, "fast")
	}()

	select {
	case s := <-done:
		if s == nil {
			t.Fatal("expected a store for the fast cart")
		}
	case <-time.After(time.Second):
		close(release)
		t.Fatal("a blocked load held up another cart")
	}

	close(release)
	wg.Wait()

	if slow[0] == nil || slow[0] != slow[1] {
		t.Fatal("expected concurrent callers of one cart to share a single store")
	}
}
