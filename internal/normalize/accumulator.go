package normalize

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/daxida/kty/internal/domain"
)

// Accumulator owns the in-progress builders of one run. Callers follow a
// get, mutate, put cycle and never hold a builder across another Get.
type Accumulator interface {
	Get(ctx context.Context, key domain.EntryKey) (*Builder, bool, error)
	// Put stores b. The first Put of a key fixes its position in Range.
	Put(ctx context.Context, b *Builder) error
	// Range calls fn for every builder in first-seen order.
	Range(ctx context.Context, fn func(*Builder) error) error
	Len() int
	// Close releases the accumulator. It is unusable afterwards.
	Close(ctx context.Context) error
}

// MemoryAccumulator keeps every builder in memory.
type MemoryAccumulator struct {
	index    map[domain.EntryKey]*Builder
	builders []*Builder
}

func NewMemoryAccumulator() *MemoryAccumulator {
	return &MemoryAccumulator{index: make(map[domain.EntryKey]*Builder)}
}

func (m *MemoryAccumulator) Get(_ context.Context, key domain.EntryKey) (*Builder, bool, error) {
	b, ok := m.index[key]
	return b, ok, nil
}

func (m *MemoryAccumulator) Put(_ context.Context, b *Builder) error {
	key := b.Key()
	if _, ok := m.index[key]; !ok {
		m.builders = append(m.builders, b)
	}
	m.index[key] = b
	return nil
}

func (m *MemoryAccumulator) Range(ctx context.Context, fn func(*Builder) error) error {
	for _, b := range m.builders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryAccumulator) Len() int { return len(m.builders) }

func (m *MemoryAccumulator) Close(context.Context) error {
	m.index = nil
	m.builders = nil
	return nil
}

// SpillStore persists builders outside the process heap.
type SpillStore interface {
	Save(ctx context.Context, builders []*Builder) error
	Load(ctx context.Context, key domain.EntryKey) (*Builder, bool, error)
	// Range yields builders ordered by FirstSeen.
	Range(ctx context.Context, fn func(*Builder) error) error
	// Drop deletes everything the store holds for the run.
	Drop(ctx context.Context) error
}

// CachedAccumulator keeps the most recently used builders in an LRU cache
// and writes evicted ones back to a SpillStore.
type CachedAccumulator struct {
	cache   *lru.Cache[domain.EntryKey, *Builder]
	store   SpillStore
	known   map[domain.EntryKey]struct{}
	pending []*Builder
}

// NewCachedAccumulator creates an accumulator holding at most size
// builders in memory.
func NewCachedAccumulator(store SpillStore, size int) (*CachedAccumulator, error) {
	a := &CachedAccumulator{
		store: store,
		known: make(map[domain.EntryKey]struct{}),
	}
	cache, err := lru.NewWithEvict(size, func(_ domain.EntryKey, b *Builder) {
		a.pending = append(a.pending, b)
	})
	if err != nil {
		return nil, fmt.Errorf("accumulator cache: %w", err)
	}
	a.cache = cache
	return a, nil
}

func (a *CachedAccumulator) Get(ctx context.Context, key domain.EntryKey) (*Builder, bool, error) {
	if b, ok := a.cache.Get(key); ok {
		return b, true, nil
	}
	if _, ok := a.known[key]; !ok {
		return nil, false, nil
	}
	if err := a.flush(ctx); err != nil {
		return nil, false, err
	}
	b, ok, err := a.store.Load(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil, false, fmt.Errorf("load %s: %w", key, errors.New("spilled builder missing from store"))
	}
	return b, true, nil
}

func (a *CachedAccumulator) Put(ctx context.Context, b *Builder) error {
	a.known[b.Key()] = struct{}{}
	a.cache.Add(b.Key(), b)
	return a.flush(ctx)
}

func (a *CachedAccumulator) Range(ctx context.Context, fn func(*Builder) error) error {
	a.cache.Purge()
	if err := a.flush(ctx); err != nil {
		return err
	}
	return a.store.Range(ctx, fn)
}

func (a *CachedAccumulator) Len() int { return len(a.known) }

func (a *CachedAccumulator) Close(ctx context.Context) error {
	a.cache.Purge()
	a.pending = nil
	a.known = nil
	return a.store.Drop(ctx)
}

func (a *CachedAccumulator) flush(ctx context.Context) error {
	if len(a.pending) == 0 {
		return nil
	}
	batch := a.pending
	a.pending = nil
	if err := a.store.Save(ctx, batch); err != nil {
		return fmt.Errorf("spill %d builders: %w", len(batch), err)
	}
	return nil
}
