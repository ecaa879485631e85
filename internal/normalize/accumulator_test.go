package normalize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/domain"
)

func keys(t *testing.T, acc Accumulator) []string {
	t.Helper()
	var out []string
	require.NoError(t, acc.Range(context.Background(), func(b *Builder) error {
		out = append(out, b.Term)
		return nil
	}))
	return out
}

func TestMemoryAccumulator_FirstPutFixesOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acc := NewMemoryAccumulator()
	a := newBuilder(domain.EntryKey{Term: "a", Lang: "en"}, 0)
	b := newBuilder(domain.EntryKey{Term: "b", Lang: "en"}, 1)

	require.NoError(t, acc.Put(ctx, a))
	require.NoError(t, acc.Put(ctx, b))
	require.NoError(t, acc.Put(ctx, a))

	assert.Equal(t, []string{"a", "b"}, keys(t, acc))
	assert.Equal(t, 2, acc.Len())

	got, ok, err := acc.Get(ctx, domain.EntryKey{Term: "b", Lang: "en"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestCachedAccumulator_SpillsAndReloads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	acc, err := NewCachedAccumulator(store, 1)
	require.NoError(t, err)

	a := newBuilder(domain.EntryKey{Term: "a", Lang: "en"}, 0)
	a.addForm("as", "", []string{"plural"}, "a")
	require.NoError(t, acc.Put(ctx, a))
	require.NoError(t, acc.Put(ctx, newBuilder(domain.EntryKey{Term: "b", Lang: "en"}, 1)))
	assert.Contains(t, store.rows, domain.EntryKey{Term: "a", Lang: "en"})

	reloaded, ok, err := acc.Get(ctx, domain.EntryKey{Term: "a", Lang: "en"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotSame(t, a, reloaded)

	// Indexes are rebuilt after the JSON round trip.
	reloaded.addForm("as", "", []string{"nominative"}, "a")
	require.Len(t, reloaded.Forms, 1)
	assert.Equal(t, []string{"plural", "nominative"}, reloaded.Forms[0].Tags)

	_, ok, err = acc.Get(ctx, domain.EntryKey{Term: "zzz", Lang: "en"})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, keys(t, acc))
}

type failingStore struct{ memoryStore }

func (failingStore) Save(context.Context, []*Builder) error { return errors.New("disk full") }

func TestCachedAccumulator_SaveErrorSurfaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	acc, err := NewCachedAccumulator(&failingStore{}, 1)
	require.NoError(t, err)

	require.NoError(t, acc.Put(ctx, newBuilder(domain.EntryKey{Term: "a"}, 0)))
	err = acc.Put(ctx, newBuilder(domain.EntryKey{Term: "b"}, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
