// Package dialect holds per-language adapters that derive readings,
// segment terms and rewrite language-specific tags. Languages without an
// adapter resolve to a no-op default.
package dialect

import (
	"sync"

	"github.com/daxida/kty/internal/domain"
)

// Adapter is implemented by every language adapter. Capabilities are
// discovered through the optional interfaces below.
type Adapter interface {
	Languages() []string
}

// ReadingDeriver derives a phonetic reading distinct from the written term.
type ReadingDeriver interface {
	// HeadwordReading returns the reading of the record's headword, or ""
	// when the record carries none.
	HeadwordReading(rec *domain.RawRecord) (string, error)
	// FormReading splits a raw form into its written shape and reading.
	FormReading(form domain.RawForm) (written, reading string, err error)
}

// TermSegmenter splits a term into indexable segments.
type TermSegmenter interface {
	SegmentTerm(term string) ([]string, error)
}

// TagMapper rewrites raw tags before the canonical tag table is applied.
type TagMapper interface {
	MapTags(raw []string) ([]string, error)
}

// Registry maps language codes to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates a registry holding adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in adapter.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Japanese{},
		Chinese{},
		NewDiacritic([]string{"ru", "uk", "be", "bg"}, acuteGrave),
		NewDiacritic([]string{"la", "ang", "grc"}, macronBreve),
		German{},
	)
}

// Register adds a to the registry, replacing previous adapters for the
// same languages.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lang := range a.Languages() {
		r.adapters[lang] = a
	}
}

// Resolve returns the adapter for lang, or the no-op default.
func (r *Registry) Resolve(lang string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.adapters[lang]; ok {
		return a
	}
	return Default{}
}

// Default is the adapter of languages without special handling.
type Default struct{}

func (Default) Languages() []string { return nil }
