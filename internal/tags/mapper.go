package tags

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/daxida/kty/internal/domain"
)

const defaultMemoSize = 4096

// Mapper converts raw tags of one source language into canonical codes.
// Lookups are memoized. Safe for concurrent use.
type Mapper struct {
	bank *Bank
	lang string
	tbl  Language
	memo *lru.Cache[string, []string]
	diag *domain.Diagnostics

	mu      sync.Mutex
	unknown map[string]struct{}
}

// NewMapper builds a mapper for lang. It fails when the bank has no table
// for lang.
func NewMapper(bank *Bank, lang string, memoSize int, diag *domain.Diagnostics) (*Mapper, error) {
	tbl, err := bank.Language(lang)
	if err != nil {
		return nil, err
	}
	return newMapper(bank, lang, tbl, memoSize, diag)
}

// NewPassthroughMapper builds a mapper with an empty language table, for
// records outside the run's source language.
func NewPassthroughMapper(bank *Bank, memoSize int, diag *domain.Diagnostics) (*Mapper, error) {
	return newMapper(bank, "", Language{}, memoSize, diag)
}

func newMapper(bank *Bank, lang string, tbl Language, memoSize int, diag *domain.Diagnostics) (*Mapper, error) {
	if memoSize <= 0 {
		memoSize = defaultMemoSize
	}
	memo, err := lru.New[string, []string](memoSize)
	if err != nil {
		return nil, fmt.Errorf("tags: memo: %w", err)
	}
	return &Mapper{
		bank:    bank,
		lang:    lang,
		tbl:     tbl,
		memo:    memo,
		diag:    diag,
		unknown: make(map[string]struct{}),
	}, nil
}

// Language returns the mapper's language table.
func (m *Mapper) Language() Language { return m.tbl }

// Canonical maps raw tags to canonical codes, deduplicated in first-seen
// order. Tags absent from both the language table and the bank are kept
// verbatim and reported once as unknown.
func (m *Mapper) Canonical(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		for _, code := range m.lookup(r) {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}

func (m *Mapper) lookup(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if codes, ok := m.memo.Get(raw); ok {
		return codes
	}

	var codes []string
	if mapped, ok := m.tbl.Tags[raw]; ok {
		codes = strings.Fields(mapped)
	} else {
		if _, known := m.bank.Lookup(raw); !known {
			m.reportUnknown(raw)
		}
		codes = []string{strings.ReplaceAll(raw, " ", "-")}
	}
	m.memo.Add(raw, codes)
	return codes
}

func (m *Mapper) reportUnknown(raw string) {
	m.mu.Lock()
	_, seen := m.unknown[raw]
	m.unknown[raw] = struct{}{}
	m.mu.Unlock()
	if !seen {
		m.diag.Add(domain.DiagUnknownTag, raw, fmt.Sprintf("tag not in bank (%s)", m.lang))
	}
}
