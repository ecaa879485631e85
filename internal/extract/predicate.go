package extract

import (
	"fmt"
	"slices"
	"strings"

	"github.com/daxida/kty/internal/domain"
)

// Keys accepted by predicates.
var knownKeys = []string{"lang_code", "lang", "word", "pos"}

// Predicate matches records whose field Key equals Value exactly.
type Predicate struct {
	Key   string
	Value string
}

// ParsePredicate parses "key=value".
func ParsePredicate(s string) (Predicate, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return Predicate{}, domain.NewConfigError("predicate", fmt.Sprintf("%q: want key=value", s))
	}
	if !slices.Contains(knownKeys, key) {
		return Predicate{}, domain.NewConfigError("predicate", fmt.Sprintf("unknown key %q (want one of %s)", key, strings.Join(knownKeys, ", ")))
	}
	return Predicate{Key: key, Value: strings.TrimSpace(value)}, nil
}

// ParsePredicates parses every entry of ss, failing on the first bad one.
func ParsePredicates(ss []string) ([]Predicate, error) {
	out := make([]Predicate, 0, len(ss))
	for _, s := range ss {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p, err := ParsePredicate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (p Predicate) String() string { return p.Key + "=" + p.Value }

func (p Predicate) Match(r *domain.RawRecord) bool {
	v, ok := r.Field(p.Key)
	return ok && v == p.Value
}

func anyMatch(ps []Predicate, r *domain.RawRecord) bool {
	for _, p := range ps {
		if p.Match(r) {
			return true
		}
	}
	return false
}
