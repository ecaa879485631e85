// Package tags maps raw extract tags to canonical tag codes and holds the
// tag bank metadata written to the dictionary.
package tags

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daxida/kty/internal/domain"
)

//go:embed default.yaml
var defaultBank []byte

// unknownRank sorts tags missing from the bank after every known tag.
const unknownRank = 1000

// Tag is one tag bank entry.
type Tag struct {
	Code     string `yaml:"code"`
	Category string `yaml:"category"`
	Order    *int   `yaml:"order"`
	Note     string `yaml:"note"`
	Score    int    `yaml:"score"`
}

// Language is the per-language configuration of a source language.
type Language struct {
	Tags                map[string]string `yaml:"tags"`
	TerminalPunctuation string            `yaml:"terminal_punctuation"`
	StripIdentityTags   bool              `yaml:"strip_identity_tags"`
}

// POS is the short code and deinflection rule of a part of speech.
type POS struct {
	Code string `yaml:"code"`
	Rule string `yaml:"rule"`
}

// Bank is the loaded tag configuration. It is read-only after Parse.
type Bank struct {
	Categories map[string]int      `yaml:"categories"`
	Tags       []Tag               `yaml:"tags"`
	POS        map[string]POS      `yaml:"pos"`
	Languages  map[string]Language `yaml:"languages"`

	byCode map[string]Tag
}

// Load reads a bank from path, or the built-in bank when path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Parse(defaultBank)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	bank, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tags: %s: %w", path, err)
	}
	return bank, nil
}

// Default returns the built-in bank.
func Default() *Bank {
	b, err := Parse(defaultBank)
	if err != nil {
		panic(fmt.Sprintf("tags: built-in bank: %v", err))
	}
	return b
}

// Parse decodes and validates a YAML bank.
func Parse(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, domain.NewConfigError("tags", err.Error())
	}

	var errs []domain.FieldError
	b.byCode = make(map[string]Tag, len(b.Tags))
	for i, t := range b.Tags {
		field := fmt.Sprintf("tags[%d]", i)
		switch {
		case strings.TrimSpace(t.Code) == "":
			errs = append(errs, domain.FieldError{Field: field, Message: "code is required"})
			continue
		case strings.ContainsAny(t.Code, " \t"):
			errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("code %q contains whitespace", t.Code)})
			continue
		}
		if _, dup := b.byCode[t.Code]; dup {
			errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("duplicate code %q", t.Code)})
			continue
		}
		if _, ok := b.Categories[t.Category]; t.Category != "" && !ok {
			errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("unknown category %q", t.Category)})
		}
		b.byCode[t.Code] = t
	}
	for name, p := range b.POS {
		if p.Code == "" {
			errs = append(errs, domain.FieldError{Field: "pos." + name, Message: "code is required"})
		}
	}
	if len(errs) > 0 {
		return nil, domain.NewConfigErrors(errs)
	}
	return &b, nil
}

// Lookup returns the bank entry for code.
func (b *Bank) Lookup(code string) (Tag, bool) {
	t, ok := b.byCode[code]
	return t, ok
}

// Rank is the sort rank of code: the tag's own order when set, its
// category's rank otherwise. Unknown codes rank last.
func (b *Bank) Rank(code string) int {
	t, ok := b.byCode[code]
	if !ok {
		return unknownRank
	}
	if t.Order != nil {
		return *t.Order
	}
	return b.Categories[t.Category]
}

// Language returns the table for a source language. A language with no
// entry is a configuration error.
func (b *Bank) Language(code string) (Language, error) {
	lang, ok := b.Languages[code]
	if !ok {
		return Language{}, domain.NewConfigError("languages", fmt.Sprintf("no tag table for language %q", code))
	}
	return lang, nil
}

// MapPOS returns the short code and rule for a raw part of speech. Parts of
// speech missing from the bank keep their raw name and have no rule.
func (b *Bank) MapPOS(pos string) POS {
	if p, ok := b.POS[pos]; ok {
		return p
	}
	return POS{Code: pos}
}

// Sort orders codes in place by (rank, code).
func (b *Bank) Sort(codes []string) {
	slices.SortStableFunc(codes, func(x, y string) int {
		if rx, ry := b.Rank(x), b.Rank(y); rx != ry {
			return rx - ry
		}
		return strings.Compare(x, y)
	})
}
