package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/daxida/kty/internal/domain"
	"github.com/daxida/kty/internal/extract"
	"github.com/daxida/kty/internal/yomitan"
)

var langCode = regexp.MustCompile(`^[a-z]{2,3}$`)

// Validate performs business-rule validation on the loaded configuration
// and fills the parsed fields. Load calls it automatically.
func (c *Config) Validate() error {
	var errs []domain.FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		add("log.format", "must be json or text (got %q)", c.Log.Format)
	}

	for _, fe := range c.Run.validate() {
		errs = append(errs, domain.FieldError{Field: "run." + fe.Field, Message: fe.Message})
	}

	if c.Database.Enabled() && c.Database.MaxConns < 1 {
		add("database.max_conns", "must be >= 1 (got %d)", c.Database.MaxConns)
	}

	if c.Release.Endpoint != "" {
		if c.Release.Bucket == "" {
			add("release.bucket", "is required when release.endpoint is set")
		}
		if c.Release.AccessKey == "" || c.Release.SecretKey == "" {
			add("release.access_key", "access and secret key are required when release.endpoint is set")
		}
	}

	if len(errs) > 0 {
		return domain.NewConfigErrors(errs)
	}
	return nil
}

func (r *RunConfig) validate() []domain.FieldError {
	var errs []domain.FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.Root) == "" {
		add("root", "is required")
	}
	if r.Cap < extract.Unbounded {
		add("cap", "must be >= -1 (got %d)", r.Cap)
	}
	if r.Tolerance < 0 || r.Tolerance > 1 {
		add("tolerance", "must be within [0, 1] (got %v)", r.Tolerance)
	}
	if r.MinSample < 0 {
		add("min_sample", "must be >= 0 (got %d)", r.MinSample)
	}
	if r.BankSize <= 0 {
		add("bank_size", "must be > 0 (got %d)", r.BankSize)
	}
	if r.Workers < 1 {
		add("workers", "must be >= 1 (got %d)", r.Workers)
	}
	if r.Parallel < 1 {
		add("parallel", "must be >= 1 (got %d)", r.Parallel)
	}
	if r.SpillCache < 1 {
		add("spill_cache", "must be >= 1 (got %d)", r.SpillCache)
	}
	if r.LockTimeout < 0 {
		add("lock_timeout", "must be >= 0 (got %v)", r.LockTimeout)
	}
	if _, err := yomitan.ParseKind(r.Kind); err != nil {
		add("kind", "must be glossary or forms (got %q)", r.Kind)
	}

	pairs, err := ParsePairs(r.PairsRaw)
	if err != nil {
		add("pairs", "%v", err)
	}
	r.Pairs = pairs

	if r.Include, err = extract.ParsePredicates(SplitList(r.IncludeRaw)); err != nil {
		add("include", "%v", err)
	}
	if r.Exclude, err = extract.ParsePredicates(SplitList(r.ExcludeRaw)); err != nil {
		add("exclude", "%v", err)
	}
	return errs
}

// ParsePair parses "source-target", e.g. "de-en".
func ParsePair(s string) (Pair, error) {
	src, tgt, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || !langCode.MatchString(src) || !langCode.MatchString(tgt) {
		return Pair{}, fmt.Errorf("invalid pair %q: want source-target, e.g. de-en", s)
	}
	return Pair{Source: src, Target: tgt}, nil
}

// ParsePairs parses a comma-separated list of pairs. Duplicates are
// removed; an empty string returns a nil slice.
func ParsePairs(raw string) ([]Pair, error) {
	var pairs []Pair
	seen := make(map[Pair]bool)
	for _, part := range SplitList(raw) {
		p, err := ParsePair(part)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

// SplitList splits a comma-separated string, trimming and skipping empty
// items.
func SplitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
