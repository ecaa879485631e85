package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/domain"
)

func TestParsePredicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Predicate
		wantErr bool
	}{
		{name: "lang code", input: "lang_code=el", want: Predicate{Key: "lang_code", Value: "el"}},
		{name: "spaces trimmed", input: " pos = verb ", want: Predicate{Key: "pos", Value: "verb"}},
		{name: "empty value", input: "word=", want: Predicate{Key: "word", Value: ""}},
		{name: "value with equals", input: "word=a=b", want: Predicate{Key: "word", Value: "a=b"}},
		{name: "unknown key", input: "etymology=x", wantErr: true},
		{name: "missing separator", input: "pos", wantErr: true},
		{name: "empty key", input: "=verb", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePredicate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePredicates_SkipsBlank(t *testing.T) {
	t.Parallel()

	got, err := ParsePredicates([]string{"pos=noun", "", "  "})
	require.NoError(t, err)
	assert.Equal(t, []Predicate{{Key: "pos", Value: "noun"}}, got)
}

func TestOptions_Retains(t *testing.T) {
	t.Parallel()

	rec := &domain.RawRecord{Word: "run", LangCode: "en", Lang: "English", POS: "verb"}

	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{name: "no predicates", opts: Options{}, want: true},
		{name: "inclusion matches", opts: Options{Include: []Predicate{{Key: "pos", Value: "verb"}}}, want: true},
		{name: "inclusion is OR", opts: Options{Include: []Predicate{{Key: "pos", Value: "noun"}, {Key: "lang", Value: "English"}}}, want: true},
		{name: "no inclusion matches", opts: Options{Include: []Predicate{{Key: "pos", Value: "noun"}}}, want: false},
		{name: "exclusion wins", opts: Options{
			Include: []Predicate{{Key: "pos", Value: "verb"}},
			Exclude: []Predicate{{Key: "word", Value: "run"}},
		}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.opts.Retains(rec))
		})
	}
}
