package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/domain"
)

func collect(t *testing.T, s *Stream) []string {
	t.Helper()
	var words []string
	for s.Next() {
		words = append(words, s.Record().Word)
	}
	return words
}

func jsonl(t *testing.T, recs []domain.RawRecord) string {
	t.Helper()
	var b strings.Builder
	for _, r := range recs {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestStream_SampleFile(t *testing.T) {
	t.Parallel()

	f, err := os.Open(filepath.Join("testdata", "sample.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	diag := domain.NewDiagnostics(0)
	opts := Options{
		Include:   []Predicate{{Key: "lang_code", Value: "de"}},
		Exclude:   []Predicate{{Key: "pos", Value: "adj"}},
		Cap:       Unbounded,
		Tolerance: 1,
	}
	s := NewStream(f, opts, diag)

	assert.Equal(t, []string{"laufen", "Haus", "gehen"}, collect(t, s))
	require.NoError(t, s.Err())

	st := s.Stats()
	assert.Equal(t, 7, st.Lines)
	assert.Equal(t, 1, st.Blank)
	assert.Equal(t, 1, st.Malformed)
	assert.Equal(t, 5, st.Evaluated)
	assert.Equal(t, 3, st.Retained)
	assert.Equal(t, 2, st.Rejected)

	samples := diag.Samples(domain.DiagMalformedRecord)
	require.Len(t, samples, 1)
	assert.Equal(t, "line 4", samples[0].Subject)
}

func TestStream_LangGate(t *testing.T) {
	t.Parallel()

	f, err := os.Open(filepath.Join("testdata", "sample.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	opts := Options{Lang: "de", Include: []Predicate{{Key: "word", Value: "go"}, {Key: "pos", Value: "verb"}}, Cap: Unbounded, Tolerance: 1}
	s := NewStream(f, opts, nil)

	var lines []string
	for s.Next() {
		lines = append(lines, string(s.Line()))
	}
	require.NoError(t, s.Err())
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `{"word": "laufen"`))
	assert.True(t, strings.HasPrefix(lines[1], `{"word": "gehen"`))
	assert.Equal(t, 5, s.Stats().Evaluated)
}

func TestStream_Cap(t *testing.T) {
	t.Parallel()

	recs := make([]domain.RawRecord, 10)
	for i := range recs {
		recs[i] = domain.RawRecord{Word: fmt.Sprintf("w%d", i), LangCode: "en", POS: "noun"}
	}
	input := jsonl(t, recs)

	tests := []struct {
		name string
		cap  int
		want []string
	}{
		{name: "cap five", cap: 5, want: []string{"w0", "w1", "w2", "w3", "w4"}},
		{name: "unbounded", cap: Unbounded, want: []string{"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8", "w9"}},
		{name: "zero", cap: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewStream(strings.NewReader(input), Options{Cap: tt.cap, Tolerance: 1}, nil)
			assert.Equal(t, tt.want, collect(t, s))
			require.NoError(t, s.Err())
			assert.Equal(t, len(tt.want), s.Stats().Evaluated)
		})
	}
}

func TestStream_CapCountsEvaluatedNotRetained(t *testing.T) {
	t.Parallel()

	input := jsonl(t, []domain.RawRecord{
		{Word: "a", LangCode: "en"},
		{Word: "b", LangCode: "fr"},
		{Word: "c", LangCode: "en"},
		{Word: "d", LangCode: "en"},
	})
	opts := Options{Include: []Predicate{{Key: "lang_code", Value: "en"}}, Cap: 3, Tolerance: 1}
	s := NewStream(strings.NewReader(input), opts, nil)

	assert.Equal(t, []string{"a", "c"}, collect(t, s))
}

func TestStream_ToleranceExceeded(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := range 20 {
		if i%4 == 0 {
			b.WriteString("{broken\n")
			continue
		}
		fmt.Fprintf(&b, `{"word":"w%d","lang_code":"en"}`+"\n", i)
	}

	s := NewStream(strings.NewReader(b.String()), Options{Cap: Unbounded, Tolerance: 0.1, MinSample: 10}, nil)
	for s.Next() {
	}

	require.Error(t, s.Err())
	assert.True(t, errors.Is(s.Err(), domain.ErrCorruptSource))
	assert.Contains(t, s.Err().Error(), "malformed")
}

func TestStream_ToleranceBelowMinSample(t *testing.T) {
	t.Parallel()

	input := "{broken\n" + `{"word":"ok","lang_code":"en"}` + "\n"
	s := NewStream(strings.NewReader(input), Options{Cap: Unbounded, Tolerance: 0.05, MinSample: 100}, nil)

	assert.Equal(t, []string{"ok"}, collect(t, s))
	assert.NoError(t, s.Err())
}

func TestStream_SmallCorruptFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "all malformed", input: strings.Repeat("{not json\n", 20), wantErr: true},
		{name: "mostly malformed", input: strings.Repeat("{not json\n", 3) + `{"word":"ok"}` + "\n", wantErr: true},
		{name: "half malformed", input: "{not json\n" + `{"word":"ok"}` + "\n"},
		{name: "only blank lines", input: "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewStream(strings.NewReader(tt.input), Options{Cap: Unbounded, Tolerance: 0.05, MinSample: 100}, nil)
			for s.Next() {
			}
			if tt.wantErr {
				assert.True(t, errors.Is(s.Err(), domain.ErrCorruptSource))
				return
			}
			assert.NoError(t, s.Err())
		})
	}
}

// Every record is retained iff the cap is not exhausted, the inclusion set
// is empty or matches, and no exclusion matches.
func TestStream_RandomizedRetention(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	langs := []string{"en", "de", "fr", "ja"}
	poses := []string{"noun", "verb", "adj"}
	words := []string{"a", "b", "c", "d", "e"}

	randomPredicates := func() []Predicate {
		n := rng.IntN(3)
		ps := make([]Predicate, 0, n)
		for range n {
			switch rng.IntN(3) {
			case 0:
				ps = append(ps, Predicate{Key: "lang_code", Value: langs[rng.IntN(len(langs))]})
			case 1:
				ps = append(ps, Predicate{Key: "pos", Value: poses[rng.IntN(len(poses))]})
			default:
				ps = append(ps, Predicate{Key: "word", Value: words[rng.IntN(len(words))]})
			}
		}
		return ps
	}

	for iter := range 200 {
		recs := make([]domain.RawRecord, 1+rng.IntN(30))
		for i := range recs {
			recs[i] = domain.RawRecord{
				Word:     words[rng.IntN(len(words))],
				LangCode: langs[rng.IntN(len(langs))],
				POS:      poses[rng.IntN(len(poses))],
			}
		}
		opts := Options{
			Include:   randomPredicates(),
			Exclude:   randomPredicates(),
			Cap:       rng.IntN(len(recs)+2) - 1,
			Tolerance: 1,
		}

		var want []string
		for i, r := range recs {
			if opts.Cap >= 0 && i >= opts.Cap {
				break
			}
			included := len(opts.Include) == 0
			for _, p := range opts.Include {
				if p.Match(&r) {
					included = true
				}
			}
			excluded := false
			for _, p := range opts.Exclude {
				if p.Match(&r) {
					excluded = true
				}
			}
			if included && !excluded {
				want = append(want, fmt.Sprintf("%s/%s/%s", r.Word, r.LangCode, r.POS))
			}
		}

		s := NewStream(strings.NewReader(jsonl(t, recs)), opts, nil)
		var got []string
		for s.Next() {
			r := s.Record()
			got = append(got, fmt.Sprintf("%s/%s/%s", r.Word, r.LangCode, r.POS))
		}
		require.NoError(t, s.Err())
		require.Equal(t, want, got, "iteration %d, opts %+v", iter, opts)
	}
}
