package yomitan

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/daxida/kty/internal/archive"
)

// DefaultBankSize is the number of rows per term bank document.
const DefaultBankSize = 25000

//go:embed styles.css
var styles []byte

// DocumentOptions controls how Tables are split and encoded.
type DocumentOptions struct {
	BankSize int
	Pretty   bool
}

// Documents encodes t into archive entries in a fixed order: index.json,
// styles.css, tag_bank_1.json, then term_bank_1.json onwards.
func (t *Tables) Documents(opts DocumentOptions) ([]archive.Entry, error) {
	size := opts.BankSize
	if size <= 0 {
		size = DefaultBankSize
	}

	index, err := encode(t.Index, opts.Pretty)
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	tagRows := t.Tags
	if tagRows == nil {
		tagRows = []TagRow{}
	}
	tagBank, err := encode(tagRows, opts.Pretty)
	if err != nil {
		return nil, fmt.Errorf("encode tag bank: %w", err)
	}

	entries := []archive.Entry{
		{Name: "index.json", Data: index},
		{Name: "styles.css", Data: styles},
		{Name: "tag_bank_1.json", Data: tagBank},
	}
	for i, chunk := range Banks(t.Terms, size) {
		data, err := encode(chunk, opts.Pretty)
		if err != nil {
			return nil, fmt.Errorf("encode term bank %d: %w", i+1, err)
		}
		entries = append(entries, archive.Entry{Name: fmt.Sprintf("term_bank_%d.json", i+1), Data: data})
	}
	return entries, nil
}

// Banks splits rows into consecutive chunks of at most size rows.
func Banks(rows []TermRow, size int) [][]TermRow {
	if size <= 0 {
		size = DefaultBankSize
	}
	var out [][]TermRow
	for start := 0; start < len(rows); start += size {
		out = append(out, rows[start:min(start+size, len(rows))])
	}
	return out
}

func encode(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
