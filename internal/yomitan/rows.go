package yomitan

import (
	"bytes"
	"encoding/json"
)

// FormatVersion is the dictionary format written to index.json.
const FormatVersion = 3

// TermRow is one term bank row. It encodes as an 8-element array in the
// order the reader expects.
type TermRow struct {
	Term           string
	Reading        string
	DefinitionTags string
	Rules          string
	Score          int
	Glossary       []any
	Sequence       int
	TermTags       string
}

func (r TermRow) MarshalJSON() ([]byte, error) {
	glossary := r.Glossary
	if glossary == nil {
		glossary = []any{}
	}
	return marshal([]any{
		r.Term, r.Reading, r.DefinitionTags, r.Rules, r.Score, glossary, r.Sequence, r.TermTags,
	})
}

// TagRow is one tag bank row, encoded as a 5-element array.
type TagRow struct {
	Name     string
	Category string
	Order    int
	Notes    string
	Score    int
}

func (r TagRow) MarshalJSON() ([]byte, error) {
	return marshal([]any{r.Name, r.Category, r.Order, r.Notes, r.Score})
}

// Index is the index.json document.
type Index struct {
	Title          string `json:"title"`
	Revision       string `json:"revision"`
	Sequenced      bool   `json:"sequenced"`
	Format         int    `json:"format"`
	Author         string `json:"author,omitempty"`
	URL            string `json:"url,omitempty"`
	Description    string `json:"description,omitempty"`
	Attribution    string `json:"attribution,omitempty"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
}

// marshal encodes v without HTML escaping, so glosses keep their literal
// angle brackets and ampersands.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
