package domain

import "strings"

// RawRecord is one line of a kaikki/wiktextract JSONL extract. Only the
// fields the converter reads are declared; everything else is ignored.
type RawRecord struct {
	Word           string         `json:"word"`
	LangCode       string         `json:"lang_code"`
	Lang           string         `json:"lang,omitempty"`
	POS            string         `json:"pos"`
	EtymologyText  string         `json:"etymology_text,omitempty"`
	EtymologyTexts []string       `json:"etymology_texts,omitempty"`
	HeadTemplates  []HeadTemplate `json:"head_templates,omitempty"`
	Senses         []RawSense     `json:"senses,omitempty"`
	Forms          []RawForm      `json:"forms,omitempty"`
	Sounds         []RawSound     `json:"sounds,omitempty"`
}

// HeadTemplate is the expanded headword template of a record.
type HeadTemplate struct {
	Name      string            `json:"name"`
	Args      map[string]string `json:"args,omitempty"`
	Expansion string            `json:"expansion,omitempty"`
}

type RawSense struct {
	Glosses  []string     `json:"glosses,omitempty"`
	Tags     []string     `json:"tags,omitempty"`
	RawTags  []string     `json:"raw_tags,omitempty"`
	Examples []RawExample `json:"examples,omitempty"`
	FormOf   []FormOf     `json:"form_of,omitempty"`
}

// AllTags returns normalized tags followed by edition-specific raw tags.
func (s RawSense) AllTags() []string {
	return joinTags(s.Tags, s.RawTags)
}

type RawExample struct {
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
	English     string `json:"english,omitempty"`
}

// TranslationText returns the example's translation. The English edition
// stores it under "english", other editions under "translation".
func (e RawExample) TranslationText() string {
	if e.Translation != "" {
		return e.Translation
	}
	return e.English
}

type FormOf struct {
	Word string `json:"word"`
}

type RawForm struct {
	Form    string     `json:"form"`
	Tags    []string   `json:"tags,omitempty"`
	RawTags []string   `json:"raw_tags,omitempty"`
	Roman   string     `json:"roman,omitempty"`
	Ruby    [][]string `json:"ruby,omitempty"`
}

// AllTags returns normalized tags followed by edition-specific raw tags.
func (f RawForm) AllTags() []string {
	return joinTags(f.Tags, f.RawTags)
}

type RawSound struct {
	IPA     string   `json:"ipa,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	RawTags []string `json:"raw_tags,omitempty"`
	Note    string   `json:"note,omitempty"`
	ZhPron  string   `json:"zh-pron,omitempty"`
}

// AllTags returns normalized tags followed by edition-specific raw tags.
func (s RawSound) AllTags() []string {
	return joinTags(s.Tags, s.RawTags)
}

// Etymology returns the record's etymology text. Editions that split it
// into paragraphs are joined with newlines.
func (r *RawRecord) Etymology() string {
	if len(r.EtymologyTexts) > 0 {
		return strings.TrimSpace(strings.Join(r.EtymologyTexts, "\n"))
	}
	return strings.TrimSpace(r.EtymologyText)
}

// Field returns the value used by filter predicates for key, and whether
// the key is known.
func (r *RawRecord) Field(key string) (string, bool) {
	switch key {
	case "lang_code":
		return r.LangCode, true
	case "lang":
		return r.Lang, true
	case "word":
		return r.Word, true
	case "pos":
		return r.POS, true
	default:
		return "", false
	}
}

func joinTags(tags, raw []string) []string {
	if len(raw) == 0 {
		return tags
	}
	out := make([]string, 0, len(tags)+len(raw))
	out = append(out, tags...)
	return append(out, raw...)
}
