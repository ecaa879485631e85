package domain

// EntryKey identifies one canonical entry.
type EntryKey struct {
	Term string `json:"term"`
	Lang string `json:"lang"`
	POS  string `json:"pos"`
}

func (k EntryKey) String() string {
	return k.Term + "|" + k.Lang + "|" + k.POS
}

// CanonicalEntry is the merged, finalized representation of every record
// sharing an EntryKey.
type CanonicalEntry struct {
	EntryKey
	Reading        string           `json:"reading,omitempty"`
	Segments       []string         `json:"segments,omitempty"`
	Groups         []EtymologyGroup `json:"groups,omitempty"`
	Forms          []Form           `json:"forms,omitempty"`
	Pronunciations []Pronunciation  `json:"pronunciations,omitempty"`
	FirstSeen      int              `json:"first_seen"`
}

// EtymologyGroup is an ordered cluster of senses sharing an origin.
type EtymologyGroup struct {
	Etymology string  `json:"etymology,omitempty"`
	Senses    []Sense `json:"senses"`
	Sequence  int     `json:"sequence"`
}

type Sense struct {
	Glosses  []string  `json:"glosses"`
	Tags     []string  `json:"tags,omitempty"`
	Examples []Example `json:"examples,omitempty"`
	Sequence int       `json:"sequence"`
}

type Example struct {
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

// Form is an inflected or variant spelling of the entry's lemma.
type Form struct {
	Written string   `json:"written"`
	Reading string   `json:"reading,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Lemma   string   `json:"lemma"`
}

type Pronunciation struct {
	IPA  string   `json:"ipa"`
	Tags []string `json:"tags,omitempty"`
}

// HasGlosses reports whether at least one sense survived finalization.
func (e *CanonicalEntry) HasGlosses() bool {
	for _, g := range e.Groups {
		if len(g.Senses) > 0 {
			return true
		}
	}
	return false
}
