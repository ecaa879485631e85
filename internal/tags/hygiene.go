package tags

import (
	"slices"
	"strings"
)

// Raw tags that disqualify a form from being emitted.
var blacklisted = map[string]struct{}{
	"inflection-template":     {},
	"table-tags":              {},
	"canonical":               {},
	"class":                   {},
	"error-unknown-tag":       {},
	"error-unrecognized-form": {},
	"includes-article":        {},
	"obsolete":                {},
	"archaic":                 {},
	"used-in-the-form":        {},
	"romanization":            {},
	"dated":                   {},
	"auxiliary":               {},
	"multiword-construction":  {},
}

var redundant = map[string]struct{}{
	"combined-form": {},
}

// Tags that hold for the lemma itself and carry no information on a form.
var identity = map[string]struct{}{
	"nominative": {},
	"singular":   {},
	"infinitive": {},
}

// IsBlacklisted reports whether any raw tag disqualifies the form.
func IsBlacklisted(raw []string) bool {
	for _, t := range raw {
		if _, ok := blacklisted[t]; ok {
			return true
		}
	}
	return false
}

// RemoveRedundant drops tags that never add information.
func RemoveRedundant(codes []string) []string {
	return slices.DeleteFunc(codes, func(c string) bool {
		_, ok := redundant[c]
		return ok
	})
}

// StripIdentity drops identity tags, unless nothing else would remain.
func StripIdentity(codes []string) []string {
	keep := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := identity[c]; !ok {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		return codes
	}
	return keep
}

// MergePersonTags folds person tags into one display tag, e.g.
// [first-person third-person singular] becomes [first/third-person singular].
// The merged tag takes the position of the first person tag.
func MergePersonTags(codes []string) []string {
	var persons []string
	first := -1
	for i, c := range codes {
		if p, ok := strings.CutSuffix(c, "-person"); ok {
			if first < 0 {
				first = i
			}
			persons = append(persons, p)
		}
	}
	if len(persons) < 2 {
		return codes
	}

	merged := strings.Join(persons, "/") + "-person"
	out := make([]string, 0, len(codes)-len(persons)+1)
	for i, c := range codes {
		switch {
		case i == first:
			out = append(out, merged)
		case strings.HasSuffix(c, "-person"):
		default:
			out = append(out, c)
		}
	}
	return out
}
