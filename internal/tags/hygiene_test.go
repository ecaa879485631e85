package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlacklisted(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBlacklisted([]string{"plural", "table-tags"}))
	assert.True(t, IsBlacklisted([]string{"romanization"}))
	assert.False(t, IsBlacklisted([]string{"plural"}))
	assert.False(t, IsBlacklisted(nil))
}

func TestRemoveRedundant(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"plural"}, RemoveRedundant([]string{"combined-form", "plural"}))
}

func TestStripIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "identity removed", in: []string{"genitive", "singular"}, want: []string{"genitive"}},
		{name: "only identity kept", in: []string{"nominative", "singular"}, want: []string{"nominative", "singular"}},
		{name: "nothing to strip", in: []string{"plural"}, want: []string{"plural"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StripIdentity(tt.in))
		})
	}
}

func TestMergePersonTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "two persons", in: []string{"first-person", "third-person", "singular"}, want: []string{"first/third-person", "singular"}},
		{name: "person after other tag", in: []string{"present", "first-person", "third-person"}, want: []string{"present", "first/third-person"}},
		{name: "single person unchanged", in: []string{"third-person", "singular"}, want: []string{"third-person", "singular"}},
		{name: "no persons", in: []string{"plural"}, want: []string{"plural"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MergePersonTags(tt.in))
		})
	}
}
