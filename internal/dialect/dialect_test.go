package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/domain"
)

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	assert.IsType(t, Japanese{}, r.Resolve("ja"))
	assert.IsType(t, Chinese{}, r.Resolve("zh"))
	assert.IsType(t, German{}, r.Resolve("de"))
	assert.IsType(t, Diacritic{}, r.Resolve("ru"))
	assert.IsType(t, Diacritic{}, r.Resolve("la"))
	assert.IsType(t, Diacritic{}, r.Resolve("grc"))
	assert.IsType(t, Diacritic{}, r.Resolve("bg"))
	assert.IsType(t, Default{}, r.Resolve("en"))

	_, ok := r.Resolve("en").(ReadingDeriver)
	assert.False(t, ok, "default adapter should have no capabilities")
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	t.Parallel()

	r := NewRegistry(German{})
	r.Register(NewDiacritic([]string{"de"}, acuteGrave))
	assert.IsType(t, Diacritic{}, r.Resolve("de"))
}

func TestJapanese_HeadwordReading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rec     domain.RawRecord
		want    string
		wantErr bool
	}{
		{
			name: "hiragana form",
			rec:  domain.RawRecord{Word: "食べる", Forms: []domain.RawForm{{Form: "たべる", Tags: []string{"hiragana"}}}},
			want: "たべる",
		},
		{name: "kana headword", rec: domain.RawRecord{Word: "カメラ"}, want: "カメラ"},
		{name: "no reading", rec: domain.RawRecord{Word: "食"}, want: ""},
		{
			name:    "bad kana form",
			rec:     domain.RawRecord{Word: "食べる", Forms: []domain.RawForm{{Form: "tabe", Tags: []string{"kana"}}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Japanese{}.HeadwordReading(&tt.rec)
			if tt.wantErr {
				var fe *domain.FieldError
				require.ErrorAs(t, err, &fe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJapanese_FormReading(t *testing.T) {
	t.Parallel()

	written, reading, err := Japanese{}.FormReading(domain.RawForm{
		Form: "食べます",
		Ruby: [][]string{{"食", "た"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "食べます", written)
	assert.Equal(t, "たべます", reading)

	_, _, err = Japanese{}.FormReading(domain.RawForm{Form: "食べます", Ruby: [][]string{{"飲", "の"}}})
	assert.Error(t, err)
}

func TestJapanese_SegmentTerm(t *testing.T) {
	t.Parallel()

	got, err := Japanese{}.SegmentTerm("食べ物")
	require.NoError(t, err)
	assert.Equal(t, []string{"食", "べ", "物"}, got)

	got, err = Japanese{}.SegmentTerm("コーヒー豆")
	require.NoError(t, err)
	assert.Equal(t, []string{"コーヒー", "豆"}, got)
}

func TestChinese(t *testing.T) {
	t.Parallel()

	rec := &domain.RawRecord{
		Word: "打",
		Sounds: []domain.RawSound{
			{ZhPron: "daa2", Tags: []string{"Cantonese", "Jyutping"}},
			{ZhPron: "dǎ", Tags: []string{"Mandarin", "Pinyin"}},
		},
	}
	reading, err := Chinese{}.HeadwordReading(rec)
	require.NoError(t, err)
	assert.Equal(t, "dǎ", reading)

	segs, err := Chinese{}.SegmentTerm("卡拉OK歌厅")
	require.NoError(t, err)
	assert.Equal(t, []string{"卡", "拉", "OK", "歌", "厅"}, segs)
}

func TestDiacritic(t *testing.T) {
	t.Parallel()

	ru := NewDiacritic([]string{"ru"}, acuteGrave)

	rec := &domain.RawRecord{
		Word:  "бегать",
		Forms: []domain.RawForm{{Form: "бе́гать", Tags: []string{"canonical"}}},
	}
	reading, err := ru.HeadwordReading(rec)
	require.NoError(t, err)
	assert.Equal(t, "бе́гать", reading)

	written, reading, err := ru.FormReading(domain.RawForm{Form: "бе́гает"})
	require.NoError(t, err)
	assert.Equal(t, "бегает", written)
	assert.Equal(t, "бе́гает", reading)

	written, reading, err = ru.FormReading(domain.RawForm{Form: "мой"})
	require.NoError(t, err)
	assert.Equal(t, "мой", written)
	assert.Empty(t, reading)

	_, err = ru.HeadwordReading(&domain.RawRecord{
		Word:  "бегать",
		Forms: []domain.RawForm{{Form: "ходи́ть", Tags: []string{"canonical"}}},
	})
	assert.Error(t, err)

	la := NewDiacritic([]string{"la"}, macronBreve)
	written, reading, err = la.FormReading(domain.RawForm{Form: "amās"})
	require.NoError(t, err)
	assert.Equal(t, "amas", written)
	assert.Equal(t, "amās", reading)

	// ᾰ̓γᾰθός: the breves go, the breathing and the accent stay.
	grc := DefaultRegistry().Resolve("grc").(ReadingDeriver)
	reading, err = grc.HeadwordReading(&domain.RawRecord{
		Word:  "\u1f00\u03b3\u03b1\u03b8\u03cc\u03c2",
		Forms: []domain.RawForm{{Form: "\u1fb0\u0313\u03b3\u1fb0\u03b8\u03cc\u03c2", Tags: []string{"canonical"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "\u1fb0\u0313\u03b3\u1fb0\u03b8\u03cc\u03c2", reading)
}

func TestGerman_MapTags(t *testing.T) {
	t.Parallel()

	got, err := German{}.MapTags([]string{"3", "sing", "pres", "strong"})
	require.NoError(t, err)
	assert.Equal(t, []string{"third-person", "singular", "present", "strong"}, got)

	_, err = German{}.MapTags([]string{"3", " "})
	var fe *domain.FieldError
	assert.ErrorAs(t, err, &fe)
}
