package core

import (
	"log/slog"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "07155746",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("07155746")
	id2 := IDFromContent("07155747")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestFragment_Excerpt(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = byte('a' + i%26)
	}

	tests := []struct {
		name string
		text string
		from int
		n    int
		want string
	}{
		{"window inside text", string(long), 175, 5, string(long[175:180])},
		{"window clipped at end", "0123456789", 8, 5, "89"},
		{"short text falls back to head", "<doc/>", 175, 25, "<doc/>"},
		{"empty text", "", 175, 25, ""},
		{"negative offset", "abcdef", -3, 2, "ab"},
		{"start inside a rune", "aéb", 2, 5, "b"},
		{"end inside a rune", "abé", 0, 3, "ab"},
		{"whole runes kept", "xé€y", 1, 5, "é€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fragment{Text: tt.text}
			got := f.Excerpt(tt.from, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestRecord_AddRow(t *testing.T) {
	var rec Record
	assert.Nil(t, rec.Rows("patent"))

	rec.AddRow("patent", Row{"doc_number": "1"})
	rec.AddRow("inventor", Row{"last_name": "Doe"})
	rec.AddRow("inventor", Row{"last_name": "Roe"})

	assert.Len(t, rec.Rows("patent"), 1)
	assert.Len(t, rec.Rows("inventor"), 2)
	assert.Equal(t, "Roe", rec.Rows("inventor")[1]["last_name"])
	assert.Empty(t, rec.Rows("lawyer"))
}

func TestRow_Columns(t *testing.T) {
	row := Row{"kind": "B2", "date": "20070102", "doc_number": "07155746"}
	assert.Equal(t, []string{"date", "doc_number", "kind"}, row.Columns())
}

func TestCounters_Add(t *testing.T) {
	a := Counters{Files: 1, Fragments: 3, Built: 2, Failed: 1, Inserted: 2}
	b := Counters{Files: 1, Fragments: 3, SplitErrors: 1, Built: 3, Inserted: 3}

	sum := a.Add(b)
	assert.Equal(t, Counters{Files: 2, Fragments: 6, SplitErrors: 1, Built: 5, Failed: 1, Inserted: 5}, sum)
	assert.Equal(t, int64(0), sum.Pending())
}

func TestCounters_LogValue(t *testing.T) {
	c := Counters{Files: 2, Fragments: 6, Built: 5, Failed: 1}
	v := c.LogValue()
	assert.Equal(t, slog.KindGroup, v.Kind())

	got := map[string]int64{}
	for _, attr := range v.Group() {
		got[attr.Key] = attr.Value.Int64()
	}
	assert.Equal(t, int64(6), got["fragments"])
	assert.Equal(t, int64(5), got["built"])
	assert.Equal(t, int64(1), got["failed"])
}

func TestRunSummary_Elapsed(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := RunSummary{Started: start}
	assert.Zero(t, s.Elapsed())

	s.Finished = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, s.Elapsed())
}
