package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Softbalance/equipment/internal/model"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		width         int
		wrapLongWords bool
		want          []string
	}{
		{
			name:  "sentence at twenty columns",
			input: "Here is one line of text that is going to be wrapped after 20 columns.",
			width: 20,
			want:  []string{"Here is one line of", "text that is going", "to be wrapped after", "20 columns."},
		},
		{
			name:  "long word kept intact",
			input: "Click here to jump to the commons website - https://commons.apache.org",
			width: 20,
			want:  []string{"Click here to jump", "to the commons", "website -", "https://commons.apache.org"},
		},
		{
			name:          "long word split",
			input:         "Click here to jump to the commons website - https://commons.apache.org",
			width:         20,
			wrapLongWords: true,
			want:          []string{"Click here to jump", "to the commons", "website -", "https://commons.apac", "he.org"},
		},
		{
			name:  "short text untouched",
			input: "short",
			width: 20,
			want:  []string{"short"},
		},
		{
			name:  "cyrillic counted in characters",
			input: "Итого к оплате сто рублей",
			width: 14,
			want:  []string{"Итого к оплате", "сто рублей"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.input, tt.width, "\n", tt.wrapLongWords)
			assert.Equal(t, strings.Join(tt.want, "\n"), got)
		})
	}
}

func TestWrapEmpty(t *testing.T) {
	assert.Equal(t, "", Wrap("", 20, "\n", false))
	assert.Equal(t, "", Wrap("", 20, "\n", true))
}

func TestWrapCustomSeparator(t *testing.T) {
	assert.Equal(t, "aaa<br>bbb", Wrap("aaa bbb", 3, "<br>", false))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, Lines("one two three", 7, true))
	assert.Equal(t, []string{"one two three"}, Lines("one two three", 7, false))
	assert.Equal(t, []string{"a", "b"}, Lines("a\nb\n\n", 7, false))
}

func TestAlign(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		alignment model.Alignment
		width     int
		want      string
	}{
		{"center", "OK", model.AlignCenter, 10, "    OK"},
		{"right", "OK", model.AlignRight, 10, "        OK"},
		{"left", "OK", model.AlignLeft, 10, "OK"},
		{"exact width", "0123456789", model.AlignCenter, 10, "0123456789"},
		{"too long", "0123456789AB", model.AlignRight, 10, "0123456789AB"},
		{"cyrillic", "Чек", model.AlignRight, 5, "  Чек"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Align(tt.text, tt.alignment, tt.width))
		})
	}
}
