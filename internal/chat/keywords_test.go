package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "english question",
			query: "What is the dorian scale?",
			want:  []string{"dorian", "scale"},
		},
		{
			name:  "lowercases tokens",
			query: "Explain Tritone Substitution",
			want:  []string{"tritone", "substitution"},
		},
		{
			name:  "japanese question",
			query: "ドリアンスケール とは 何 ですか",
			want:  []string{"ドリアンスケール"},
		},
		{
			name:  "single rune tokens dropped",
			query: "C major key",
			want:  []string{"major", "key"},
		},
		{
			name:  "duplicates collapse",
			query: "scale scale scale",
			want:  []string{"scale"},
		},
		{
			name:  "all stopwords falls back to raw query",
			query: "what is this",
			want:  []string{"what is this"},
		},
		{
			name:  "punctuation separates tokens",
			query: "ii-V-I、それとも circle of fifths?",
			want:  []string{"ii-v-i", "circle", "fifths"},
		},
		{
			name:  "empty query",
			query: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.query))
		})
	}
}
