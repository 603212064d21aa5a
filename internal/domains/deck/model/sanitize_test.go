package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeNameStripsTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text is untouched", "Burn Deck", "Burn Deck"},
		{"tag wrapping text is stripped", "<b>Burn Deck</b>", "Burn Deck"},
		{"script tag markup is stripped but its text survives inert", "<script>alert(1)</script>Deck", "alert(1)Deck"},
		{"nested tags collapse to their text", "<div><span>My</span> Deck</div>", "My Deck"},
		{"surrounding whitespace is trimmed", "  Spellcaster  ", "Spellcaster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.input))
		})
	}
}
