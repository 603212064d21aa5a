package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopiesOf(t *testing.T) {
	d := &Deck{Cards: []string{"Card1", "Card2", "Card1", "Card1"}}
	assert.Equal(t, 3, d.CopiesOf("Card1"))
	assert.Equal(t, 1, d.CopiesOf("Card2"))
	assert.Equal(t, 0, d.CopiesOf("Card3"))
}

func TestRemoveFirstRemovesOldestOccurrenceOnly(t *testing.T) {
	d := &Deck{Cards: []string{"Card1", "Card2", "Card1"}}

	removed := d.RemoveFirst("Card1")
	assert.True(t, removed)
	assert.Equal(t, []string{"Card2", "Card1"}, d.Cards)

	removed = d.RemoveFirst("Card3")
	assert.False(t, removed)
	assert.Equal(t, []string{"Card2", "Card1"}, d.Cards)
}
