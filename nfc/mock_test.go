//go:build !pi
// +build !pi

package nfc

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestMockReaderHaltsUntilRemoved(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	card := Token{9, 8, 7, 6}
	m := newMockReader(card, 10*time.Second, 5*time.Second, clock)

	require.True(t, m.TokenPresent())
	tok, err := m.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, card, tok)
	m.EndSession()

	assert.False(t, m.TokenPresent(), "halted card must stay quiet")

	now = now.Add(12 * time.Second)
	assert.False(t, m.TokenPresent(), "card is off the reader")

	now = now.Add(4 * time.Second)
	assert.True(t, m.TokenPresent(), "card is back in a new cycle")
}
