package nfc

import (
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDebouncer(t *testing.T) {
	a := Token{0x11, 0x05, 0x22, 0x33}
	b := Token{0x11, 0x05, 0x22, 0x34}

	tests := []struct {
		name   string
		reads  []Token
		accept []bool
	}{
		{"first card is always new", []Token{a}, []bool{true}},
		{"repeated reads are suppressed", []Token{a, a, a}, []bool{true, false, false}},
		{"any differing byte is new", []Token{a, b, a}, []bool{true, true, true}},
		{"sentinel never registers", []Token{{}}, []bool{false}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var d Debouncer
			for i, tok := range tc.reads {
				assert.Equal(t, tc.accept[i], d.Accept(tok), "read %d", i)
			}
		})
	}
}

func TestDebouncerReset(t *testing.T) {
	var d Debouncer
	tok := Token{1, 2, 3, 4}
	require.True(t, d.Accept(tok))
	require.False(t, d.Accept(tok))
	assert.Equal(t, tok, d.Last())

	d.Reset()
	assert.Equal(t, Token{}, d.Last())
	assert.True(t, d.Accept(tok))
}

func TestTokenFromUID(t *testing.T) {
	tok, err := TokenFromUID([]byte{0x04, 0xa1, 0xb2, 0xc3, 0xd4, 0xe5, 0xf6})
	require.NoError(t, err)
	assert.Equal(t, Token{0x04, 0xa1, 0xb2, 0xc3}, tok)
	assert.Equal(t, "04a1b2c3", tok.String())

	_, err = TokenFromUID([]byte{1, 2})
	assert.True(t, errors.Is(err, ErrShortUID))
}

func TestParseToken(t *testing.T) {
	tok, err := ParseToken("de05be7f")
	require.NoError(t, err)
	assert.Equal(t, Token{0xde, 0x05, 0xbe, 0x7f}, tok)

	_, err = ParseToken("nothex")
	assert.Error(t, err)
}
