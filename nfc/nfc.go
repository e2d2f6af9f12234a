package nfc

import (
	"encoding/hex"
	"github.com/cockroachdb/errors"
	"io"
	"time"
)

// TokenSize is the number of UID bytes used to identify a card.
const TokenSize = 4

var ErrShortUID = errors.New("uid shorter than 4 bytes")

// Token is the identity of a card while it is on the reader. The zero value is used as the "no card" sentinel.
type Token [TokenSize]byte

func (t Token) String() string {
	return hex.EncodeToString(t[:])
}

// TokenFromUID uses the first four bytes of a UID, so 7 byte UIDs are cut short.
func TokenFromUID(uid []byte) (Token, error) {
	var t Token
	if len(uid) < TokenSize {
		return t, errors.Wrapf(ErrShortUID, "got %d bytes", len(uid))
	}
	copy(t[:], uid[:TokenSize])
	return t, nil
}

// ParseToken parses a hex string such as "de05be7f" into a token.
func ParseToken(s string) (Token, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Token{}, errors.Wrapf(err, "invalid card id %q", s)
	}
	return TokenFromUID(b)
}

// Reader is a card reader that is polled from a single control loop.
type Reader interface {
	io.Closer
	// TokenPresent reports whether a card that has not been halted is in the field.
	TokenPresent() bool
	// ReadToken is only valid right after TokenPresent returned true.
	ReadToken() (Token, error)
	// EndSession halts the card and clears the reader crypto state. Called once for every token read.
	EndSession()
}

// Debouncer tells a new card apart from the one that was last acted upon.
type Debouncer struct {
	last Token
}

// Accept returns true and remembers t when it differs from the last accepted token.
func (d *Debouncer) Accept(t Token) bool {
	if t == d.last {
		return false
	}
	d.last = t
	return true
}

// Reset forgets the last accepted token, so that the next card is always new.
func (d *Debouncer) Reset() {
	d.last = Token{}
}

func (d *Debouncer) Last() Token {
	return d.last
}

// ReaderConfig holds the wiring of the reader. The mock fields are only used on builds without the pi tag.
type ReaderConfig struct {
	Bus        int
	Device     int
	MaxSpeedHz int
	ResetPin   int

	MockCard    Token
	MockPresent time.Duration
	MockAbsent  time.Duration
}
