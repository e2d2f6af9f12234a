package main

import (
	"github.com/callebjorkell/rfid-jukebox/config"
	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

const cardWait = 10 * time.Second

var errNoCardRead = errors.New("no card was read")

// cardToken parses the given id, or asks for a card when it is empty.
func cardToken(cfg *config.Config, cardId string) (nfc.Token, error) {
	if cardId != "" {
		return nfc.ParseToken(cardId)
	}
	return readSingleCard(cfg)
}

func readSingleCard(cfg *config.Config) (nfc.Token, error) {
	reader := openReader(cfg)
	defer reader.Close()

	log.Infof("Put a card on the reader within %v", cardWait)
	deadline := time.Now().Add(cardWait)
	for time.Now().Before(deadline) {
		if !reader.TokenPresent() {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		t, err := reader.ReadToken()
		if err != nil {
			log.Debugf("Could not read the card: %v", err)
			continue
		}
		reader.EndSession()
		return t, nil
	}
	return nfc.Token{}, errNoCardRead
}
