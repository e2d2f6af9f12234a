package main

import (
	log "github.com/sirupsen/logrus"
)

func removeCard(cardId string) {
	cfg := loadConfig()
	t, err := cardToken(cfg, cardId)
	if err != nil {
		log.Fatal(err)
	}

	db := openDB(cfg)
	defer db.Close()
	if err := db.DeleteCard(t.String()); err != nil {
		log.Warnf("Could not remove card %v: %v", t, err.Error())
		return
	}
	log.Infof("Removed card %v", t)
}
