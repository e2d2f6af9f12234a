package main

import (
	"fmt"
	"github.com/callebjorkell/rfid-jukebox/jukebox"
	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

func dumpAll() {
	db := openDB(loadConfig())
	defer db.Close()

	cards, err := db.ReadAll()
	if err != nil {
		log.Fatal(err)
	}

	if len(cards) == 0 {
		fmt.Println("No cards found in the history...")
		return
	}
	fmt.Println("      ID │ Folder │  Scans │ Last seen")
	fmt.Println("─────────┼────────┼────────┼─────────────────────────")
	for _, c := range cards {
		fmt.Printf("%8v │ %6v │ %6v │ %v\n", c.ID, c.Folder, c.Scans, c.LastSeen.Local().Format(time.RFC1123))
	}
}

func dumpCard(cardId string) {
	cfg := loadConfig()
	t, err := cardToken(cfg, cardId)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("ID:     %v\n", t)
	fmt.Printf("Bytes:  % d\n", t[:])
	fmt.Printf("Folder: %02d\n", jukebox.FolderFor(t))

	if cfg.History.Disabled {
		return
	}
	db := openDB(cfg)
	defer db.Close()
	c, err := db.ReadCard(t.String())
	if errors.Is(err, nfc.ErrUnknownCard) {
		fmt.Println("Never played on this jukebox")
		return
	}
	if err != nil {
		log.Error(err)
		return
	}
	fmt.Println(c)
}
