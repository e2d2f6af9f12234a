package main

import (
	"fmt"
	"github.com/callebjorkell/rfid-jukebox/jukebox"
	cardlabel "github.com/callebjorkell/rfid-jukebox/label"
	log "github.com/sirupsen/logrus"
	"os"
)

func createLabel() {
	folder := *labelFolder
	if folder < 0 {
		t, err := cardToken(loadConfig(), *labelCardId)
		if err != nil {
			log.Fatal(err)
		}
		folder = jukebox.FolderFor(t)
		log.Infof("Card %v plays folder %02d", t, folder)
	}
	if folder >= jukebox.Folders {
		log.Fatalf("Folder must be below %d", jukebox.Folders)
	}

	l := cardlabel.Label{Folder: folder, Title: *labelTitle, FontFile: *labelFont}
	if *labelCover != "" {
		cover, err := cardlabel.LoadCover(*labelCover)
		if err != nil {
			log.Fatal(err)
		}
		l.Cover = cover
	}

	file := *labelOutputFile
	if file == "" {
		file = fmt.Sprintf("folder%02d.png", folder)
	}
	log.Infof("Generating label for folder %02d into %v", folder, file)

	f, err := os.Create(file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := cardlabel.CreateLabel(l, f); err != nil {
		log.Fatal(err)
	}
}
