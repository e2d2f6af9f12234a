package jukebox

import "github.com/callebjorkell/rfid-jukebox/nfc"

// Folders is the number of folders a card can select, 00 to 99 on the SD card.
const Folders = 100

// FolderFor maps a card to a folder using the second UID byte. Different cards can share a folder.
func FolderFor(t nfc.Token) int {
	return int(t[1]) % Folders
}
