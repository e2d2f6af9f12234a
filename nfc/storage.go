package nfc

import (
	"encoding/json"
	"fmt"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/buntdb"
	"time"
)

// InMemory can be given to NewDB to get a database that is not written to disk.
const InMemory = ":memory:"

var ErrUnknownCard = errors.New("card not found")

// Card is what is known about a card that has been used on this jukebox.
type Card struct {
	ID       string    `json:"id"`
	Folder   int       `json:"folder"`
	Scans    int       `json:"scans"`
	LastSeen time.Time `json:"lastSeen"`
}

func (c Card) String() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("ID: %v, folder: %v", c.ID, c.Folder)
	}
	return string(b)
}

// DB keeps a log of the cards that have been scanned.
type DB struct {
	instance *buntdb.DB
	now      func() time.Time
}

func NewDB(path string) (*DB, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open card db %v", path)
	}
	return &DB{instance: db, now: time.Now}, nil
}

func (db *DB) Close() error {
	return db.instance.Close()
}

// Record bumps the scan count and last seen time of the card, creating it if needed.
func (db *DB) Record(t Token, folder int) error {
	return db.instance.Update(func(tx *buntdb.Tx) error {
		c := Card{ID: t.String()}
		s, err := tx.Get(getCardKey(c.ID))
		switch {
		case err == nil:
			if err := json.Unmarshal([]byte(s), &c); err != nil {
				return errors.Wrapf(err, "corrupt entry for card %v", c.ID)
			}
		case errors.Is(err, buntdb.ErrNotFound):
		default:
			return err
		}

		c.Folder = folder
		c.Scans++
		c.LastSeen = db.now().UTC()

		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(getCardKey(c.ID), string(data), nil)
		return err
	})
}

func (db *DB) ReadCard(id string) (Card, error) {
	var c Card
	err := db.instance.View(func(tx *buntdb.Tx) error {
		s, err := tx.Get(getCardKey(id))
		if errors.Is(err, buntdb.ErrNotFound) {
			return errors.Wrapf(ErrUnknownCard, "card %v", id)
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(s), &c)
	})
	return c, err
}

func (db *DB) ReadAll() ([]Card, error) {
	var cards []Card
	err := db.instance.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendKeys(getCardKey("*"), func(key, value string) bool {
			var c Card
			if decodeErr = json.Unmarshal([]byte(value), &c); decodeErr != nil {
				decodeErr = errors.Wrapf(decodeErr, "corrupt entry %v", key)
				return false
			}
			cards = append(cards, c)
			return true
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	return cards, err
}

func (db *DB) DeleteCard(id string) error {
	return db.instance.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(getCardKey(id))
		if errors.Is(err, buntdb.ErrNotFound) {
			return errors.Wrapf(ErrUnknownCard, "card %v", id)
		}
		return err
	})
}

func getCardKey(id string) string {
	return fmt.Sprintf("card:%v", id)
}
