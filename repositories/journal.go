package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

var _ contract.IJournal = (*Journal)(nil)

const journalPrefix = "pending:"

// encMode uses Core Deterministic Encoding so the same record always gives the same bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("journal: CBOR encoder initialization failed: " + err.Error())
	}
}

// Journal keeps the bot messages the backend refused until they can be replayed.
type Journal struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewJournal(db *badger.DB, log *slog.Logger) *Journal {
	return &Journal{db: db, log: log, now: time.Now}
}

// OpenBadger opens the journal store. An empty path keeps everything in memory.
func OpenBadger(path string) (*badger.DB, error) {
	options := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		options = options.WithInMemory(true)
	}
	return badger.Open(options)
}

type journalRecord struct {
	Name     string `cbor:"name"`
	Message  string `cbor:"message"`
	Platform string `cbor:"platform"`
	At       int64  `cbor:"at"`
}

// Append stores a message under "pending:{timestamp_padded}:{uuid}" so a
// prefix scan returns entries oldest first.
func (j *Journal) Append(msg domain.BotMessage) error {
	at := j.now().UTC()
	key := fmt.Sprintf("%s%019d:%s", journalPrefix, at.UnixNano(), uuid.New())
	value, err := encMode.Marshal(journalRecord{
		Name:     msg.Name,
		Message:  msg.Message,
		Platform: msg.Platform,
		At:       at.UnixNano(),
	})
	if err != nil {
		return err
	}
	if err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return err
	}
	j.log.Debug("Message journaled", "key", key, "sender", msg.Name)
	return nil
}

// Pending returns up to limit entries, oldest first. A limit of 0 or less returns all of them.
func (j *Journal) Pending(limit int) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	err := j.db.View(func(txn *badger.Txn) error {
		prefix := []byte(journalPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) == limit {
				break
			}
			item := it.Item()
			var record journalRecord
			if err := item.Value(func(value []byte) error {
				return cbor.Unmarshal(value, &record)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			entries = append(entries, domain.JournalEntry{
				Key: string(item.KeyCopy(nil)),
				Message: domain.BotMessage{
					Name:     record.Name,
					Message:  record.Message,
					Platform: record.Platform,
				},
				At: time.Unix(0, record.At).UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes an entry. Deleting a missing key is not an error.
func (j *Journal) Delete(key string) error {
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
