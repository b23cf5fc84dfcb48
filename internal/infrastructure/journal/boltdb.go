package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store keeps delivery-attempt counters and dead-lettered reminders in a local BoltDB file.
type Store struct {
	db *bolt.DB
}

// Open initializes the BoltDB file and ensures the buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketAttempts, bucketDeadLetters} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// RecordFailure increments the attempt counter of entry.ReminderID and returns the new total.
func (s *Store) RecordFailure(entry Entry) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	if entry.LastFailed.IsZero() {
		entry.LastFailed = time.Now()
	}

	var total int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAttempts))
		key := []byte(entry.ReminderID)

		current := Entry{FirstFailed: entry.LastFailed}
		if raw := b.Get(key); raw != nil {
			if err := json.Unmarshal(raw, &current); err != nil {
				current = Entry{FirstFailed: entry.LastFailed}
			}
		}
		current.ReminderID = entry.ReminderID
		current.TaskID = entry.TaskID
		current.UserID = entry.UserID
		current.LastError = entry.LastError
		current.LastFailed = entry.LastFailed
		current.Attempts++
		total = current.Attempts

		payload, err := json.Marshal(current)
		if err != nil {
			return err
		}
		return b.Put(key, payload)
	})
	return total, err
}

// Attempts returns the recorded failures of a reminder.
func (s *Store) Attempts(reminderID string) (int, error) {
	entry, ok, err := s.get(bucketAttempts, reminderID)
	if err != nil || !ok {
		return 0, err
	}
	return entry.Attempts, nil
}

// Clear forgets the attempt history of a delivered reminder.
func (s *Store) Clear(reminderID string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketAttempts)).Delete([]byte(reminderID))
	})
}

// DeadLetter moves the reminder's attempt history into the dead-letter bucket.
func (s *Store) DeadLetter(reminderID string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(reminderID)
		attempts := tx.Bucket([]byte(bucketAttempts))
		raw := attempts.Get(key)
		if raw == nil {
			payload, err := json.Marshal(Entry{ReminderID: reminderID, LastFailed: time.Now()})
			if err != nil {
				return err
			}
			raw = payload
		} else {
			raw = append([]byte(nil), raw...)
		}
		if err := tx.Bucket([]byte(bucketDeadLetters)).Put(key, raw); err != nil {
			return err
		}
		return attempts.Delete(key)
	})
}

// IsDeadLettered reports whether the reminder was given up on.
func (s *Store) IsDeadLettered(reminderID string) (bool, error) {
	_, ok, err := s.get(bucketDeadLetters, reminderID)
	return ok, err
}

// DeadLetters returns up to limit dead-lettered entries.
func (s *Store) DeadLetters(limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 100
	}
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketDeadLetters)).Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Size returns the number of dead-lettered reminders.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(bucketDeadLetters)).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup drops attempt counters and dead letters whose last failure is older
// than olderThan. A reminder whose dead letter was dropped becomes eligible for
// delivery again.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketAttempts, bucketDeadLetters} {
			if err := pruneBucket(tx.Bucket([]byte(name)), olderThan); err != nil {
				return err
			}
		}
		return nil
	})
}

func pruneBucket(b *bolt.Bucket, olderThan time.Time) error {
	var stale [][]byte
	if err := b.ForEach(func(k, v []byte) error {
		var entry Entry
		if err := json.Unmarshal(v, &entry); err != nil {
			return nil
		}
		if entry.LastFailed.Before(olderThan) {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	}); err != nil {
		return err
	}
	// Deleting while iterating a bbolt cursor skips keys.
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) get(bucket, reminderID string) (Entry, bool, error) {
	var entry Entry
	if s == nil || s.db == nil {
		return entry, false, bolt.ErrDatabaseNotOpen
	}
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucket)).Get([]byte(reminderID))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &entry)
	})
	return entry, found, err
}
