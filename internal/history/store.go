// Package history records the terminal outcome of every transfer in a bbolt
// database. The GUI History menu and the CLI -history flag read it back.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/docker/go-units"
	bolt "go.etcd.io/bbolt"

	"github.com/ytget/ytgrab/internal/model"
)

var bucketEntries = []byte("entries")

// Entry is one finished, cancelled or failed transfer
type Entry struct {
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	Title      string      `json:"title"`
	Phase      model.Phase `json:"phase"`
	Message    string      `json:"message"`
	Bytes      int64       `json:"bytes"`
	Attempts   int         `json:"attempts"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// SummaryTimeFormat is the timestamp layout of Summary
const SummaryTimeFormat = "2006-01-02 15:04"

// Summary renders the entry on one line: finish time, outcome, title (or
// URL when the title never arrived), then the size or the failure message.
func (e Entry) Summary() string {
	name := e.Title
	if name == "" {
		name = e.URL
	}
	line := fmt.Sprintf("%s  %-9s  %s", e.FinishedAt.Format(SummaryTimeFormat), e.Phase, name)
	switch {
	case e.Phase == model.PhaseFinished && e.Bytes > 0:
		line += " (" + units.HumanSize(float64(e.Bytes)) + ")"
	case e.Phase == model.PhaseFailed && e.Message != "":
		line += ": " + e.Message
	}
	if e.Attempts > 1 {
		line += fmt.Sprintf(" [%d attempts]", e.Attempts)
	}
	return line
}

// Store persists entries. A Store without a path keeps entries in memory.
type Store struct {
	db *bolt.DB

	mu     sync.Mutex
	memory []Entry
}

// Open opens or creates the store at path; an empty path gives a
// memory-only store.
func Open(path string) (*Store, error) {
	if path == "" {
		return &Store{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores an entry
func (s *Store) Record(e Entry) error {
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if s.db == nil {
		s.mu.Lock()
		s.memory = append(s.memory, e)
		s.mu.Unlock()
		return nil
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).Put(entryKey(e), data)
	})
}

// List returns up to limit entries, most recent first; limit <= 0 returns all
func (s *Store) List(limit int) ([]Entry, error) {
	if s.db == nil {
		s.mu.Lock()
		out := make([]Entry, len(s.memory))
		copy(out, s.memory)
		s.mu.Unlock()
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].FinishedAt.After(out[j].FinishedAt)
		})
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every entry
func (s *Store) Clear() error {
	if s.db == nil {
		s.mu.Lock()
		s.memory = nil
		s.mu.Unlock()
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketEntries)
		return err
	})
}

// entryKey orders entries by finish time; the id keeps keys unique
func entryKey(e Entry) []byte {
	key := make([]byte, 8, 8+len(e.ID))
	binary.BigEndian.PutUint64(key, uint64(e.FinishedAt.UnixNano()))
	return append(key, e.ID...)
}
