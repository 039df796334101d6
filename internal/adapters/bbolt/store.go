// Package bbolt implements the ports.Storage interface using bbolt (embedded B+ tree).
// Each workspace gets its own top-level bucket. Within that bucket the "dataset" key
// holds the active keyword table and the "history" sub-bucket holds one JSON document
// per custom analysis. Writes are transactional: a crash mid-write cannot corrupt
// previously committed data.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/corey/titlelab/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketHistory = []byte("history")
	keyDataset    = []byte("dataset")
)

// Store implements ports.Storage backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDataset persists the active dataset for a workspace.
func (s *Store) SaveDataset(workspace string, ds *ports.Dataset) error {
	if ds == nil {
		return fmt.Errorf("nil dataset")
	}
	data, err := encodeDataset(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		ws, err := tx.CreateBucketIfNotExists([]byte(workspace))
		if err != nil {
			return err
		}
		return ws.Put(keyDataset, data)
	})
}

// LoadDataset retrieves the active dataset for a workspace.
// Returns nil, nil if nothing was imported yet.
func (s *Store) LoadDataset(workspace string) (*ports.Dataset, error) {
	var data []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		ws := tx.Bucket([]byte(workspace))
		if ws == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := ws.Get(keyDataset); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeDataset(data)
}

// SaveAnalysis stores one analysis in the workspace history, keyed by ID.
// Saving an existing ID overwrites it.
func (s *Store) SaveAnalysis(workspace string, a *ports.TitleAnalysis) error {
	if a == nil {
		return fmt.Errorf("nil analysis")
	}
	if a.ID == "" {
		return fmt.Errorf("analysis has no id")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		ws, err := tx.CreateBucketIfNotExists([]byte(workspace))
		if err != nil {
			return err
		}
		hb, err := ws.CreateBucketIfNotExists(bucketHistory)
		if err != nil {
			return err
		}
		return hb.Put([]byte(a.ID), data)
	})
}

// LoadHistory returns every stored analysis, newest first (ties broken by ID).
// Returns nil, nil for a fresh workspace.
func (s *Store) LoadHistory(workspace string) ([]ports.TitleAnalysis, error) {
	var out []ports.TitleAnalysis

	err := s.db.View(func(tx *bolt.Tx) error {
		ws := tx.Bucket([]byte(workspace))
		if ws == nil {
			return nil
		}
		hb := ws.Bucket(bucketHistory)
		if hb == nil {
			return nil
		}
		// Unmarshal copies, so the tx-scoped value slices are not retained.
		return hb.ForEach(func(k, v []byte) error {
			var a ports.TitleAnalysis
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("unmarshal analysis %q: %w", k, err)
			}
			out = append(out, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteAnalysis removes one analysis from the history.
// Idempotent: deleting a missing ID is not an error.
func (s *Store) DeleteAnalysis(workspace, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ws := tx.Bucket([]byte(workspace))
		if ws == nil {
			return nil
		}
		hb := ws.Bucket(bucketHistory)
		if hb == nil {
			return nil
		}
		return hb.Delete([]byte(id))
	})
}

// DeleteWorkspace removes all data (dataset + history) for a workspace.
// Idempotent: deleting a nonexistent workspace is not an error.
func (s *Store) DeleteWorkspace(workspace string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(workspace)); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil // idempotent
		} else {
			return err
		}
	})
}
