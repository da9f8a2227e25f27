package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/covenantlabs/libcovenant-go/contract"
)

var bucketArtifacts = []byte("artifacts")

// Store persists compiled-contract artifacts in a bbolt database keyed by
// commitment root, so a contract can be reloaded for redemption later without
// recompiling from source.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the artifact database at dbPath. The parent
// directory is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketArtifacts)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores the compiled contract's artifact, overwriting any previous
// artifact for the same commitment root.
func (s *Store) Put(c *contract.CompiledContract) error {
	if c == nil {
		return fmt.Errorf("%w: contract", ErrNilParam)
	}
	data, err := json.Marshal(c.Artifact())
	if err != nil {
		return fmt.Errorf("store: encode artifact: %w", err)
	}
	root := c.CommitmentRoot()
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketArtifacts).Put(root[:], data)
	})
}

// Get loads the compiled contract stored under the commitment root.
func (s *Store) Get(root [32]byte) (*contract.CompiledContract, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketArtifacts).Get(root[:]); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: read artifact: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %x", ErrNotFound, root)
	}

	artifact, err := contract.DecodeArtifact(data)
	if err != nil {
		return nil, err
	}
	return contract.FromArtifact(artifact)
}

// List returns the commitment roots of all stored artifacts.
func (s *Store) List() ([][32]byte, error) {
	var roots [][32]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketArtifacts).ForEach(func(k, _ []byte) error {
			if len(k) != 32 {
				return fmt.Errorf("store: corrupt key of length %d", len(k))
			}
			var root [32]byte
			copy(root[:], k)
			roots = append(roots, root)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// Delete removes the artifact stored under the commitment root, if any.
func (s *Store) Delete(root [32]byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketArtifacts).Delete(root[:])
	})
}
