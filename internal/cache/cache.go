package cache

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	xxhash "github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v3"

	"github.com/bniss/aposynthese/pkg/logging"
)

// Store is a local badger-backed cache of decomposition results. A song that
// was already analyzed with the same configuration is served from here
// instead of being re-run.
type Store struct {
	db     *badger.DB
	logger logging.Logger
}

// Open opens (or creates) the cache at dir
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		logger: logging.WithFields(logging.Fields{"component": "cache", "dir": dir}),
	}, nil
}

// Get returns the cached payload for key, if present
func (s *Store) Get(key uint64) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyBytes(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Set stores a payload under key
func (s *Store) Set(key uint64, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyBytes(key), value)
	})
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func keyBytes(key uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, key)
	return b
}

// Fingerprint hashes the source file's content together with the analysis
// configuration, so a config change invalidates cached results.
func Fingerprint(path string, configBytes []byte) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	if _, err := h.Write(configBytes); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
