package checkpoint

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	boltErrors "go.etcd.io/bbolt/errors"
)

// DefaultBucket is used when a bolt location names no bucket.
const DefaultBucket = "checkpoints"

// BoltBackend keeps entries as keys of one bucket in a BoltDB file.
// Names are enumerated in byte order. Each write is its own transaction,
// so readers never see partial data.
type BoltBackend struct {
	db     *bolt.DB
	path   string
	bucket []byte
}

// Compile-time interface check.
var _ Backend = (*BoltBackend)(nil)

// NewBoltBackend opens (or creates) the BoltDB file at path and ensures the
// bucket exists. Opening fails after one second if another process holds the
// file lock.
func NewBoltBackend(path, bucket string) (*BoltBackend, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, bucketErr := tx.CreateBucketIfNotExists([]byte(bucket)); bucketErr != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, bucketErr)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltBackend{db: db, path: path, bucket: []byte(bucket)}, nil
}

// Names implements Backend.
func (b *BoltBackend) Names() ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, b.mapErr("list entries", err)
	}
	return names, nil
}

// WriteAtomic implements Backend.
func (b *BoltBackend) WriteAtomic(name string, data []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(name), data)
	})
	if err != nil {
		return b.mapErr("write entry", err)
	}
	return nil
}

// Read implements Backend.
func (b *BoltBackend) Read(name string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// Values are only valid inside the transaction.
		if v := tx.Bucket(b.bucket).Get([]byte(name)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, b.mapErr("read entry", err)
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// Remove implements Backend.
func (b *BoltBackend) Remove(name string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(name))
	})
	if err != nil {
		return b.mapErr("remove entry", err)
	}
	return nil
}

// Location implements Backend.
func (b *BoltBackend) Location() string {
	return b.path + "#" + string(b.bucket)
}

// Path implements Backend.
func (b *BoltBackend) Path(name string) string {
	return b.Location() + "/" + name
}

// Close implements Backend. Closing twice is a no-op.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func (b *BoltBackend) mapErr(op string, err error) error {
	if errors.Is(err, boltErrors.ErrDatabaseNotOpen) {
		return ErrBackendClosed
	}
	return fmt.Errorf("%s: %w", op, err)
}
