/*
Package cache provides a persistent key/value cache backed by a BoltDB file.

Stored values are timestamped and values older than the cache ttl are not returned.

Layout:

	Bucket: "entry:<key>:<timestamp>"
	Key: "data"
	Value: raw bytes

Only the latest bucket of a key is kept, older ones are removed on Put.
*/
package cache

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var dataKey = []byte("data")

// Cache is safe for concurrent use with each other method (excluding Close).
type Cache struct {
	db     *bolt.DB
	ttl    time.Duration // zero ttl means entries never expire
	logger logrus.FieldLogger
	now    func() time.Time
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string, ttl time.Duration, logger logrus.FieldLogger) (*Cache, error) {
	dir := filepath.Dir(path)
	if fi, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, os.ModeDir|os.ModePerm); err != nil {
			return nil, errors.Wrapf(err, "failed to create cache directory: %s", dir)
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to check cache directory: %s", dir)
	} else if !fi.IsDir() {
		return nil, errors.Errorf("cache path is not directory: %s", dir)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open cache database: %s", path)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{db: db, ttl: ttl, logger: logger, now: time.Now}, nil
}

// Close releases all database resources.
func (c *Cache) Close() error {
	return errors.Wrapf(c.db.Close(), "error closing cache database %q", c.db.Path())
}

// Get returns the latest value stored for key unless it is expired.
func (c *Cache) Get(key string) (value []byte, ok bool, err error) {
	var epoch int64
	if c.ttl > 0 {
		epoch = c.now().Add(-c.ttl).Unix()
	}
	err = c.db.View(func(tx *bolt.Tx) error {
		b := findLatestValid(tx, entryPrefix(key), epoch)
		if b == nil {
			return nil
		}
		if v := b.Get(dataKey); v != nil {
			// bolt values are only valid for the transaction lifetime
			value = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read cache entry %q", key)
	}
	if !ok {
		c.logger.WithField("key", key).Debug("cache miss")
	}
	return value, ok, nil
}

// Put stores value for key replacing any previous value.
func (c *Cache) Put(key string, value []byte) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		pre := entryPrefix(key)
		if err := prefixDelete(tx, pre, true); err != nil {
			return err
		}
		b, err := tx.CreateBucket(timestampedKey(pre, c.now()))
		if err != nil {
			return errors.Wrap(err, "failed to create entry bucket")
		}
		return b.Put(dataKey, value)
	})
	return errors.Wrapf(err, "failed to cache entry %q", key)
}

// Clear removes every stored entry.
func (c *Cache) Clear() error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return prefixDelete(tx, "entry:", false)
	})
	return errors.Wrap(err, "failed to clear cache")
}

func entryPrefix(key string) string {
	return "entry:" + key + ":"
}

// timestampedKey returns a prefixed key with an 8 byte big endian unix timestamp suffix.
func timestampedKey(pre string, t time.Time) []byte {
	b := make([]byte, len(pre)+8)
	copy(b, pre)
	binary.BigEndian.PutUint64(b[len(pre):], uint64(t.Unix()))
	return b
}

// isTimestamped reports whether k is pre followed by a timestamp only.
func isTimestamped(k, pre []byte) bool {
	return len(k) == len(pre)+8 && bytes.HasPrefix(k, pre)
}

// prefixDelete prefix scans and deletes each bucket, exact limits it to the timestamped keys of pre.
func prefixDelete(tx *bolt.Tx, pre string, exact bool) error {
	p := []byte(pre)
	var keys [][]byte
	c := tx.Cursor()
	for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
		if exact && !isTimestamped(k, p) {
			continue
		}
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := tx.DeleteBucket(k); err != nil {
			return errors.Wrapf(err, "failed to delete bucket: %s", k)
		}
	}
	return nil
}

// findLatestValid prefix scans for the latest bucket which is timestamped >= epoch,
// or returns nil if none exists.
func findLatestValid(tx *bolt.Tx, pre string, epoch int64) *bolt.Bucket {
	c := tx.Cursor()
	p := []byte(pre)
	var latest []byte
	for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
		if isTimestamped(k, p) {
			latest = k
		}
	}
	if latest == nil {
		return nil
	}
	ts := latest[len(p):]
	if int64(binary.BigEndian.Uint64(ts)) < epoch {
		return nil
	}
	return tx.Bucket(latest)
}
