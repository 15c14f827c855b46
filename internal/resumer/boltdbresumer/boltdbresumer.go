// Package boltdbresumer provides a Resumer implementation that uses a Bolt
// database file as storage.
package boltdbresumer

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Keys for the persistent storage.
var Keys = struct {
	ResumeData []byte
	WrittenAt  []byte
}{
	ResumeData: []byte("resume_data"),
	WrittenAt:  []byte("written_at"),
}

// Resumer saves and loads resume blobs in a BoltDB database. Each torrent
// gets its own sub-bucket keyed by torrent id.
type Resumer struct {
	db     *bolt.DB
	bucket []byte
}

// New returns a new Resumer over an open database.
func New(db *bolt.DB, bucket []byte) (*Resumer, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err2 := tx.CreateBucketIfNotExists(bucket)
		return err2
	})
	if err != nil {
		return nil, err
	}
	return &Resumer{
		db:     db,
		bucket: bucket,
	}, nil
}

// Write stores the resume blob for the torrent with torrentID.
func (r *Resumer) Write(torrentID string, data []byte) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(r.bucket).CreateBucketIfNotExists([]byte(torrentID))
		if err != nil {
			return err
		}
		if err = b.Put(Keys.ResumeData, data); err != nil {
			return err
		}
		return b.Put(Keys.WrittenAt, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Read returns the resume blob of the torrent with torrentID.
func (r *Resumer) Read(torrentID string) ([]byte, error) {
	var data []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket).Bucket([]byte(torrentID))
		if b == nil {
			return fmt.Errorf("bucket not found: %q", torrentID)
		}
		value := b.Get(Keys.ResumeData)
		if value == nil {
			return fmt.Errorf("key not found: %q", string(Keys.ResumeData))
		}
		data = make([]byte, len(value))
		copy(data, value)
		return nil
	})
	return data, err
}

// ReadAll returns the resume blobs of every stored torrent, keyed by id.
func (r *Resumer) ReadAll() (map[string][]byte, error) {
	ret := make(map[string][]byte)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).ForEachBucket(func(k []byte) error {
			b := tx.Bucket(r.bucket).Bucket(k)
			value := b.Get(Keys.ResumeData)
			if value == nil {
				return nil
			}
			data := make([]byte, len(value))
			copy(data, value)
			ret[string(k)] = data
			return nil
		})
	})
	return ret, err
}

// Remove deletes the stored state of the torrent with torrentID.
func (r *Resumer) Remove(torrentID string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).DeleteBucket([]byte(torrentID))
	})
}
