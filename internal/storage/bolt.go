package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"trip-agent/internal/message"
)

var ErrNotFound = errors.New("storage: not found")

const bucketThreads = "threads"

// BoltStore keeps one nested bucket per thread id. Messages are stored under
// monotonically increasing uint64 keys so a cursor walk returns them in
// append order.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	s := &BoltStore{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) ensureBuckets() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketThreads))
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) AppendMessages(_ context.Context, threadID string, msgs []message.Message) error {
	if threadID == "" {
		return errors.New("thread id is empty")
	}
	if len(msgs) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		tb, err := tx.Bucket([]byte(bucketThreads)).CreateBucketIfNotExists([]byte(threadID))
		if err != nil {
			return err
		}
		for _, m := range msgs {
			seq, err := tb.NextSequence()
			if err != nil {
				return err
			}
			raw, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("encode message: %w", err)
			}
			if err := tb.Put(seqKey(seq), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) LoadThread(_ context.Context, threadID string) ([]message.Message, error) {
	var out []message.Message
	err := s.db.View(func(tx *bolt.Tx) error {
		tb := tx.Bucket([]byte(bucketThreads)).Bucket([]byte(threadID))
		if tb == nil {
			return nil
		}
		return tb.ForEach(func(_, v []byte) error {
			var m message.Message
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("decode message: %w", err)
			}
			out = append(out, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) ListThreadIDs(_ context.Context) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketThreads)).ForEachBucket(func(k []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
