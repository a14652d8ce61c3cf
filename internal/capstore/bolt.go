package capstore

import (
	"context"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"engagement-engine/internal/engine"
)

var capsBucket = []byte("caps")

// Bolt is a file-backed store for standalone binaries with no Redis.
// Durable markers live in a nested bucket per visitor; session flags are
// process-scoped and kept in memory.
type Bolt struct {
	db *bolt.DB

	mu      sync.RWMutex
	session map[string]map[string]bool
}

func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(capsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db, session: map[string]map[string]bool{}}, nil
}

func (b *Bolt) IsCapped(_ context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) (bool, error) {
	key := Key(elementID)
	switch rule.Policy {
	case engine.CapOncePerSession:
		b.mu.RLock()
		defer b.mu.RUnlock()
		return b.session[visitorID][key], nil
	case engine.CapOnce, engine.CapEveryNDays:
		var val []byte
		err := b.db.View(func(tx *bolt.Tx) error {
			vb := tx.Bucket(capsBucket).Bucket([]byte(visitorID))
			if vb == nil {
				return nil
			}
			if v := vb.Get([]byte(key)); v != nil {
				val = append([]byte(nil), v...)
			}
			return nil
		})
		if err != nil || val == nil {
			return false, err
		}
		if rule.Policy == engine.CapOnce {
			return true, nil
		}
		return cappedAt(string(val), rule.Days, now), nil
	default:
		return false, nil
	}
}

func (b *Bolt) RecordDismissal(_ context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) error {
	key := Key(elementID)
	switch rule.Policy {
	case engine.CapOnce:
		return b.put(visitorID, key, "1")
	case engine.CapOncePerSession:
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.session[visitorID] == nil {
			b.session[visitorID] = map[string]bool{}
		}
		b.session[visitorID][key] = true
		return nil
	case engine.CapEveryNDays:
		return b.put(visitorID, key, now.Format(time.RFC3339Nano))
	}
	return nil
}

func (b *Bolt) put(visitorID, key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		vb, err := tx.Bucket(capsBucket).CreateBucketIfNotExists([]byte(visitorID))
		if err != nil {
			return err
		}
		return vb.Put([]byte(key), []byte(value))
	})
}

func (b *Bolt) ResetSession(_ context.Context, visitorID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.session, visitorID)
	return nil
}

func (b *Bolt) Close() error { return b.db.Close() }
