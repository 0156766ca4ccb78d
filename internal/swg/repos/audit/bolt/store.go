// Package bolt persists audit events in a bbolt database, keyed by event
// time so recent activity can be read back in order.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/swgd/internal/swg/domain"
	"github.com/haukened/swgd/internal/swg/repos/audit"
)

var bucketDecisions = []byte("decisions")

// boltLog implements audit.Log using bbolt.
type boltLog struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures the decisions
// bucket exists.
func New(path string) (audit.Log, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDecisions)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltLog{db: db}, nil
}

func (l *boltLog) Close() error { return l.db.Close() }

// Record appends one decision. The key is the event's nanosecond timestamp
// followed by the domain, which keeps keys unique and time-ordered.
func (l *boltLog) Record(event domain.AuditEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := make([]byte, 8, 8+len(event.Domain))
	binary.BigEndian.PutUint64(key, uint64(event.Time.UnixNano()))
	key = append(key, event.Domain...)

	return l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDecisions).Put(key, value)
	})
}

// Recent returns up to n of the most recent events, newest first.
func (l *boltLog) Recent(n int) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	err := l.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketDecisions).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var event domain.AuditEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			out = append(out, event)
		}
		return nil
	})
	return out, err
}
