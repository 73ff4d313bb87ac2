// Package history records completed draws in a bbolt database.
package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

const (
	// DBFileName is the name of the history database in a data directory.
	DBFileName = "history.db"
	drawBucket = "draws"
)

// ErrNotFound is returned by Get for rounds without a record.
var ErrNotFound = errors.New("draw not found")

// DrawRecord describes a completed draw. Amounts are decimal wei strings.
type DrawRecord struct {
	Round       uint64 `json:"round"`
	RequestID   uint64 `json:"request_id"`
	Winner      string `json:"winner"`
	Amount      string `json:"amount"`
	NumPlayers  int    `json:"num_players"`
	RandomValue string `json:"random_value"`
	// Timestamp is the draw time in unix nanos.
	Timestamp int64 `json:"timestamp"`
}

// Store is a bbolt backed log of draws keyed by round number.
type Store struct {
	db *bbolt.DB
}

var _ lottery.Listener = &Store{}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open history db %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(drawBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not create draws bucket")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func roundKey(round uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], round)
	return k[:]
}

// Append stores rec, replacing any record for the same round.
func (s *Store) Append(ctx context.Context, rec DrawRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "could not marshal draw")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(drawBucket)).Put(roundKey(rec.Round), payload)
	})
}

// Get returns the record of round.
func (s *Store) Get(ctx context.Context, round uint64) (DrawRecord, error) {
	if err := ctx.Err(); err != nil {
		return DrawRecord{}, err
	}
	var rec DrawRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		payload := tx.Bucket([]byte(drawBucket)).Get(roundKey(round))
		if payload == nil {
			return errors.Wrapf(ErrNotFound, "round %d", round)
		}
		return json.Unmarshal(payload, &rec)
	})
	return rec, err
}

// List returns up to limit records, most recent round first. A limit of zero
// or less returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]DrawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var recs []DrawRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(drawBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(recs) >= limit {
				break
			}
			var rec DrawRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "could not unmarshal draw %d", binary.BigEndian.Uint64(k))
			}
			recs = append(recs, rec)
		}
		return nil
	})
	return recs, err
}

// OnEvent implements lottery.Listener by appending every WinnerPicked event.
// The draw has already been paid when the event fires, so it is recorded
// even if ctx was cancelled.
func (s *Store) OnEvent(ctx context.Context, e lottery.Event) {
	if e.Kind != lottery.EventWinnerPicked {
		return
	}
	rec := DrawRecord{
		Round:       e.Round,
		RequestID:   uint64(e.RequestID),
		Winner:      string(e.Player),
		Amount:      intString(e.Amount),
		NumPlayers:  e.NumPlayers,
		RandomValue: intString(e.RandomValue),
		Timestamp:   e.Timestamp,
	}
	if err := s.Append(context.WithoutCancel(ctx), rec); err != nil {
		log.Errorf(ctx, "Failed to record draw of round %d: %v", e.Round, err)
	}
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
