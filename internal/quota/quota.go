package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/saama143/ping-tree/internal/storage"
)

// keyPrefix + target id names the hash whose fields are publishers.
const keyPrefix = "quota:"

// Record is a per-(target, publisher) daily counter. The hit count is
// meaningful only for the stored date; a record from a prior day counts
// as zero and is overwritten on the next hit, never eagerly deleted.
type Record struct {
	Hit  int    `json:"hit"`
	Date string `json:"date"`
}

// Tracker is the sole reader/writer of quota records. Updates are plain
// read-modify-write cycles; two concurrent hits for the same pair can
// both read before either writes, and that loss is accepted.
type Tracker struct {
	kv  storage.KV
	now func() time.Time
}

func NewTracker(kv storage.KV) *Tracker {
	return &Tracker{kv: kv, now: time.Now}
}

func (t *Tracker) today() string {
	return t.now().UTC().Format("2006-01-02")
}

// UnderCap reports whether the pair can still be accepted today. A
// record dated today rejects only when hit strictly exceeds the cap, so
// a cap of N admits N+1 acceptances. Long-standing behavior existing
// callers bill against; do not tighten without product sign-off.
func (t *Tracker) UnderCap(ctx context.Context, targetID, publisher string, maxPerDay int) (bool, error) {
	raw, err := t.kv.HGet(ctx, keyPrefix+targetID, publisher)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get quota record %s/%s: %w", targetID, publisher, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return false, fmt.Errorf("decode quota record %s/%s: %w", targetID, publisher, err)
	}
	if rec.Date != t.today() {
		return true, nil
	}
	return rec.Hit <= maxPerDay, nil
}

// RecordHit bumps today's counter for the pair, starting over at 1 when
// no record exists or the stored one is from a prior day.
func (t *Tracker) RecordHit(ctx context.Context, targetID, publisher string) error {
	today := t.today()
	rec := Record{Hit: 1, Date: today}

	raw, err := t.kv.HGet(ctx, keyPrefix+targetID, publisher)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("get quota record %s/%s: %w", targetID, publisher, err)
	default:
		var prev Record
		// A record that fails to decode is replaced rather than
		// wedging the counter for the rest of the day.
		if err := json.Unmarshal([]byte(raw), &prev); err == nil && prev.Date == today {
			rec.Hit = prev.Hit + 1
		}
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode quota record %s/%s: %w", targetID, publisher, err)
	}
	if err := t.kv.HSet(ctx, keyPrefix+targetID, publisher, string(b)); err != nil {
		return fmt.Errorf("store quota record %s/%s: %w", targetID, publisher, err)
	}
	return nil
}
