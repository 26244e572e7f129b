package quota

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saama143/ping-tree/internal/storage"
)

var frozen = time.Date(2018, 7, 19, 13, 28, 59, 0, time.UTC)

func newTestTracker(kv storage.KV) *Tracker {
	tr := NewTracker(kv)
	tr.now = func() time.Time { return frozen }
	return tr
}

func putRecord(t *testing.T, kv storage.KV, targetID, publisher string, rec Record) {
	t.Helper()
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, kv.HSet(context.Background(), keyPrefix+targetID, publisher, string(b)))
}

func TestUnderCap_NoRecord(t *testing.T) {
	tr := newTestTracker(storage.NewMemory())
	under, err := tr.UnderCap(context.Background(), "1", "abc", 0)
	require.NoError(t, err)
	assert.True(t, under)
}

func TestUnderCap_Boundary(t *testing.T) {
	// The strict hit > max check means a cap of N admits N+1 hits.
	tests := []struct {
		name string
		hit  int
		max  int
		want bool
	}{
		{"below cap", 1, 10, true},
		{"at cap", 10, 10, true},
		{"one past cap still admitted", 10, 9, false},
		{"equal boundary", 2, 2, true},
		{"just over", 3, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			tr := newTestTracker(kv)
			putRecord(t, kv, "1", "abc", Record{Hit: tt.hit, Date: "2018-07-19"})

			under, err := tr.UnderCap(context.Background(), "1", "abc", tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, under)
		})
	}
}

func TestUnderCap_StaleDateResets(t *testing.T) {
	kv := storage.NewMemory()
	tr := newTestTracker(kv)
	putRecord(t, kv, "1", "abc", Record{Hit: 9999, Date: "2018-07-18"})

	under, err := tr.UnderCap(context.Background(), "1", "abc", 1)
	require.NoError(t, err)
	assert.True(t, under, "yesterday's counter counts as zero today")
}

func TestUnderCap_CorruptRecord(t *testing.T) {
	kv := storage.NewMemory()
	tr := newTestTracker(kv)
	require.NoError(t, kv.HSet(context.Background(), keyPrefix+"1", "abc", "{not json"))

	_, err := tr.UnderCap(context.Background(), "1", "abc", 1)
	assert.Error(t, err)
}

func TestRecordHit(t *testing.T) {
	ctx := context.Background()

	readRecord := func(t *testing.T, kv storage.KV) Record {
		t.Helper()
		raw, err := kv.HGet(ctx, keyPrefix+"1", "abc")
		require.NoError(t, err)
		var rec Record
		require.NoError(t, json.Unmarshal([]byte(raw), &rec))
		return rec
	}

	t.Run("first hit creates the record", func(t *testing.T) {
		kv := storage.NewMemory()
		tr := newTestTracker(kv)
		require.NoError(t, tr.RecordHit(ctx, "1", "abc"))
		assert.Equal(t, Record{Hit: 1, Date: "2018-07-19"}, readRecord(t, kv))
	})

	t.Run("subsequent hits increment", func(t *testing.T) {
		kv := storage.NewMemory()
		tr := newTestTracker(kv)
		for i := 0; i < 3; i++ {
			require.NoError(t, tr.RecordHit(ctx, "1", "abc"))
		}
		assert.Equal(t, Record{Hit: 3, Date: "2018-07-19"}, readRecord(t, kv))
	})

	t.Run("stale record starts over at one", func(t *testing.T) {
		kv := storage.NewMemory()
		tr := newTestTracker(kv)
		putRecord(t, kv, "1", "abc", Record{Hit: 42, Date: "2018-07-18"})
		require.NoError(t, tr.RecordHit(ctx, "1", "abc"))
		assert.Equal(t, Record{Hit: 1, Date: "2018-07-19"}, readRecord(t, kv))
	})

	t.Run("corrupt record is replaced", func(t *testing.T) {
		kv := storage.NewMemory()
		tr := newTestTracker(kv)
		require.NoError(t, kv.HSet(ctx, keyPrefix+"1", "abc", "{not json"))
		require.NoError(t, tr.RecordHit(ctx, "1", "abc"))
		assert.Equal(t, Record{Hit: 1, Date: "2018-07-19"}, readRecord(t, kv))
	})

	t.Run("publishers count independently", func(t *testing.T) {
		kv := storage.NewMemory()
		tr := newTestTracker(kv)
		require.NoError(t, tr.RecordHit(ctx, "1", "abc"))
		require.NoError(t, tr.RecordHit(ctx, "1", "xyz"))
		assert.Equal(t, Record{Hit: 1, Date: "2018-07-19"}, readRecord(t, kv))
	})
}

func TestQuotaLifecycle(t *testing.T) {
	// A cap of 2 must admit the first three hits and reject the fourth.
	kv := storage.NewMemory()
	tr := newTestTracker(kv)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		under, err := tr.UnderCap(ctx, "1", "abc", 2)
		require.NoError(t, err)
		require.True(t, under, "hit %d should be admitted", i+1)
		require.NoError(t, tr.RecordHit(ctx, "1", "abc"))
	}

	under, err := tr.UnderCap(ctx, "1", "abc", 2)
	require.NoError(t, err)
	assert.False(t, under)
}
