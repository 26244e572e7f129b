package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

// TargetSource lists every registered target.
type TargetSource interface {
	List(ctx context.Context) ([]Target, error)
}

// QuotaTracker maintains the per-target-per-publisher daily counters.
type QuotaTracker interface {
	UnderCap(ctx context.Context, targetID, publisher string, maxPerDay int) (bool, error)
	RecordHit(ctx context.Context, targetID, publisher string) error
}

// DecisionSink receives accepted routing decisions, best-effort.
type DecisionSink interface {
	RecordDecision(ctx context.Context, ev VisitorEvent, d Decision) error
}

// Selector picks the best-paying eligible target for a visitor event.
type Selector struct {
	targets TargetSource
	quota   QuotaTracker
	sink    DecisionSink // optional
}

func NewSelector(targets TargetSource, quota QuotaTracker, sink DecisionSink) *Selector {
	return &Selector{targets: targets, quota: quota, sink: sink}
}

// Route evaluates every target against the event, ranks the eligible
// ones by value descending and records a hit for the winner only.
// An empty eligible set yields a rejection with nothing mutated.
func (s *Selector) Route(ctx context.Context, ev VisitorEvent) (Decision, error) {
	if ev.GeoState == "" || ev.Publisher == "" || ev.Timestamp == "" {
		return Decision{}, fmt.Errorf("%w: geoState, publisher and timestamp are required", ErrInvalidInput)
	}
	hour, err := HourFrom(ev.Timestamp)
	if err != nil {
		return Decision{}, err
	}

	targets, err := s.targets.List(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("list targets: %w", err)
	}

	// Fetch order is preserved so the later stable sort breaks value
	// ties deterministically within a run.
	var candidates []Target
	for _, t := range targets {
		if !eligible(ev, hour, t) {
			continue
		}
		under, err := s.quota.UnderCap(ctx, t.ID, ev.Publisher, int(t.MaxAcceptsPerDay))
		if err != nil {
			return Decision{}, fmt.Errorf("quota check for target %s: %w", t.ID, err)
		}
		if under {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return Decision{Accepted: false}, nil
	}

	slices.SortStableFunc(candidates, func(a, b Target) int {
		return cmp.Compare(b.Value, a.Value)
	})
	winner := candidates[0]

	if err := s.quota.RecordHit(ctx, winner.ID, ev.Publisher); err != nil {
		return Decision{}, fmt.Errorf("record hit for target %s: %w", winner.ID, err)
	}

	d := Decision{Accepted: true, TargetID: winner.ID, URL: winner.URL}
	if s.sink != nil {
		if err := s.sink.RecordDecision(ctx, ev, d); err != nil {
			log.Warn().Err(err).Str("target", winner.ID).Msg("audit decision write failed")
		}
	}
	return d, nil
}
