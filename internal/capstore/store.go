// Package capstore persists per-visitor frequency-cap state: one marker
// per (visitor, element), either a session flag or a dismissal timestamp.
// Keys follow the engage_{elementID} pattern. The engine never prunes
// them; backends may attach TTLs as opportunistic cleanup.
package capstore

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"engagement-engine/internal/engine"
)

// Key returns the persisted cap key for an element.
func Key(elementID string) string { return "engage_" + elementID }

// Store is the durable/session-scoped cap state consulted by targeting
// evaluation and written on dismissal.
type Store interface {
	// IsCapped reports whether the element is currently frequency-capped
	// for the visitor under the given rule.
	IsCapped(ctx context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) (bool, error)

	// RecordDismissal writes the cap marker for the element's policy:
	// "once" a permanent marker, "once-per-session" a session flag,
	// "every-n-days" a timestamp. "always" writes nothing.
	RecordDismissal(ctx context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) error

	// ResetSession clears the visitor's session-scoped flags.
	ResetSession(ctx context.Context, visitorID string) error

	Close() error
}

// SnapshotView materializes a point-in-time engine.CapView for one
// visitor over the given elements. Backend errors fail open (uncapped)
// so a store outage cannot hide legitimate content.
func SnapshotView(ctx context.Context, s Store, visitorID string, elements []engine.Element, now time.Time) engine.CapView {
	capped := make(capSet)
	for _, el := range elements {
		ok, err := s.IsCapped(ctx, visitorID, el.ID, el.Trigger.Frequency, now)
		if err != nil {
			log.Warn().Err(err).Str("element", el.ID).Msg("cap lookup failed; treating as uncapped")
			continue
		}
		if ok {
			capped[el.ID] = struct{}{}
		}
	}
	return capped
}

type capSet map[string]struct{}

func (c capSet) IsCapped(elementID string) bool {
	_, ok := c[elementID]
	return ok
}

// cappedAt interprets a stored dismissal value against an every-n-days
// rule. The value is an RFC 3339 timestamp (epoch milliseconds accepted
// for compatibility with earlier writers).
func cappedAt(value string, days int, now time.Time) bool {
	ts, ok := parseStamp(value)
	if !ok {
		return false
	}
	if days <= 0 {
		days = 1
	}
	return now.Before(ts.Add(time.Duration(days) * 24 * time.Hour))
}

func parseStamp(value string) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}
