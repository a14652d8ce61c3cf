package pageview

import (
	"time"

	"github.com/rs/zerolog/log"

	"engagement-engine/internal/engine"
)

type eventKind int

const (
	evScroll eventKind = iota
	evPointer
	evClick
	evCustom
)

type event struct {
	kind      eventKind
	scrollPct float64
	x, y      int
	target    string
	name      string
}

const (
	defaultScrollPercent     = 50.0
	defaultInactivitySeconds = 30
	defaultAbandonSeconds    = 30
)

// arm registers the element's trigger sensor. Returns true when the
// element was promoted synchronously (immediate-style triggers).
func (s *Session) arm(el engine.Element) bool {
	st := &elementState{el: el, phase: phaseArmed}
	s.states[el.ID] = st

	cfg := el.Trigger
	switch triggerType(cfg) {
	case engine.TriggerImmediate:
		s.promote(st)
		return true

	case engine.TriggerDelay:
		st.timer = s.startTimer(st, timerSeconds(cfg))

	case engine.TriggerScroll:
		threshold := cfg.Percent
		if threshold <= 0 {
			threshold = defaultScrollPercent
		}
		st.watch = func(ev event) bool {
			return ev.kind == evScroll && ev.scrollPct >= threshold
		}

	case engine.TriggerExitIntent:
		// One-shot pointer sensor: fires when the pointer crosses the
		// top viewport edge from inside.
		prevY := 1 << 30
		st.watch = func(ev event) bool {
			if ev.kind != evPointer {
				return false
			}
			crossed := prevY > 0 && ev.y <= 0
			prevY = ev.y
			return crossed
		}

	case engine.TriggerClick:
		selector := cfg.Selector
		st.watch = func(ev event) bool {
			return ev.kind == evClick && (selector == "" || ev.target == selector)
		}

	case engine.TriggerInactivity:
		st.resetOnActivity = true
		st.timer = s.startTimer(st, timerSeconds(cfg))

	case engine.TriggerCustomEvent:
		name := cfg.Event
		st.watch = func(ev event) bool {
			return ev.kind == evCustom && ev.name == name
		}

	case engine.TriggerReturningVisitor:
		if s.profile.Returning {
			s.promote(st)
			return true
		}
		// First-time visitor: never fires this load.

	case engine.TriggerCartAbandonment:
		if s.profile.CartItems > 0 {
			st.timer = s.startTimer(st, timerSeconds(cfg))
		}
		// Empty cart: never fires this load.

	default:
		// Unsupported trigger: the element simply never activates.
		// Fails closed, scoped to this one element.
		log.Warn().Str("element", el.ID).Str("trigger", string(cfg.Type)).Msg("unsupported trigger type; element will not activate")
	}
	return false
}

// startTimer schedules a one-shot promotion. The callback re-checks the
// phase under the lock, so a timer racing a teardown or dismissal is a
// no-op.
func (s *Session) startTimer(st *elementState, d time.Duration) Timer {
	return s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.torn || st.phase != phaseArmed {
			s.mu.Unlock()
			return
		}
		s.promote(st)
		s.mu.Unlock()
		s.notify([]engine.Element{st.el})
	})
}

func timerSeconds(cfg engine.TriggerConfig) time.Duration {
	secs := cfg.Seconds
	if secs <= 0 {
		switch triggerType(cfg) {
		case engine.TriggerInactivity:
			secs = defaultInactivitySeconds
		case engine.TriggerCartAbandonment:
			secs = defaultAbandonSeconds
		default:
			secs = 1
		}
	}
	return time.Duration(secs) * time.Second
}

// triggerType maps an absent type tag to immediate.
func triggerType(cfg engine.TriggerConfig) engine.TriggerType {
	if cfg.Type == "" {
		return engine.TriggerImmediate
	}
	return cfg.Type
}
