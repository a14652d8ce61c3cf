// Package pageview drives the trigger state machine for one page load.
// A Session is fed page events by the host and promotes eligible
// elements from armed to shown exactly once each, recording dismissals
// in the frequency-cap store.
package pageview

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"engagement-engine/internal/capstore"
	"engagement-engine/internal/engine"
	"engagement-engine/internal/observability"
)

type phase int

const (
	phaseArmed phase = iota
	phaseShown
	phaseDismissed
)

// Profile carries the visitor facts consumed by targeting and by the
// visitor-history triggers.
type Profile struct {
	VisitorID     string
	Device        string
	VisitorType   string
	TrafficSource string
	Returning     bool
	CartItems     int
}

// Hooks are the host callbacks for session activity.
type Hooks struct {
	OnShow func(el engine.Element)
}

type elementState struct {
	el    engine.Element
	phase phase

	// Sensor resources. Released on exactly one of fire, dismissal or
	// teardown.
	timer           Timer
	watch           func(ev event) bool
	resetOnActivity bool
}

func (st *elementState) release() {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.watch = nil
}

// Session owns per-element trigger state for one page load. State
// resets only with a new Session; within one load an element is
// promoted at most once and never re-armed after being shown or
// dismissed.
type Session struct {
	elements []engine.Element
	profile  Profile
	caps     capstore.Store
	clock    Clock
	hooks    Hooks

	// Serializes event feed against timer callbacks.
	mu     sync.Mutex
	path   string
	states map[string]*elementState
	torn   bool
}

// New evaluates targeting for the initial path and arms every eligible
// element. Elements must already be catalog-ordered (priority desc).
func New(elements []engine.Element, profile Profile, path string, caps capstore.Store, clock Clock, hooks Hooks) *Session {
	if clock == nil {
		clock = RealClock()
	}
	s := &Session{
		elements: elements,
		profile:  profile,
		caps:     caps,
		clock:    clock,
		hooks:    hooks,
		path:     path,
		states:   map[string]*elementState{},
	}
	s.mu.Lock()
	shown := s.reevaluate()
	s.mu.Unlock()
	s.notify(shown)
	return s
}

// OnNavigate re-runs targeting against the new path. Elements already
// tracked this load (armed, shown or dismissed) are never re-armed.
func (s *Session) OnNavigate(path string) {
	s.mu.Lock()
	s.path = path
	shown := s.reevaluate()
	s.mu.Unlock()
	s.notify(shown)
}

// OnScroll feeds a scroll sample. Percentage is computed as
// offset / (docHeight - viewportHeight) * 100.
func (s *Session) OnScroll(offset, docHeight, viewportHeight float64) {
	pct := 100.0
	if span := docHeight - viewportHeight; span > 0 {
		pct = offset / span * 100
	}
	s.feed(event{kind: evScroll, scrollPct: pct})
}

// OnPointerMove feeds a pointer position in viewport coordinates.
func (s *Session) OnPointerMove(x, y int) {
	s.feed(event{kind: evPointer, x: x, y: y})
}

// OnClick feeds a click on the given target selector.
func (s *Session) OnClick(target string) {
	s.feed(event{kind: evClick, target: target})
}

// OnCustomEvent feeds a host-emitted named event.
func (s *Session) OnCustomEvent(name string) {
	s.feed(event{kind: evCustom, name: name})
}

// Dismiss moves a shown element to its terminal state for this load and
// records the dismissal per the element's cap policy.
func (s *Session) Dismiss(elementID string) {
	s.mu.Lock()
	st, ok := s.states[elementID]
	if !ok || st.phase != phaseShown {
		s.mu.Unlock()
		return
	}
	st.phase = phaseDismissed
	st.release()
	rule := st.el.Trigger.Frequency
	s.mu.Unlock()

	observability.DismissalsTotal.WithLabelValues(string(rule.Policy)).Inc()
	if err := s.caps.RecordDismissal(context.Background(), s.profile.VisitorID, elementID, rule, s.clock.Now()); err != nil {
		log.Warn().Err(err).Str("element", elementID).Msg("record dismissal failed")
	}
}

// Teardown releases every outstanding sensor. The session accepts no
// further events.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.torn = true
	for _, st := range s.states {
		st.release()
	}
}

// Shown returns the currently shown elements in display order:
// priority descending, catalog order breaking ties.
func (s *Session) Shown() []engine.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Element
	for _, el := range s.elements {
		if st, ok := s.states[el.ID]; ok && st.phase == phaseShown {
			out = append(out, el)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// reevaluate arms newly eligible elements. Caller holds the lock.
// Returns elements promoted synchronously (immediate-style triggers).
func (s *Session) reevaluate() []engine.Element {
	if s.torn {
		return nil
	}
	now := s.clock.Now()
	ectx := engine.Context{
		Path:          s.path,
		Device:        s.profile.Device,
		VisitorType:   s.profile.VisitorType,
		TrafficSource: s.profile.TrafficSource,
		Now:           now,
		Caps:          capstore.SnapshotView(context.Background(), s.caps, s.profile.VisitorID, s.elements, now),
	}

	var shown []engine.Element
	for _, el := range s.elements {
		if _, tracked := s.states[el.ID]; tracked {
			continue // already armed, shown or dismissed this load
		}
		if !engine.Evaluate(el, ectx) {
			continue
		}
		observability.EligibleTotal.Inc()
		if s.arm(el) {
			shown = append(shown, el)
		}
	}
	return shown
}

// feed routes one event through the armed sensors. Activity-reset
// timers (inactivity) restart on any input event.
func (s *Session) feed(ev event) {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	var shown []engine.Element
	for _, el := range s.elements {
		st, ok := s.states[el.ID]
		if !ok || st.phase != phaseArmed {
			continue
		}
		if st.watch != nil && st.watch(ev) {
			s.promote(st)
			shown = append(shown, st.el)
			continue
		}
		if st.resetOnActivity && st.timer != nil {
			st.timer.Stop()
			st.timer = s.startTimer(st, timerSeconds(st.el.Trigger))
		}
	}
	s.mu.Unlock()
	s.notify(shown)
}

// promote performs the single Armed->Shown transition and releases the
// sensor. Caller holds the lock.
func (s *Session) promote(st *elementState) {
	if st.phase != phaseArmed {
		return
	}
	st.release()
	st.phase = phaseShown
	observability.ShownTotal.WithLabelValues(string(triggerType(st.el.Trigger))).Inc()
}

func (s *Session) notify(shown []engine.Element) {
	if s.hooks.OnShow == nil {
		return
	}
	for _, el := range shown {
		s.hooks.OnShow(el)
	}
}
