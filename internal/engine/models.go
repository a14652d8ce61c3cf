package engine

import (
	"time"

	"engagement-engine/internal/render"
)

// Variant identifies the presentation family of an element.
type Variant string

const (
	VariantPopup   Variant = "popup"
	VariantBar     Variant = "bar"
	VariantNudge   Variant = "nudge"
	VariantSlideIn Variant = "slide-in"
	VariantChat    Variant = "chat"
)

// Element is one configured engagement unit. Elements are normalized at
// catalog build time and immutable afterwards.
type Element struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Variant   Variant          `json:"variant" yaml:"variant"`
	Priority  int              `json:"priority" yaml:"priority"`
	Active    bool             `json:"active" yaml:"active"`
	Targeting TargetingRules   `json:"targeting" yaml:"targeting"`
	Trigger   TriggerConfig    `json:"trigger" yaml:"trigger"`
	Design    *render.Document `json:"design,omitempty" yaml:"design,omitempty"`
}

// TargetingRules constrain where and to whom an element may appear.
// An absent or empty constraint is unconditionally satisfied.
type TargetingRules struct {
	IncludePaths   []string  `json:"includePaths,omitempty" yaml:"includePaths"`
	ExcludePaths   []string  `json:"excludePaths,omitempty" yaml:"excludePaths"`
	Devices        []string  `json:"devices,omitempty" yaml:"devices"`
	VisitorTypes   []string  `json:"visitorTypes,omitempty" yaml:"visitorTypes"`
	TrafficSources []string  `json:"trafficSources,omitempty" yaml:"trafficSources"`
	Schedule       *Schedule `json:"schedule,omitempty" yaml:"schedule"`
}

// Schedule restricts display to a date range, weekday set and local
// time-of-day window in the declared timezone.
type Schedule struct {
	Start     *time.Time `json:"start,omitempty" yaml:"start"`
	End       *time.Time `json:"end,omitempty" yaml:"end"`
	Weekdays  []string   `json:"weekdays,omitempty" yaml:"weekdays"`
	StartTime string     `json:"startTime,omitempty" yaml:"startTime"` // "09:00"
	EndTime   string     `json:"endTime,omitempty" yaml:"endTime"`     // "17:30"
	Timezone  string     `json:"timezone,omitempty" yaml:"timezone"`   // IANA name
}

// TriggerType tags the sensor that promotes an element from armed to shown.
type TriggerType string

const (
	TriggerImmediate        TriggerType = "immediate"
	TriggerDelay            TriggerType = "delay"
	TriggerScroll           TriggerType = "scroll"
	TriggerExitIntent       TriggerType = "exit-intent"
	TriggerClick            TriggerType = "click"
	TriggerInactivity       TriggerType = "inactivity"
	TriggerCustomEvent      TriggerType = "custom-event"
	TriggerReturningVisitor TriggerType = "returning-visitor"
	TriggerCartAbandonment  TriggerType = "cart-abandonment"
)

type TriggerConfig struct {
	Type      TriggerType `json:"type" yaml:"type"`
	Seconds   int         `json:"seconds,omitempty" yaml:"seconds"`   // delay, inactivity, cart-abandonment
	Percent   float64     `json:"percent,omitempty" yaml:"percent"`   // scroll threshold 0-100
	Selector  string      `json:"selector,omitempty" yaml:"selector"` // click
	Event     string      `json:"event,omitempty" yaml:"event"`       // custom-event
	Frequency CapRule     `json:"frequency" yaml:"frequency"`
}

// CapPolicy limits how often a shown element may reappear to one visitor.
type CapPolicy string

const (
	CapAlways         CapPolicy = "always"
	CapOnce           CapPolicy = "once"
	CapOncePerSession CapPolicy = "once-per-session"
	CapEveryNDays     CapPolicy = "every-n-days"
)

type CapRule struct {
	Policy CapPolicy `json:"policy" yaml:"policy"`
	Days   int       `json:"days,omitempty" yaml:"days"`
}

// Context is the targeting context: the runtime facts a single evaluation
// runs against. Caps is a point-in-time view so Evaluate stays pure.
type Context struct {
	Path          string
	Device        string
	VisitorType   string
	TrafficSource string
	Now           time.Time
	Caps          CapView
}

// CapView answers whether an element is frequency-capped for the visitor.
type CapView interface {
	IsCapped(elementID string) bool
}

// NoCaps is the open view used when no cap state is available.
type NoCaps struct{}

func (NoCaps) IsCapped(string) bool { return false }
