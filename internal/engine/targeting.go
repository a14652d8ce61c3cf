package engine

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Evaluate reports whether the element may be shown in the given context.
// Pure: identical inputs always yield identical output. Checks run in a
// fixed order and short-circuit on the first failure.
func Evaluate(el Element, ctx Context) bool {
	if !el.Active {
		return false
	}
	if ctx.Caps != nil && ctx.Caps.IsCapped(el.ID) {
		return false
	}

	// Exclude wins over include and is checked first.
	for _, p := range el.Targeting.ExcludePaths {
		if matchPath(p, ctx.Path) {
			return false
		}
	}
	if len(el.Targeting.IncludePaths) > 0 {
		ok := false
		for _, p := range el.Targeting.IncludePaths {
			if matchPath(p, ctx.Path) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if !member(el.Targeting.Devices, ctx.Device) {
		return false
	}
	if !member(el.Targeting.VisitorTypes, ctx.VisitorType) {
		return false
	}
	if !member(el.Targeting.TrafficSources, ctx.TrafficSource) {
		return false
	}
	return scheduleOpen(el.Targeting.Schedule, ctx.Now)
}

// matchPath matches a single pattern against a page path. A trailing "*"
// makes the literal before it a prefix match; anything else is exact.
func matchPath(pattern, path string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, pattern[:len(pattern)-1])
	}
	return pattern == path
}

// member implements the "constraint present => must satisfy" rule.
// An empty set is unconditionally satisfied.
func member(set []string, val string) bool {
	if len(set) == 0 {
		return true
	}
	val = strings.ToLower(strings.TrimSpace(val))
	for _, v := range set {
		if strings.ToLower(strings.TrimSpace(v)) == val {
			return true
		}
	}
	return false
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// scheduleOpen validates date range, weekday and local time window.
// A malformed schedule is treated as absent (open) rather than
// permanently failing, so a bad record cannot silently hide content.
func scheduleOpen(s *Schedule, now time.Time) bool {
	if s == nil {
		return true
	}

	loc := time.UTC
	if s.Timezone != "" {
		l, err := time.LoadLocation(s.Timezone)
		if err != nil {
			log.Debug().Str("timezone", s.Timezone).Msg("unparsable schedule timezone; treating schedule as open")
			return true
		}
		loc = l
	}
	local := now.In(loc)

	if s.Start != nil && local.Before(s.Start.In(loc)) {
		return false
	}
	if s.End != nil && local.After(s.End.In(loc)) {
		return false
	}

	if len(s.Weekdays) > 0 {
		var parsed, ok bool
		for _, w := range s.Weekdays {
			d, known := weekdayNames[strings.ToLower(strings.TrimSpace(w))]
			if !known {
				continue
			}
			parsed = true
			if d == local.Weekday() {
				ok = true
			}
		}
		// All tokens malformed: constraint absent.
		if parsed && !ok {
			return false
		}
	}

	return windowOpen(s.StartTime, s.EndTime, local)
}

// windowOpen checks a "HH:MM" local time-of-day window. Windows may wrap
// midnight (22:00-06:00). A malformed bound drops the window constraint.
func windowOpen(start, end string, local time.Time) bool {
	if start == "" || end == "" {
		return true
	}
	from, err1 := minuteOfDay(start)
	to, err2 := minuteOfDay(end)
	if err1 != nil || err2 != nil {
		log.Debug().Str("start", start).Str("end", end).Msg("unparsable schedule time window; treating as open")
		return true
	}
	cur := local.Hour()*60 + local.Minute()
	if from <= to {
		return cur >= from && cur <= to
	}
	return cur >= from || cur <= to
}

func minuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
