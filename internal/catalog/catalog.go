// Package catalog builds and publishes the immutable element snapshot
// consumed by targeting evaluation. Elements are normalized once at
// build time and ordered by priority descending, source order breaking
// ties.
package catalog

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"engagement-engine/internal/cache"
	"engagement-engine/internal/engine"
	"engagement-engine/internal/render"
	"engagement-engine/internal/storage"
)

// Source loads the raw active element rows.
type Source interface {
	LoadActiveElements(ctx context.Context) ([]storage.ElementRow, error)
}

type snapshot struct {
	elements []engine.Element
}

// Catalog exposes lock-free reads of the current element set.
type Catalog struct {
	snap cache.Snapshot[snapshot]
}

func New() *Catalog { return &Catalog{} }

// Refresh loads, normalizes and atomically publishes a new snapshot.
// On error the previous snapshot stays live.
func (c *Catalog) Refresh(ctx context.Context, src Source) error {
	rows, err := src.LoadActiveElements(ctx)
	if err != nil {
		return err
	}
	els := buildElements(rows)
	c.snap.Store(snapshot{elements: els})
	log.Info().Int("elements", len(els)).Msg("catalog snapshot refreshed")
	return nil
}

// Elements returns the current snapshot; nil when none has been built
// yet (fail-open to "show nothing").
func (c *Catalog) Elements() []engine.Element {
	s, ok := c.snap.Load()
	if !ok {
		return nil
	}
	return s.elements
}

// Ready reports whether a snapshot has been published.
func (c *Catalog) Ready() bool {
	_, ok := c.snap.Load()
	return ok
}

// Lookup finds an element by id in the current snapshot.
func (c *Catalog) Lookup(id string) (engine.Element, bool) {
	for _, el := range c.Elements() {
		if el.ID == id {
			return el, true
		}
	}
	return engine.Element{}, false
}

func buildElements(rows []storage.ElementRow) []engine.Element {
	els := make([]engine.Element, 0, len(rows))
	for _, r := range rows {
		el := engine.Element{
			ID:       r.ID,
			Name:     r.Name,
			Variant:  engine.Variant(strings.ToLower(strings.TrimSpace(r.Variant))),
			Priority: r.Priority,
			Active:   strings.EqualFold(r.Status, "ACTIVE"),
		}
		// A malformed constraint payload degrades to constraint-absent
		// rather than permanently hiding the element.
		if len(r.Targeting) > 0 {
			if err := json.Unmarshal(r.Targeting, &el.Targeting); err != nil {
				log.Warn().Err(err).Str("element", r.ID).Msg("unparsable targeting; treating as unconstrained")
				el.Targeting = engine.TargetingRules{}
			}
		}
		if len(r.Trigger) > 0 {
			if err := json.Unmarshal(r.Trigger, &el.Trigger); err != nil {
				log.Warn().Err(err).Str("element", r.ID).Msg("unparsable trigger config; defaulting to immediate")
				el.Trigger = engine.TriggerConfig{}
			}
		}
		if len(r.Design) > 0 {
			var doc render.Document
			if err := json.Unmarshal(r.Design, &doc); err != nil {
				log.Warn().Err(err).Str("element", r.ID).Msg("unparsable design document; using legacy layout")
			} else {
				el.Design = &doc
			}
		}
		normalize(&el)
		els = append(els, el)
	}
	sort.SliceStable(els, func(i, j int) bool { return els[i].Priority > els[j].Priority })
	return els
}

// normalize canonicalizes set values once so evaluation never has to.
func normalize(el *engine.Element) {
	el.Targeting.IncludePaths = trimAll(el.Targeting.IncludePaths)
	el.Targeting.ExcludePaths = trimAll(el.Targeting.ExcludePaths)
	el.Targeting.Devices = lowerAll(el.Targeting.Devices)
	el.Targeting.VisitorTypes = lowerAll(el.Targeting.VisitorTypes)
	el.Targeting.TrafficSources = lowerAll(el.Targeting.TrafficSources)

	el.Trigger.Type = engine.TriggerType(strings.ToLower(strings.TrimSpace(string(el.Trigger.Type))))
	el.Trigger.Frequency.Policy = engine.CapPolicy(strings.ToLower(strings.TrimSpace(string(el.Trigger.Frequency.Policy))))
	if el.Trigger.Frequency.Policy == "" {
		el.Trigger.Frequency.Policy = engine.CapAlways
	}
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := in[:0]
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
