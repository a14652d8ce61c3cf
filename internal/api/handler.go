package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"engagement-engine/internal/capstore"
	"engagement-engine/internal/catalog"
	"engagement-engine/internal/engine"
	"engagement-engine/internal/observability"
	"engagement-engine/internal/render"
)

type Handler struct {
	Catalog  *catalog.Catalog
	Caps     capstore.Store
	Renderer *render.Renderer
}

func NewHandler(cat *catalog.Catalog, caps capstore.Store, renderer *render.Renderer) *Handler {
	return &Handler{Catalog: cat, Caps: caps, Renderer: renderer}
}

type DecideRequest struct {
	VisitorID     string         `json:"visitorId"`
	Path          string         `json:"path"`
	Device        string         `json:"device"`
	VisitorType   string         `json:"visitorType"`
	TrafficSource string         `json:"trafficSource"`
	Bindings      map[string]any `json:"bindings,omitempty"`
}

// DecideElement is one eligible element with its trigger config and
// resolved design output, in display order.
type DecideElement struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Variant  string               `json:"variant"`
	Priority int                  `json:"priority"`
	Trigger  engine.TriggerConfig `json:"trigger"`
	Output   *render.Output       `json:"output"`
	HTML     string               `json:"html"`
}

type DismissRequest struct {
	VisitorID string `json:"visitorId"`
	ElementID string `json:"elementId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decide evaluates targeting for the visitor context and returns the
// eligible elements, rendered, priority descending.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if req.VisitorID == "" || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "visitorId and path are required"})
		return
	}

	elements := h.Catalog.Elements()
	now := time.Now()
	ectx := engine.Context{
		Path:          req.Path,
		Device:        req.Device,
		VisitorType:   req.VisitorType,
		TrafficSource: req.TrafficSource,
		Now:           now,
		Caps:          capstore.SnapshotView(r.Context(), h.Caps, req.VisitorID, elements, now),
	}

	var out []DecideElement
	for _, el := range elements {
		if !engine.Evaluate(el, ectx) {
			continue
		}
		observability.EligibleTotal.Inc()
		rc := &render.Context{Bindings: req.Bindings}
		output := h.Renderer.Render(el.Design, string(el.Variant), rc)
		out = append(out, DecideElement{
			ID:       el.ID,
			Name:     el.Name,
			Variant:  string(el.Variant),
			Priority: el.Priority,
			Trigger:  el.Trigger,
			Output:   output,
			HTML:     output.HTML(),
		})
	}

	if len(out) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Dismiss records a dismissal under the element's cap policy.
func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	var req DismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if req.VisitorID == "" || req.ElementID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "visitorId and elementId are required"})
		return
	}

	el, ok := h.Catalog.Lookup(req.ElementID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown element"})
		return
	}

	rule := el.Trigger.Frequency
	if err := h.Caps.RecordDismissal(r.Context(), req.VisitorID, req.ElementID, rule, time.Now()); err != nil {
		log.Error().Err(err).Str("element", req.ElementID).Msg("record dismissal")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dismissal not recorded"})
		return
	}
	observability.DismissalsTotal.WithLabelValues(string(rule.Policy)).Inc()
	w.WriteHeader(http.StatusNoContent)
}
