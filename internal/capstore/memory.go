package capstore

import (
	"context"
	"sync"
	"time"

	"engagement-engine/internal/engine"
)

// Memory is the in-process backend used by embedded sessions and tests.
type Memory struct {
	mu      sync.RWMutex
	durable map[string]map[string]string // visitor -> cap key -> marker
	session map[string]map[string]bool   // visitor -> cap key -> flag
}

func NewMemory() *Memory {
	return &Memory{
		durable: map[string]map[string]string{},
		session: map[string]map[string]bool{},
	}
}

func (m *Memory) IsCapped(_ context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := Key(elementID)
	switch rule.Policy {
	case engine.CapOnce:
		_, ok := m.durable[visitorID][key]
		return ok, nil
	case engine.CapOncePerSession:
		return m.session[visitorID][key], nil
	case engine.CapEveryNDays:
		v, ok := m.durable[visitorID][key]
		if !ok {
			return false, nil
		}
		return cappedAt(v, rule.Days, now), nil
	default: // always, or unrecognized policy
		return false, nil
	}
}

func (m *Memory) RecordDismissal(_ context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key(elementID)
	switch rule.Policy {
	case engine.CapOnce:
		m.ensureDurable(visitorID)[key] = "1"
	case engine.CapOncePerSession:
		m.ensureSession(visitorID)[key] = true
	case engine.CapEveryNDays:
		m.ensureDurable(visitorID)[key] = now.Format(time.RFC3339Nano)
	}
	return nil
}

func (m *Memory) ResetSession(_ context.Context, visitorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.session, visitorID)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) ensureDurable(visitorID string) map[string]string {
	if m.durable[visitorID] == nil {
		m.durable[visitorID] = map[string]string{}
	}
	return m.durable[visitorID]
}

func (m *Memory) ensureSession(visitorID string) map[string]bool {
	if m.session[visitorID] == nil {
		m.session[visitorID] = map[string]bool{}
	}
	return m.session[visitorID]
}
