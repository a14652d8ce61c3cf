package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engagement-engine/internal/engine"
	"engagement-engine/internal/storage"
)

type stubSource struct {
	rows []storage.ElementRow
	err  error
}

func (s stubSource) LoadActiveElements(context.Context) ([]storage.ElementRow, error) {
	return s.rows, s.err
}

func TestCatalog_RefreshBuildsNormalizedSnapshot(t *testing.T) {
	src := stubSource{rows: []storage.ElementRow{
		{
			ID: "low", Name: "Low", Variant: "Popup", Priority: 5, Status: "ACTIVE",
			Targeting: []byte(`{"devices":[" Desktop ","MOBILE"],"includePaths":[" /blog/* "]}`),
			Trigger:   []byte(`{"type":"DELAY","seconds":5,"frequency":{"policy":"ONCE"}}`),
		},
		{
			ID: "high", Name: "High", Variant: "bar", Priority: 10, Status: "ACTIVE",
			Trigger: []byte(`{"type":"immediate"}`),
		},
	}}

	cat := New()
	require.NoError(t, cat.Refresh(context.Background(), src))
	require.True(t, cat.Ready())

	els := cat.Elements()
	require.Len(t, els, 2)

	// Priority descending regardless of source order.
	assert.Equal(t, "high", els[0].ID)
	assert.Equal(t, "low", els[1].ID)

	low := els[1]
	assert.Equal(t, engine.VariantPopup, low.Variant)
	assert.Equal(t, []string{"desktop", "mobile"}, low.Targeting.Devices)
	assert.Equal(t, []string{"/blog/*"}, low.Targeting.IncludePaths)
	assert.Equal(t, engine.TriggerDelay, low.Trigger.Type)
	assert.Equal(t, engine.CapOnce, low.Trigger.Frequency.Policy)

	// Absent frequency policy defaults to always.
	assert.Equal(t, engine.CapAlways, els[0].Trigger.Frequency.Policy)
}

func TestCatalog_MalformedPayloadsDegradeOpen(t *testing.T) {
	src := stubSource{rows: []storage.ElementRow{{
		ID: "bad", Name: "Bad", Variant: "popup", Priority: 1, Status: "ACTIVE",
		Targeting: []byte(`{not json`),
		Trigger:   []byte(`{also not json`),
		Design:    []byte(`{nope`),
	}}}

	cat := New()
	require.NoError(t, cat.Refresh(context.Background(), src))

	els := cat.Elements()
	require.Len(t, els, 1)
	// Unparsable targeting means unconstrained, not hidden.
	assert.Empty(t, els[0].Targeting.IncludePaths)
	assert.True(t, engine.Evaluate(els[0], engine.Context{Path: "/anywhere", Caps: engine.NoCaps{}}))
	// Unparsable design falls back to the legacy layout.
	assert.Nil(t, els[0].Design)
}

func TestCatalog_RefreshErrorKeepsPreviousSnapshot(t *testing.T) {
	cat := New()
	require.NoError(t, cat.Refresh(context.Background(), stubSource{rows: []storage.ElementRow{
		{ID: "a", Variant: "popup", Status: "ACTIVE"},
	}}))

	err := cat.Refresh(context.Background(), stubSource{err: errors.New("db down")})
	require.Error(t, err)

	els := cat.Elements()
	require.Len(t, els, 1)
	assert.Equal(t, "a", els[0].ID)
}

func TestCatalog_EmptyBeforeFirstRefresh(t *testing.T) {
	cat := New()
	assert.False(t, cat.Ready())
	assert.Nil(t, cat.Elements())
}

func TestFileSource_MatchesPostgresNormalization(t *testing.T) {
	fileCat := New()
	require.NoError(t, fileCat.Refresh(context.Background(), NewFileSource("testdata/elements.yaml")))

	els := fileCat.Elements()
	require.Len(t, els, 2)

	// Same normalized shape a database row would produce.
	assert.Equal(t, "welcome", els[0].ID)
	assert.Equal(t, engine.VariantPopup, els[0].Variant)
	assert.Equal(t, []string{"desktop"}, els[0].Targeting.Devices)
	assert.Equal(t, engine.TriggerDelay, els[0].Trigger.Type)
	assert.Equal(t, engine.CapEveryNDays, els[0].Trigger.Frequency.Policy)
	assert.Equal(t, 7, els[0].Trigger.Frequency.Days)
	require.NotNil(t, els[0].Design)
	assert.Len(t, els[0].Design.Children, 2)

	assert.Equal(t, "exit-bar", els[1].ID)
	assert.Nil(t, els[1].Design)
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource("testdata/nope.yaml").LoadActiveElements(context.Background())
	assert.Error(t, err)
}

func TestCatalog_Lookup(t *testing.T) {
	cat := New()
	require.NoError(t, cat.Refresh(context.Background(), stubSource{rows: []storage.ElementRow{
		{ID: "a", Variant: "popup", Status: "ACTIVE"},
	}}))

	el, ok := cat.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "a", el.ID)

	_, ok = cat.Lookup("missing")
	assert.False(t, ok)
}
