package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNav struct {
	navigated []string
	newTab    bool
	scrolled  []string
	downloads []string
}

func (f *fakeNav) Navigate(url string, newTab bool) {
	f.navigated = append(f.navigated, url)
	f.newTab = newTab
}
func (f *fakeNav) ScrollTo(target string) { f.scrolled = append(f.scrolled, target) }
func (f *fakeNav) Download(url string)    { f.downloads = append(f.downloads, url) }

type fakeClipboard struct {
	written []string
	err     error
}

func (f *fakeClipboard) WriteText(text string) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, text)
	return nil
}

type fakeSharer struct {
	shared int
}

func (f *fakeSharer) Share(url, text string) error {
	f.shared++
	return nil
}

func TestDispatch_HostHookRunsFirstForEveryAction(t *testing.T) {
	nav := &fakeNav{}
	d := NewDispatcher(nav, nil, nil)

	var order []string
	h := Hooks{
		OnAction: func(a Action, n NodeRef) { order = append(order, "hook:"+string(a.Kind)) },
		OnClose:  func() { order = append(order, "close") },
	}

	for _, kind := range []Kind{Link, Scroll, Close, Copy, Share, Download, AddToCart, Checkout, Book, SubmitForm, OpenForm} {
		d.Dispatch(Action{Kind: kind}, NodeRef{ID: "n"}, h)
	}

	// The hook observed all 11 actions, and Close ran after its hook.
	var hooks int
	for _, o := range order {
		if len(o) > 5 && o[:5] == "hook:" {
			hooks++
		}
	}
	assert.Equal(t, 11, hooks)
	require.Contains(t, order, "close")
	assert.Equal(t, "hook:close", order[indexOf(order, "close")-1])
}

func TestDispatch_IntrinsicEffects(t *testing.T) {
	nav := &fakeNav{}
	clip := &fakeClipboard{}
	sharer := &fakeSharer{}
	d := NewDispatcher(nav, clip, sharer)

	d.Dispatch(Action{Kind: Link, URL: "/shop", NewTab: true}, NodeRef{}, Hooks{})
	d.Dispatch(Action{Kind: Scroll, Target: "#pricing"}, NodeRef{}, Hooks{})
	d.Dispatch(Action{Kind: Copy, Text: "SAVE10"}, NodeRef{}, Hooks{})
	d.Dispatch(Action{Kind: Share, URL: "/p", Text: "look"}, NodeRef{}, Hooks{})
	d.Dispatch(Action{Kind: Download, URL: "/file.pdf"}, NodeRef{}, Hooks{})

	assert.Equal(t, []string{"/shop"}, nav.navigated)
	assert.True(t, nav.newTab)
	assert.Equal(t, []string{"#pricing"}, nav.scrolled)
	assert.Equal(t, []string{"SAVE10"}, clip.written)
	assert.Equal(t, 1, sharer.shared)
	assert.Equal(t, []string{"/file.pdf"}, nav.downloads)
}

func TestDispatch_DomainActionsNeverHandledIntrinsically(t *testing.T) {
	nav := &fakeNav{}
	d := NewDispatcher(nav, nil, nil)

	var forwarded []Kind
	h := Hooks{OnAction: func(a Action, _ NodeRef) { forwarded = append(forwarded, a.Kind) }}

	for _, kind := range []Kind{AddToCart, Checkout, Book, SubmitForm, OpenForm} {
		d.Dispatch(Action{Kind: kind, ProductID: "42", FormID: "f1"}, NodeRef{}, h)
	}

	assert.Len(t, forwarded, 5)
	assert.Empty(t, nav.navigated)
	assert.Empty(t, nav.scrolled)
	assert.Empty(t, nav.downloads)
}

func TestDispatch_MissingCapabilitiesAreSilentNoOps(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)

	assert.NotPanics(t, func() {
		d.Dispatch(Action{Kind: Link, URL: "/x"}, NodeRef{}, Hooks{})
		d.Dispatch(Action{Kind: Copy, Text: "x"}, NodeRef{}, Hooks{})
		d.Dispatch(Action{Kind: Share, URL: "/x"}, NodeRef{}, Hooks{})
		d.Dispatch(Action{Kind: Close}, NodeRef{}, Hooks{})
	})
}

func TestDispatch_ClipboardFailureSwallowed(t *testing.T) {
	clip := &fakeClipboard{err: errors.New("denied")}
	d := NewDispatcher(nil, clip, nil)

	assert.NotPanics(t, func() {
		d.Dispatch(Action{Kind: Copy, Text: "x"}, NodeRef{}, Hooks{})
	})
}

func TestFromProps(t *testing.T) {
	a := FromProps(map[string]any{
		"action": "link",
		"url":    "/shop",
		"newTab": true,
		"text":   "hello",
	})
	assert.Equal(t, Link, a.Kind)
	assert.Equal(t, "/shop", a.URL)
	assert.True(t, a.NewTab)
	assert.Equal(t, "hello", a.Text)

	// Wrong types degrade to zero values instead of panicking.
	b := FromProps(map[string]any{"action": 7, "newTab": "yes"})
	assert.Equal(t, Kind(""), b.Kind)
	assert.False(t, b.NewTab)
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
