package action

import (
	"github.com/rs/zerolog/log"
)

// Navigator is the host capability for location changes.
type Navigator interface {
	Navigate(url string, newTab bool)
	ScrollTo(target string)
	Download(url string)
}

// Clipboard is the host capability for writing literal text.
type Clipboard interface {
	WriteText(text string) error
}

// Sharer is the host capability for native sharing.
type Sharer interface {
	Share(url, text string) error
}

// Hooks are the host callbacks threaded through a dispatch.
type Hooks struct {
	OnClose  func()
	OnAction func(Action, NodeRef)
}

// Dispatcher executes intrinsic effects through host capabilities and
// forwards everything else. Any capability may be nil; a missing
// capability makes the corresponding effect a silent no-op.
type Dispatcher struct {
	nav    Navigator
	clip   Clipboard
	sharer Sharer
}

func NewDispatcher(nav Navigator, clip Clipboard, sharer Sharer) *Dispatcher {
	return &Dispatcher{nav: nav, clip: clip, sharer: sharer}
}

// Dispatch runs the host OnAction hook first and unconditionally, then
// handles intrinsic actions. Domain actions (add_to_cart, checkout, book,
// submit_form, open_form) are left entirely to the host.
func (d *Dispatcher) Dispatch(a Action, node NodeRef, h Hooks) {
	if h.OnAction != nil {
		h.OnAction(a, node)
	}

	switch a.Kind {
	case Link:
		if d.nav != nil {
			d.nav.Navigate(a.URL, a.NewTab)
		}
	case Scroll:
		if d.nav != nil {
			d.nav.ScrollTo(a.Target)
		}
	case Close:
		if h.OnClose != nil {
			h.OnClose()
		}
	case Copy:
		if d.clip == nil {
			return
		}
		if err := d.clip.WriteText(a.Text); err != nil {
			log.Debug().Err(err).Msg("clipboard write failed")
		}
	case Share:
		if d.sharer == nil {
			return
		}
		if err := d.sharer.Share(a.URL, a.Text); err != nil {
			log.Debug().Err(err).Msg("share failed")
		}
	case Download:
		if d.nav != nil {
			d.nav.Download(a.URL)
		}
	}
}
