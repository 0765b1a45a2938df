package page

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	EventClick  = "click"
	EventSubmit = "submit"
)

type Listener func(*Event)

type listener struct {
	name string
	fn   Listener
}

// Event is a user event travelling from its target up to the document root.
type Event struct {
	Type string
	// Target is the element the event was dispatched on.
	Target *goquery.Selection
	// CurrentTarget is the element whose listener is running.
	CurrentTarget *goquery.Selection

	defaultPrevented bool
	stopped          bool
	stoppedNow       bool
}

func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation keeps the event from reaching ancestors of the current element.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// StopImmediatePropagation also skips the remaining listeners of the current element.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedNow = true
}

// On registers fn for events of type typ on every element of sel.
// A listener is identified by name: registering the same name twice on the
// same element and event type keeps the first registration.
func (p *Page) On(sel *goquery.Selection, typ, name string, fn Listener) int {
	added := 0
	for _, n := range sel.Nodes {
		byType, ok := p.listeners[n]
		if !ok {
			byType = make(map[string][]listener)
			p.listeners[n] = byType
		}
		if hasListener(byType[typ], name) {
			continue
		}
		byType[typ] = append(byType[typ], listener{name: name, fn: fn})
		added++
	}

	return added
}

// Listeners returns the number of listeners of type typ on the first element of sel.
func (p *Page) Listeners(sel *goquery.Selection, typ string) int {
	if sel.Length() == 0 {
		return 0
	}
	return len(p.listeners[sel.Get(0)][typ])
}

// Dispatch fires an event of type typ at the first element of target and
// bubbles it to the document root. The returned event tells whether a
// listener prevented the default action.
func (p *Page) Dispatch(target *goquery.Selection, typ string) *Event {
	ev := &Event{Type: typ, Target: target.First()}
	if target.Length() == 0 {
		return ev
	}

	for n := target.Get(0); n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		// Copy so listeners registered during dispatch do not run for this event.
		ls := append([]listener(nil), p.listeners[n][typ]...)
		if len(ls) == 0 {
			continue
		}
		ev.CurrentTarget = p.doc.FindNodes(n)
		if ev.CurrentTarget.Length() == 0 {
			// Detached by an earlier listener.
			ev.CurrentTarget = goquery.NewDocumentFromNode(n).Selection
		}
		for _, l := range ls {
			l.fn(ev)
			if ev.stoppedNow {
				return ev
			}
		}
		if ev.stopped {
			return ev
		}
	}

	return ev
}

func hasListener(ls []listener, name string) bool {
	for _, l := range ls {
		if l.name == name {
			return true
		}
	}
	return false
}
