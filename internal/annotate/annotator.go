package annotate

import (
	"golang.org/x/net/html"

	"github.com/nao1215/studysight/internal/dom"
)

// cardState is the per-card entry of the side table.
type cardState struct {
	state State
}

// Annotator applies suppression to the cards of one document.
// It is driven from a single goroutine: the reconciler's loop for passes,
// and the document's event dispatch for hover.
//
// Design decision: card state lives in a NodeMap keyed by the card rather
// than in a registry the reconciler keeps because:
// 1. A pass can run over whatever cards the page currently has, known or not
// 2. State disappears when the page drops a card, with no cleanup pass
// 3. Re-applying the current state is a lookup, which keeps passes idempotent
//
// The two hover listeners are shared by every card so that removal by
// identity always finds them.
type Annotator struct {
	doc      *dom.Document
	states   dom.NodeMap[cardState]
	surfaces []surface
	enter    *hoverListener
	leave    *hoverListener
}

// New creates an Annotator for doc.
func New(doc *dom.Document) *Annotator {
	a := &Annotator{
		doc:      doc,
		surfaces: previewSurfaces(),
	}
	a.enter = &hoverListener{annotator: a, reveal: true}
	a.leave = &hoverListener{annotator: a, reveal: false}
	return a
}

// State returns the annotation state of card.
func (a *Annotator) State(card *html.Node) State {
	if s, ok := a.states.Load(card); ok {
		return s.state
	}
	return Unannotated
}

// Tracked returns the number of cards with attached state.
func (a *Annotator) Tracked() int {
	return a.states.Len()
}

// Apply moves card into the suppressed or the visible state and reports
// whether its state changed. Requesting the state the card is already in
// changes nothing, except that preview surfaces added since the last call
// are hidden as well. A hover-revealed card stays revealed.
func (a *Annotator) Apply(card *html.Node, suppress bool) bool {
	s := a.states.LoadOrCreate(card)

	if suppress {
		if s.state.IsSuppressed() {
			a.hideSurfaces(card)
			return false
		}
		a.suppress(card)
		s.state = Suppressed
		return true
	}

	switch s.state {
	case Visible:
		return false
	case Suppressed, SuppressedHoverRevealed:
		a.unsuppress(card)
	}
	s.state = Visible
	return true
}

// HoverEnter lifts the blur of a suppressed card and keeps its preview
// surfaces hidden. It does nothing for cards that are not suppressed.
func (a *Annotator) HoverEnter(card *html.Node) bool {
	s, ok := a.states.Load(card)
	if !ok || s.state != Suppressed {
		return false
	}
	dom.SetStyle(card, propFilter, none)
	for _, sf := range a.surfaces {
		if !sf.hideOnHover {
			continue
		}
		for _, n := range dom.QueryAll(card, sf.selector) {
			dom.SetStyle(n, propDisplay, none)
		}
	}
	s.state = SuppressedHoverRevealed
	return true
}

// HoverLeave restores the blur of a hover-revealed card.
func (a *Annotator) HoverLeave(card *html.Node) bool {
	s, ok := a.states.Load(card)
	if !ok || s.state != SuppressedHoverRevealed {
		return false
	}
	dom.SetStyle(card, propFilter, blur)
	s.state = Suppressed
	return true
}

// RemoveAll un-suppresses every card in cards and returns how many were
// suppressed before.
func (a *Annotator) RemoveAll(cards []*html.Node) int {
	cleared := 0
	for _, card := range cards {
		wasSuppressed := a.State(card).IsSuppressed()
		a.Apply(card, false)
		if wasSuppressed {
			cleared++
		}
	}
	return cleared
}

func (a *Annotator) suppress(card *html.Node) {
	dom.SetStyle(card, propTransition, transition)
	dom.SetStyle(card, propFilter, blur)
	dom.SetStyle(card, propPointer, passThrough)
	dom.SetStyle(card, propBackground, hitBackground)
	a.hideSurfaces(card)

	a.doc.AddEventListener(card, dom.EventMouseEnter, a.enter)
	a.doc.AddEventListener(card, dom.EventMouseLeave, a.leave)
}

func (a *Annotator) unsuppress(card *html.Node) {
	dom.SetStyle(card, propTransition, transition)
	dom.SetStyle(card, propFilter, none)
	dom.SetStyle(card, propPointer, "")
	dom.SetStyle(card, propBackground, "")
	for _, sf := range a.surfaces {
		for _, n := range dom.QueryAll(card, sf.selector) {
			for _, p := range sf.props {
				dom.SetStyle(n, p.name, "")
			}
		}
	}

	a.doc.RemoveEventListener(card, dom.EventMouseEnter, a.enter)
	a.doc.RemoveEventListener(card, dom.EventMouseLeave, a.leave)
}

func (a *Annotator) hideSurfaces(card *html.Node) {
	for _, sf := range a.surfaces {
		for _, n := range dom.QueryAll(card, sf.selector) {
			for _, p := range sf.props {
				dom.SetStyle(n, p.name, p.value)
			}
		}
	}
}

// hoverListener forwards pointer events to the Annotator. The two
// instances are shared by every card so that removal by identity works.
type hoverListener struct {
	annotator *Annotator
	reveal    bool
}

// HandleEvent implements dom.Listener.
func (l *hoverListener) HandleEvent(e *dom.Event) {
	e.StopPropagation()
	if l.reveal {
		l.annotator.HoverEnter(e.CurrentTarget)
		return
	}
	l.annotator.HoverLeave(e.CurrentTarget)
}
