package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// EventType names a dispatched event.
type EventType string

// Event types used by studysight.
const (
	// EventMouseEnter fires when the pointer enters a node. It does not bubble.
	EventMouseEnter EventType = "mouseenter"
	// EventMouseLeave fires when the pointer leaves a node. It does not bubble.
	EventMouseLeave EventType = "mouseleave"
	// EventClick bubbles through composed ancestors.
	EventClick EventType = "click"
)

// Bubbles reports whether events of this type propagate to ancestors.
func (t EventType) Bubbles() bool {
	return t != EventMouseEnter && t != EventMouseLeave
}

// Event is delivered to listeners during Dispatch.
type Event struct {
	// Type is the event type.
	Type EventType

	// Target is the node the event was dispatched to.
	Target *html.Node

	// CurrentTarget is the node whose listener is running.
	CurrentTarget *html.Node

	stopped bool
}

// StopPropagation prevents delivery to further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles events. Listeners are compared with == for removal, so
// implementations are usually pointers.
type Listener interface {
	HandleEvent(e *Event)
}

type listenerSet struct {
	byType map[EventType][]Listener
}

// AddEventListener registers l for typ on n. Registering the same listener
// twice is a no-op and returns false.
func (d *Document) AddEventListener(n *html.Node, typ EventType, l Listener) bool {
	set := d.listeners.LoadOrCreate(n)
	if set.byType == nil {
		set.byType = make(map[EventType][]Listener)
	}
	if slices.Contains(set.byType[typ], l) {
		return false
	}
	set.byType[typ] = append(set.byType[typ], l)
	return true
}

// RemoveEventListener unregisters l for typ on n and reports whether it was
// registered.
func (d *Document) RemoveEventListener(n *html.Node, typ EventType, l Listener) bool {
	set, ok := d.listeners.Load(n)
	if !ok {
		return false
	}
	ls := set.byType[typ]
	i := slices.Index(ls, l)
	if i < 0 {
		return false
	}
	set.byType[typ] = slices.Delete(ls, i, i+1)
	if len(set.byType[typ]) == 0 {
		delete(set.byType, typ)
	}
	if len(set.byType) == 0 {
		d.listeners.Delete(n)
	}
	return true
}

// ListenerCount returns how many listeners for typ are registered on n.
func (d *Document) ListenerCount(n *html.Node, typ EventType) int {
	set, ok := d.listeners.Load(n)
	if !ok {
		return 0
	}
	return len(set.byType[typ])
}

// Dispatch delivers an event of type typ to target and, for bubbling types,
// to its composed ancestors until a listener stops propagation.
func (d *Document) Dispatch(target *html.Node, typ EventType) *Event {
	e := &Event{Type: typ, Target: target}
	for cur := target; cur != nil; cur = ComposedParent(cur) {
		if set, ok := d.listeners.Load(cur); ok {
			e.CurrentTarget = cur
			for _, l := range slices.Clone(set.byType[typ]) {
				l.HandleEvent(e)
			}
		}
		if e.stopped || !typ.Bubbles() {
			break
		}
	}
	return e
}
