package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// MutationRecord describes one structural change.
type MutationRecord struct {
	// Target is the node whose children changed.
	Target *html.Node

	// Added lists the nodes inserted under Target.
	Added []*html.Node

	// Removed lists the nodes taken out of Target.
	Removed []*html.Node
}

// MutationCallback receives the records of one mutation call.
type MutationCallback func(records []MutationRecord)

// Observation is a registered mutation observer.
type Observation struct {
	doc  *Document
	id   int
	root *html.Node
	cb   MutationCallback
}

// Observe registers cb for child additions and removals anywhere in the light
// subtree rooted at root, like a MutationObserver with childList and subtree
// set. Changes inside shadow roots are not reported.
func (d *Document) Observe(root *html.Node, cb MutationCallback) *Observation {
	d.nextObserverID++
	o := &Observation{doc: d, id: d.nextObserverID, root: root, cb: cb}
	d.observers = append(d.observers, o)
	return o
}

// Disconnect stops delivery to the observer.
func (o *Observation) Disconnect() {
	d := o.doc
	d.observers = slices.DeleteFunc(d.observers, func(x *Observation) bool {
		return x.id == o.id
	})
}

func (d *Document) notify(rec MutationRecord) {
	for _, o := range slices.Clone(d.observers) {
		if Contains(o.root, rec.Target) {
			o.cb([]MutationRecord{rec})
		}
	}
}

// detach removes child from its current parent, reporting the removal.
func (d *Document) detach(child *html.Node) {
	if p := child.Parent; p != nil {
		p.RemoveChild(child)
		d.notify(MutationRecord{Target: p, Removed: []*html.Node{child}})
	}
}

// AppendChild inserts child as the last child of parent, moving it if it is
// already attached elsewhere.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.detach(child)
	parent.AppendChild(child)
	d.notify(MutationRecord{Target: parent, Added: []*html.Node{child}})
}

// InsertBefore inserts child before ref under parent. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	d.detach(child)
	parent.InsertBefore(child, ref)
	d.notify(MutationRecord{Target: parent, Added: []*html.Node{child}})
}

// RemoveChild removes child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) {
	if child.Parent != parent {
		return
	}
	parent.RemoveChild(child)
	d.notify(MutationRecord{Target: parent, Removed: []*html.Node{child}})
}

// ReplaceChildren removes every child of parent and appends children in their
// place. Observers receive a single record.
func (d *Document) ReplaceChildren(parent *html.Node, children ...*html.Node) {
	var removed []*html.Node
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		parent.AppendChild(c)
	}
	d.notify(MutationRecord{Target: parent, Added: children, Removed: removed})
}
