package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotHTML is returned when parsed content has no <html> element.
// html.Parse synthesizes one for almost any input, so this only happens
// for trees built by hand.
var ErrNotHTML = errors.New("content is not an HTML document")

// Document is a parsed content tree together with the listener registry and
// mutation observers attached to it.
type Document struct {
	// root is the html.DocumentNode returned by html.Parse.
	root *html.Node

	// listeners holds the event listeners registered per node.
	listeners NodeMap[listenerSet]

	// observers are notified about structural changes.
	observers []*Observation

	// nextObserverID identifies observations for Disconnect.
	nextObserverID int
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return NewDocument(root)
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument wraps an existing tree. The root must be a document node or an
// <html> element.
func NewDocument(root *html.Node) (*Document, error) {
	if root == nil {
		return nil, ErrNotHTML
	}
	if root.Type != html.DocumentNode && !(root.Type == html.ElementNode && root.DataAtom == atom.Html) {
		return nil, ErrNotHTML
	}
	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the <body> element, or the root when the tree has none.
func (d *Document) Body() *html.Node {
	var body *html.Node
	walkLight(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		return d.root
	}
	return body
}

// Render writes the document, including any presentation changes, to w.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document to a string. Rendering errors yield "".
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// ReplaceBody swaps the children of this document's body for the children of
// src's body. Observers see one removal and one addition record. The nodes
// moved out of src are detached from it.
func (d *Document) ReplaceBody(src *Document) {
	from := src.Body()
	var moved []*html.Node
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		moved = append(moved, c)
		c = next
	}
	d.ReplaceChildren(d.Body(), moved...)
}
