package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Shadow root attributes recognised on <template> elements.
const (
	attrShadowRootMode   = "shadowrootmode"
	attrShadowRootLegacy = "shadowroot"
)

// walkLight visits the descendants of n in document order without entering
// the contents of any <template> element. The template element itself is
// visited. Returning false from visit stops the walk.
func walkLight(n *html.Node, visit func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !visit(c) {
			return false
		}
		if isTemplate(c) {
			continue
		}
		if !walkLight(c, visit) {
			return false
		}
	}
	return true
}

func isTemplate(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Template
}

// IsShadowRoot reports whether n is a declarative shadow root.
func IsShadowRoot(n *html.Node) bool {
	if n == nil || !isTemplate(n) || n.Parent == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && (a.Key == attrShadowRootMode || a.Key == attrShadowRootLegacy) {
			return true
		}
	}
	return false
}

// ShadowRoot returns the shadow root attached to host, or nil.
func ShadowRoot(host *html.Node) *html.Node {
	if host == nil {
		return nil
	}
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if IsShadowRoot(c) {
			return c
		}
	}
	return nil
}

// QueryAll returns the descendants of root matching m, in document order.
// Shadow roots and template contents are not searched.
func QueryAll(root *html.Node, m cascadia.Matcher) []*html.Node {
	var out []*html.Node
	walkLight(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && m.Match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryFirst returns the first descendant of root matching m, or nil.
func QueryFirst(root *html.Node, m cascadia.Matcher) *html.Node {
	var found *html.Node
	walkLight(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && m.Match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// DeepQueryAll returns every node under root matching m, entering each shadow
// root it meets and recursing into nested ones. Results keep document order,
// with shadow contents placed where their root is attached.
func DeepQueryAll(root *html.Node, m cascadia.Matcher) []*html.Node {
	var out []*html.Node
	var visitScope func(scope *html.Node)
	visitScope = func(scope *html.Node) {
		walkLight(scope, func(n *html.Node) bool {
			if IsShadowRoot(n) {
				visitScope(n)
				return true
			}
			if n.Type == html.ElementNode && m.Match(n) {
				out = append(out, n)
			}
			return true
		})
	}
	visitScope(root)
	return out
}

// ComposedParent returns the parent of n, stepping from a shadow root's
// contents to its host.
func ComposedParent(n *html.Node) *html.Node {
	p := n.Parent
	if p != nil && IsShadowRoot(p) {
		return p.Parent
	}
	return p
}

// Closest returns n or its nearest composed ancestor matching m, or nil.
func Closest(n *html.Node, m cascadia.Matcher) *html.Node {
	for cur := n; cur != nil; cur = ComposedParent(cur) {
		if cur.Type == html.ElementNode && m.Match(cur) {
			return cur
		}
	}
	return nil
}

// Contains reports whether n is root or one of its light-tree descendants.
func Contains(root, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
		if IsShadowRoot(cur) {
			return false
		}
	}
	return false
}

// TextContent concatenates the text beneath n. Template contents are
// excluded.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	walkLight(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds the attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
