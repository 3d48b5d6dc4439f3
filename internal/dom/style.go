package dom

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

const attrStyle = "style"

// declarations parses the inline style of n. An unparsable style attribute is
// treated as empty and will be replaced on the next write.
func declarations(n *html.Node) []*css.Declaration {
	raw, ok := Attr(n, attrStyle)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil
	}
	// The parser drops the value of an unterminated last declaration.
	if !strings.HasSuffix(raw, ";") {
		raw += ";"
	}
	decls, err := parser.ParseDeclarations(raw)
	if err != nil {
		return nil
	}
	return decls
}

// Style returns the inline value of the CSS property prop on n, or "".
func Style(n *html.Node, prop string) string {
	prop = strings.ToLower(prop)
	for _, d := range declarations(n) {
		if strings.ToLower(d.Property) == prop {
			return d.Value
		}
	}
	return ""
}

// SetStyle sets the inline CSS property prop on n. An empty value removes the
// property, and the style attribute disappears once no property is left.
// It reports whether the node changed.
func SetStyle(n *html.Node, prop, value string) bool {
	prop = strings.ToLower(prop)
	decls := declarations(n)

	idx := -1
	for i, d := range decls {
		if strings.ToLower(d.Property) == prop {
			idx = i
			break
		}
	}

	switch {
	case value == "" && idx < 0:
		return false
	case value == "":
		decls = append(decls[:idx], decls[idx+1:]...)
	case idx >= 0:
		if decls[idx].Value == value && !decls[idx].Important {
			return false
		}
		decls[idx].Value = value
		decls[idx].Important = false
	default:
		decls = append(decls, &css.Declaration{Property: prop, Value: value})
	}

	if len(decls) == 0 {
		RemoveAttr(n, attrStyle)
		return true
	}
	SetAttr(n, attrStyle, formatDeclarations(decls))
	return true
}

// formatDeclarations serializes declarations the way browsers reflect
// element.style: "a: b; c: d;".
func formatDeclarations(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		v := d.Property + ": " + d.Value
		if d.Important {
			v += " !important"
		}
		parts = append(parts, v+";")
	}
	return strings.Join(parts, " ")
}
