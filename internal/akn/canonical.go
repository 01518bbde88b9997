package akn

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Canonicalise serialises doc in a form suitable for validation and
// diffing. Attribute order is made lexicographic with namespace
// declarations first, comments and the XML declaration are dropped, and
// the result is re-parsed and pretty-printed. Mixed content is left
// untouched by the pretty-printer so text is never altered.
func Canonicalise(doc *etree.Document) ([]byte, error) {
	c := doc.Copy()
	dropProlog(c)
	root := c.Root()
	sortAttrs(root)
	for _, e := range Descendants(root) {
		sortAttrs(e)
	}
	stripComments(root)
	setCanonical(&c.WriteSettings)

	flat, err := c.WriteToBytes()
	if err != nil {
		return nil, err
	}

	pretty, err := Parse(flat)
	if err != nil {
		return nil, err
	}
	Indent(pretty.Root(), "  ")
	setCanonical(&pretty.WriteSettings)
	out, err := pretty.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func setCanonical(ws *etree.WriteSettings) {
	ws.CanonicalEndTags = true
	ws.CanonicalText = true
	ws.CanonicalAttrVal = true
}

func dropProlog(doc *etree.Document) {
	for i := len(doc.Child) - 1; i >= 0; i-- {
		switch doc.Child[i].(type) {
		case *etree.Element:
		default:
			doc.RemoveChildAt(i)
		}
	}
}

func stripComments(e *etree.Element) {
	for i := len(e.Child) - 1; i >= 0; i-- {
		switch v := e.Child[i].(type) {
		case *etree.Comment:
			e.RemoveChildAt(i)
		case *etree.Element:
			stripComments(v)
		}
	}
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// sortAttrs orders namespace declarations first (default, then by
// prefix) followed by attributes ordered by namespace URI and name.
func sortAttrs(e *etree.Element) {
	sort.SliceStable(e.Attr, func(i, j int) bool {
		a, b := e.Attr[i], e.Attr[j]
		an, bn := isNamespaceDecl(a), isNamespaceDecl(b)
		if an != bn {
			return an
		}
		if an {
			if a.Space != b.Space {
				return a.Space == ""
			}
			return a.Key < b.Key
		}
		au, bu := a.NamespaceURI(), b.NamespaceURI()
		if au != bu {
			return au < bu
		}
		return a.Key < b.Key
	})
}

// Indent pretty-prints the subtree rooted at e using unit per level.
// Elements holding non-whitespace text, and elements with no element
// children, keep their content verbatim.
func Indent(e *etree.Element, unit string) {
	indent(e, 0, unit)
}

func indent(e *etree.Element, depth int, unit string) {
	if len(e.ChildElements()) == 0 || hasMixedContent(e) {
		return
	}

	var kept []etree.Token
	for _, t := range e.Child {
		if cd, ok := t.(*etree.CharData); ok && cd.IsWhitespace() {
			continue
		}
		kept = append(kept, t)
	}
	for len(e.Child) > 0 {
		e.RemoveChildAt(len(e.Child) - 1)
	}

	inner := "\n" + strings.Repeat(unit, depth+1)
	for _, t := range kept {
		e.AddChild(etree.NewText(inner))
		e.AddChild(t)
		if ce, ok := t.(*etree.Element); ok {
			indent(ce, depth+1, unit)
		}
	}
	e.AddChild(etree.NewText("\n" + strings.Repeat(unit, depth)))
}

func hasMixedContent(e *etree.Element) bool {
	for _, t := range e.Child {
		if cd, ok := t.(*etree.CharData); ok && !cd.IsWhitespace() {
			return true
		}
	}
	return false
}
