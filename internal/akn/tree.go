package akn

import (
	"strings"

	"github.com/beevik/etree"
)

// Is reports whether e is non-nil and has one of the given local names.
func Is(e *etree.Element, tags ...string) bool {
	if e == nil {
		return false
	}
	for _, t := range tags {
		if e.Tag == t {
			return true
		}
	}
	return false
}

// Children returns the direct element children of e, filtered by tag
// when tags are given.
func Children(e *etree.Element, tags ...string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if len(tags) == 0 || Is(c, tags...) {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct child matching tags, or nil.
func Child(e *etree.Element, tags ...string) *etree.Element {
	for _, c := range e.ChildElements() {
		if len(tags) == 0 || Is(c, tags...) {
			return c
		}
	}
	return nil
}

// LastChild returns the last direct child matching tags, or nil.
func LastChild(e *etree.Element, tags ...string) *etree.Element {
	kids := Children(e, tags...)
	if len(kids) == 0 {
		return nil
	}
	return kids[len(kids)-1]
}

// Descendants returns every element below e in document order, filtered
// by tag when tags are given. e itself is not included.
func Descendants(e *etree.Element, tags ...string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		for _, c := range n.ChildElements() {
			if len(tags) == 0 || Is(c, tags...) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// HasDescendant reports whether any element below e matches tags.
func HasDescendant(e *etree.Element, tags ...string) bool {
	for _, c := range e.ChildElements() {
		if Is(c, tags...) || HasDescendant(c, tags...) {
			return true
		}
	}
	return false
}

// Ancestor returns the nearest ancestor of e matching tags, or nil.
func Ancestor(e *etree.Element, tags ...string) *etree.Element {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if Is(p, tags...) {
			return p
		}
	}
	return nil
}

// NextElement returns the next element sibling, skipping text.
func NextElement(e *etree.Element) *etree.Element {
	p := e.Parent()
	if p == nil {
		return nil
	}
	for _, t := range p.Child[e.Index()+1:] {
		if el, ok := t.(*etree.Element); ok {
			return el
		}
	}
	return nil
}

// PrevElement returns the previous element sibling, skipping text.
func PrevElement(e *etree.Element) *etree.Element {
	p := e.Parent()
	if p == nil {
		return nil
	}
	for i := e.Index() - 1; i >= 0; i-- {
		if el, ok := p.Child[i].(*etree.Element); ok {
			return el
		}
	}
	return nil
}

// FollowingSiblings returns the element siblings after e.
func FollowingSiblings(e *etree.Element) []*etree.Element {
	var out []*etree.Element
	for n := NextElement(e); n != nil; n = NextElement(n) {
		out = append(out, n)
	}
	return out
}

// PrecedingSiblings returns the element siblings before e, nearest last.
func PrecedingSiblings(e *etree.Element) []*etree.Element {
	p := e.Parent()
	if p == nil {
		return nil
	}
	var out []*etree.Element
	for _, t := range p.Child[:e.Index()] {
		if el, ok := t.(*etree.Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Text returns the concatenated character data of e and its descendants.
func Text(e *etree.Element) string {
	var b strings.Builder
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		for _, t := range n.Child {
			switch v := t.(type) {
			case *etree.CharData:
				b.WriteString(v.Data)
			case *etree.Element:
				walk(v)
			}
		}
	}
	walk(e)
	return b.String()
}

// IsEmpty reports whether e has no element children and no text other
// than whitespace.
func IsEmpty(e *etree.Element) bool {
	for _, t := range e.Child {
		switch v := t.(type) {
		case *etree.Element:
			return false
		case *etree.CharData:
			if !v.IsWhitespace() {
				return false
			}
		}
	}
	return true
}

// HasNodes reports whether e has any child token at all.
func HasNodes(e *etree.Element) bool {
	return len(e.Child) > 0
}

// Rename changes the local name of e, keeping its prefix.
func Rename(e *etree.Element, tag string) {
	e.Tag = tag
}

// Remove detaches e from its parent. Its tail text stays behind.
func Remove(e *etree.Element) {
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
}

// InsertBefore places t immediately before ref.
func InsertBefore(ref *etree.Element, t etree.Token) {
	p := ref.Parent()
	p.InsertChildAt(ref.Index(), t)
}

// InsertAfter places t immediately after ref.
func InsertAfter(ref *etree.Element, t etree.Token) {
	p := ref.Parent()
	p.InsertChildAt(ref.Index()+1, t)
}

// MoveChildren appends every child token of from to to, in order.
func MoveChildren(from, to *etree.Element) {
	toks := append([]etree.Token(nil), from.Child...)
	for _, t := range toks {
		to.AddChild(t)
	}
}

// Graduate replaces e with its own children at the same position.
func Graduate(e *etree.Element) {
	p := e.Parent()
	if p == nil {
		return
	}
	idx := e.Index()
	toks := append([]etree.Token(nil), e.Child...)
	p.RemoveChild(e)
	for i, t := range toks {
		p.InsertChildAt(idx+i, t)
	}
}

// ShallowCopy copies the tag and attributes of e without its children.
func ShallowCopy(e *etree.Element) *etree.Element {
	c := etree.NewElement(e.Tag)
	c.Space = e.Space
	for _, a := range e.Attr {
		key := a.Key
		if a.Space != "" {
			key = a.Space + ":" + a.Key
		}
		c.CreateAttr(key, a.Value)
	}
	return c
}

// SetText replaces the leading text of e, removing it when s is empty.
func SetText(e *etree.Element, s string) {
	e.SetText(s)
	if s == "" && len(e.Child) > 0 {
		if cd, ok := e.Child[0].(*etree.CharData); ok && cd.Data == "" {
			e.RemoveChildAt(0)
		}
	}
}
