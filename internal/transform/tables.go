package transform

import (
	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

// TableBrToP splits every paragraph in a table cell at each tag element
// (br or eol) that belongs to it. Inline ancestors of the break are
// duplicated so both halves keep their formatting. Breaks inside a
// remark are left alone.
func TableBrToP(root *etree.Element, tag string) {
	for _, p := range akn.Descendants(root, "p") {
		if akn.Ancestor(p, "th", "td") == nil {
			continue
		}
		var breaks []*etree.Element
		for _, br := range akn.Descendants(p, tag) {
			if ownedBy(br, p) {
				breaks = append(breaks, br)
			}
		}
		// last first, so earlier breaks stay inside p
		for i := len(breaks) - 1; i >= 0; i-- {
			splitAt(p, breaks[i])
		}
	}
}

// ownedBy reports whether br's nearest p is p and no remark lies between.
func ownedBy(br, p *etree.Element) bool {
	for e := br.Parent(); e != nil; e = e.Parent() {
		if e == p {
			return true
		}
		if akn.Is(e, "p", "remark") {
			return false
		}
	}
	return false
}

// splitAt moves everything after br into a copy of p inserted after it.
func splitAt(p, br *etree.Element) {
	parent := br.Parent()
	carry := chainCopy(parent)
	moveFrom(parent, br.Index()+1, carry)
	parent.RemoveChild(br)

	for parent != p {
		up := parent.Parent()
		next := chainCopy(up)
		pos := parent.Index()
		next.AddChild(carry)
		moveFrom(up, pos+1, next)
		carry = next
		parent = up
	}
	akn.InsertAfter(p, carry)
}

func chainCopy(e *etree.Element) *etree.Element {
	c := akn.ShallowCopy(e)
	c.RemoveAttr("eId")
	c.RemoveAttr("wId")
	return c
}

func moveFrom(from *etree.Element, start int, to *etree.Element) {
	toks := append([]etree.Token(nil), from.Child[start:]...)
	for _, t := range toks {
		to.AddChild(t)
	}
}

// TableNukeBlankPs removes blank paragraphs from table cells unless the
// paragraph is the only element there.
func TableNukeBlankPs(root *etree.Element) {
	for _, p := range akn.Descendants(root, "p") {
		if akn.Ancestor(p, "th", "td") == nil || akn.HasNodes(p) {
			continue
		}
		if akn.PrevElement(p) != nil || akn.NextElement(p) != nil {
			akn.Remove(p)
		}
	}
}
