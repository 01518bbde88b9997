package transform

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

// Normalise applies the whitespace and empty-element rules of the
// current XML generator so migrated documents serialise the same way
// freshly parsed ones do.
func Normalise(root *etree.Element) {
	for _, e := range akn.Descendants(root, "heading", "listIntroduction") {
		if !akn.HasNodes(e) {
			akn.Remove(e)
		}
	}

	for _, p := range akn.Descendants(root, "p") {
		trimText(p)
	}

	normaliseAttrs(root)
	for _, e := range akn.Descendants(root) {
		normaliseAttrs(e)
	}

	for _, br := range akn.Descendants(root, "br") {
		if akn.Ancestor(br, "remark") != nil {
			br.SetTail(strings.TrimLeft(br.Tail(), whitespace))
		}
	}

	for _, cell := range akn.Descendants(root, "th", "td") {
		trimCellEdges(cell)
	}
}

func normaliseAttrs(e *etree.Element) {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Space == "xmlns" || a.Key == "xmlns" || a.Key == "value" || a.Key == "src" {
			continue
		}
		a.Value = strings.Join(strings.Fields(a.Value), " ")
	}
}

// trimCellEdges drops empty paragraphs at either end of a cell while
// the cell has other content.
func trimCellEdges(cell *etree.Element) {
	for {
		kids := cell.ChildElements()
		if len(kids) < 2 {
			return
		}
		switch {
		case akn.Is(kids[0], "p") && akn.IsEmpty(kids[0]):
			akn.Remove(kids[0])
		case akn.Is(kids[len(kids)-1], "p") && akn.IsEmpty(kids[len(kids)-1]):
			akn.Remove(kids[len(kids)-1])
		default:
			return
		}
	}
}
