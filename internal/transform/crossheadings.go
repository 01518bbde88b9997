package transform

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

const whitespace = " \t\n\r"

// FixCrossheadings trims cross-heading text and merges an hcontainer
// that opens with a crossHeading into a preceding hcontainer that ends
// with one, so consecutive cross-headings share a container.
func FixCrossheadings(root *etree.Element) {
	for _, ch := range akn.Descendants(root, "crossHeading") {
		trimText(ch)
	}

	for _, hc := range akn.Descendants(root, "hcontainer") {
		if hc.Parent() == nil || !akn.Is(akn.Child(hc), "crossHeading") {
			continue
		}
		prev := akn.PrevElement(hc)
		if !akn.Is(prev, "hcontainer") || !akn.Is(akn.LastChild(prev), "crossHeading") {
			continue
		}
		akn.MoveChildren(hc, prev)
		akn.Remove(hc)
	}
}

// trimText strips leading whitespace from e's text, and trailing
// whitespace too when e holds no elements.
func trimText(e *etree.Element) {
	text := e.Text()
	if len(e.ChildElements()) == 0 {
		akn.SetText(e, strings.Trim(text, whitespace))
		return
	}
	akn.SetText(e, strings.TrimLeft(text, whitespace))
}
