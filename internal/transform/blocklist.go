package transform

import (
	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

// BlocklistToPara converts first-level blockLists into hierarchical
// paragraphs, then cleans up the containers the conversion leaves
// behind. Nested lists surface as first-level lists once their parent
// item has become a paragraph, so the conversion repeats until none
// remain.
func BlocklistToPara(root *etree.Element) {
	for bl := firstLevelBlockList(root); bl != nil; bl = firstLevelBlockList(root) {
		convertBlockList(bl)
	}
	for _, p := range akn.Descendants(root, "paragraph") {
		if akn.Ancestor(p, "paragraph", "subparagraph") != nil {
			akn.Rename(p, "subparagraph")
		}
	}
	unwrapHcontainers(root)
	introsAndWrapUps(root)
}

func firstLevelBlockList(root *etree.Element) *etree.Element {
	for _, bl := range akn.Descendants(root, "blockList") {
		if akn.Is(bl.Parent(), "content", "mainBody") {
			return bl
		}
	}
	return nil
}

func convertBlockList(bl *etree.Element) {
	mk := akn.MakerFor(bl)
	parent := bl.Parent()
	anchor := bl
	if akn.Is(parent, "content") {
		anchor = parent
	}

	var leading []etree.Token
	if anchor != bl {
		leading = significant(parent.Child[:bl.Index()])
	}
	if intro := akn.Child(bl, "listIntroduction"); intro != nil || len(leading) > 0 {
		c := precedingContent(anchor, mk)
		for _, t := range leading {
			c.AddChild(t)
		}
		if intro != nil {
			akn.Rename(intro, "p")
			c.AddChild(intro)
		}
	}

	for _, item := range akn.Children(bl, "item") {
		akn.InsertBefore(anchor, itemToParagraph(item, mk))
	}

	var trailing []etree.Token
	if anchor != bl && !laterBlockList(bl) {
		trailing = significant(parent.Child[bl.Index()+1:])
	}
	// The wrap-up keeps a container of its own so that it can be told
	// apart from the content that follows the list.
	if wrap := akn.Child(bl, "listWrapUp"); wrap != nil {
		akn.Rename(wrap, "p")
		newContainer(anchor, mk).AddChild(wrap)
	}
	if len(trailing) > 0 {
		c := newContainer(anchor, mk)
		for _, t := range trailing {
			c.AddChild(t)
		}
	}

	akn.Remove(bl)
	if anchor != bl && akn.IsEmpty(parent) {
		akn.Remove(parent)
	}
}

// significant copies toks, dropping whitespace-only text.
func significant(toks []etree.Token) []etree.Token {
	var out []etree.Token
	for _, t := range toks {
		if cd, ok := t.(*etree.CharData); ok && cd.IsWhitespace() {
			continue
		}
		out = append(out, t)
	}
	return out
}

func laterBlockList(bl *etree.Element) bool {
	for _, s := range akn.FollowingSiblings(bl) {
		if akn.Is(s, "blockList") {
			return true
		}
	}
	return false
}

// precedingContent returns the content of an anonymous hcontainer
// directly before anchor, creating one when there is none.
func precedingContent(anchor *etree.Element, mk akn.Maker) *etree.Element {
	if prev := akn.PrevElement(anchor); isAnonymousContainer(prev) {
		return akn.Child(prev, "content")
	}
	return newContainer(anchor, mk)
}

// newContainer inserts <hcontainer name="hcontainer"><content/></hcontainer>
// before anchor and returns the content.
func newContainer(anchor *etree.Element, mk akn.Maker) *etree.Element {
	hc := mk.Element("hcontainer", "name", "hcontainer")
	c := mk.Element("content")
	hc.AddChild(c)
	akn.InsertBefore(anchor, hc)
	return c
}

// isAnonymousContainer reports whether e is an hcontainer holding
// nothing but a content element.
func isAnonymousContainer(e *etree.Element) bool {
	if !akn.Is(e, "hcontainer") {
		return false
	}
	kids := e.ChildElements()
	return len(kids) == 1 && akn.Is(kids[0], "content")
}

func itemToParagraph(item *etree.Element, mk akn.Maker) *etree.Element {
	akn.Rename(item, "paragraph")
	content := mk.Element("content")
	for _, t := range append([]etree.Token(nil), item.Child...) {
		switch v := t.(type) {
		case *etree.Element:
			if akn.Is(v, "num", "heading", "subheading") {
				continue
			}
			if akn.Is(v, "p") && akn.IsEmpty(v) {
				item.RemoveChild(v)
				continue
			}
		case *etree.CharData:
			if v.IsWhitespace() {
				item.RemoveChild(v)
				continue
			}
		}
		content.AddChild(t)
	}
	if len(content.ChildElements()) == 0 {
		content.AddChild(mk.Element("p"))
	}
	item.AddChild(content)
	return item
}

// unwrapHcontainers removes anonymous containers that ended up holding
// paragraphs, and lifts p elements out of anonymous top-level
// containers in a main body.
func unwrapHcontainers(root *etree.Element) {
	for _, hc := range akn.Descendants(root, "hcontainer") {
		if akn.Child(hc, "paragraph") != nil && akn.Child(hc, "num", "heading", "subheading", "crossHeading") == nil {
			akn.Graduate(hc)
		}
	}

	for _, body := range akn.Descendants(root, "mainBody") {
		for _, hc := range akn.Children(body, "hcontainer") {
			if akn.Child(hc, "num", "heading", "subheading", "crossHeading") != nil {
				continue
			}
			for _, c := range akn.Children(hc, "content") {
				for _, p := range akn.Children(c, "p") {
					akn.InsertBefore(hc, p)
				}
				if akn.IsEmpty(c) {
					akn.Remove(c)
				}
			}
			if akn.IsEmpty(hc) {
				akn.Remove(hc)
			}
		}
	}
}

// introsAndWrapUps turns anonymous containers at the start or end of a
// hierarchical element into intro or wrapUp.
func introsAndWrapUps(root *etree.Element) {
	for _, hc := range akn.Descendants(root, "hcontainer") {
		parent := hc.Parent()
		if parent == nil || akn.Is(parent, "mainBody", "body") || !isAnonymousContainer(hc) {
			continue
		}

		first := true
		for _, s := range akn.PrecedingSiblings(hc) {
			if !akn.Is(s, "num", "heading", "subheading") {
				first = false
				break
			}
		}
		last := akn.NextElement(hc) == nil
		content := akn.Child(hc, "content")

		switch {
		case first && !last:
			akn.Rename(content, "intro")
			akn.Graduate(hc)
		case last && !first && !akn.Is(akn.PrevElement(hc), "intro"):
			akn.Rename(content, "wrapUp")
			akn.Graduate(hc)
		}
	}
}
