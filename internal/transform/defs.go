package transform

import (
	"log/slog"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/eid"
)

// ShouldMigrateDefs reports whether root has definitions held in
// paragraphs: some element other than a (sub)paragraph contains a def
// and is followed by a (sub)paragraph sibling.
func ShouldMigrateDefs(root *etree.Element) bool {
	seen := make(map[*etree.Element]bool)
	for _, def := range akn.Descendants(root, "def") {
		for e := def.Parent(); e != nil && e != root; e = e.Parent() {
			if seen[e] {
				break
			}
			seen[e] = true
			if akn.Is(e, "paragraph", "subparagraph") {
				continue
			}
			for _, s := range akn.FollowingSiblings(e) {
				if akn.Is(s, "paragraph", "subparagraph") {
					return true
				}
			}
		}
	}
	return false
}

// DefsParaToBlocklistPass re-encodes paragraph definitions as blockLists.
// Each definitions element (a section holding a def, or a subsection or
// (sub)paragraph inside one) is processed outermost first; its lead-in
// intros and anonymous containers absorb the paragraphs that follow
// them as list items, and the element is then reshaped to hold a single
// content. It reports whether anything changed.
func DefsParaToBlocklistPass(root *etree.Element) (bool, error) {
	changed := false
	for el := nextDefinitions(root); el != nil; el = nextDefinitions(root) {
		if err := convertDefinitions(el); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

func nextDefinitions(root *etree.Element) *etree.Element {
	for _, el := range akn.Descendants(root, "section", "subsection", "paragraph", "subparagraph") {
		if isDefinitions(el) && leadIn(el) != nil {
			return el
		}
	}
	return nil
}

func isDefinitions(el *etree.Element) bool {
	if !akn.HasDescendant(el, "def") {
		return false
	}
	switch el.Tag {
	case "section":
		return true
	case "subsection":
		return akn.Ancestor(el, "section") != nil
	default:
		return akn.Ancestor(el, "section", "subsection") != nil
	}
}

// leadIn returns the first intro or anonymous container of el that has
// a p and is directly followed by a (sub)paragraph.
func leadIn(el *etree.Element) *etree.Element {
	for _, c := range akn.Children(el, "intro", "hcontainer") {
		if leadHolder(c) != nil && akn.Is(akn.NextElement(c), "paragraph", "subparagraph") {
			return c
		}
	}
	return nil
}

// leadHolder returns the element holding the p children of an intro or
// of an hcontainer's content.
func leadHolder(c *etree.Element) *etree.Element {
	holder := c
	if akn.Is(c, "hcontainer") {
		holder = akn.Child(c, "content")
	}
	if holder == nil || akn.Child(holder, "p") == nil {
		return nil
	}
	return holder
}

func convertDefinitions(el *etree.Element) error {
	for lead := leadIn(el); lead != nil; lead = leadIn(el) {
		if err := absorbParagraphs(lead); err != nil {
			return err
		}
	}
	return reshape(el)
}

// absorbParagraphs turns the last p of lead into the introduction of a
// new blockList and moves the following (sub)paragraphs into it as items.
func absorbParagraphs(lead *etree.Element) error {
	mk := akn.MakerFor(lead)
	last := akn.LastChild(leadHolder(lead), "p")

	bl := mk.Element("blockList")
	if r := definitionRef(last); r != "" {
		bl.CreateAttr("refersTo", r)
	}
	last.RemoveAttr("refersTo")
	akn.InsertBefore(last, bl)
	akn.Rename(last, "listIntroduction")
	bl.AddChild(last)

	for next := akn.NextElement(lead); akn.Is(next, "paragraph", "subparagraph"); next = akn.NextElement(lead) {
		item, err := paragraphToItem(next, mk)
		if err != nil {
			return err
		}
		bl.AddChild(item)
	}

	if c, wrap := wrapUpAfter(lead); c != nil {
		akn.Rename(wrap, "listWrapUp")
		bl.AddChild(wrap)
		akn.Remove(c)
	}
	return nil
}

// wrapUpAfter returns the wrapUp or anonymous container directly after
// the absorbed paragraphs, and its p, when it reads as the list's
// wrap-up: a single p without a definition that does not itself lead
// into more paragraphs.
func wrapUpAfter(lead *etree.Element) (*etree.Element, *etree.Element) {
	c := akn.NextElement(lead)
	if !akn.Is(c, "wrapUp") && !isAnonymousContainer(c) {
		return nil, nil
	}
	if akn.Is(akn.NextElement(c), "paragraph", "subparagraph") {
		return nil, nil
	}
	holder := leadHolder(c)
	if holder == nil {
		return nil, nil
	}
	kids := holder.ChildElements()
	if len(kids) != 1 || len(significant(holder.Child)) != 1 || akn.HasDescendant(kids[0], "def") {
		return nil, nil
	}
	return c, kids[0]
}

// definitionRef is the refersTo of p itself or else of its first def.
func definitionRef(p *etree.Element) string {
	if r := p.SelectAttrValue("refersTo", ""); r != "" {
		return r
	}
	if defs := akn.Descendants(p, "def"); len(defs) > 0 {
		return defs[0].SelectAttrValue("refersTo", "")
	}
	return ""
}

func paragraphToItem(para *etree.Element, mk akn.Maker) (*etree.Element, error) {
	var hier []*etree.Element
	for _, c := range para.ChildElements() {
		if !akn.Is(c, "num", "heading", "subheading", "intro", "wrapUp", "content") {
			hier = append(hier, c)
		}
	}

	if len(hier) == 0 {
		akn.Rename(para, "item")
		for _, c := range akn.Children(para, "content") {
			akn.Graduate(c)
		}
		return para, nil
	}

	for _, c := range hier {
		if akn.Is(c, "hcontainer") {
			return nil, doNotMigrate("hcontainers amongst paragraph children")
		}
		if !akn.Is(c, "paragraph", "subparagraph") {
			return nil, doNotMigrate("unsupported %s amongst paragraph children", c.Tag)
		}
	}

	nested := mk.Element("blockList")
	if intro := akn.Child(para, "intro"); intro != nil {
		p, err := singleParagraph(intro)
		if err != nil {
			return nil, err
		}
		if r := definitionRef(p); r != "" {
			nested.CreateAttr("refersTo", r)
		}
		p.RemoveAttr("refersTo")
		akn.Rename(p, "listIntroduction")
		nested.AddChild(p)
		akn.Remove(intro)
	}
	for _, c := range hier {
		item, err := paragraphToItem(c, mk)
		if err != nil {
			return nil, err
		}
		nested.AddChild(item)
	}
	if wrap := akn.Child(para, "wrapUp"); wrap != nil {
		p, err := singleParagraph(wrap)
		if err != nil {
			return nil, err
		}
		akn.Rename(p, "listWrapUp")
		nested.AddChild(p)
		akn.Remove(wrap)
	}
	for _, c := range akn.Children(para, "content") {
		akn.Graduate(c)
	}

	akn.Rename(para, "item")
	para.AddChild(nested)
	return para, nil
}

// singleParagraph returns the only p of an intro or wrapUp.
func singleParagraph(e *etree.Element) (*etree.Element, error) {
	kids := e.ChildElements()
	if len(kids) != 1 || !akn.Is(kids[0], "p") || len(significant(e.Child)) != 1 {
		return nil, doNotMigrate("multi-line or complex %s", e.Tag)
	}
	return kids[0], nil
}

// reshape gathers the block children of el into a single content placed
// after its num, heading and subheading.
func reshape(el *etree.Element) error {
	for _, c := range el.ChildElements() {
		switch {
		case akn.Is(c, "num", "heading", "subheading", "intro", "wrapUp", "blockList"):
		case akn.Is(c, "hcontainer"):
			if !isAnonymousContainer(c) {
				return doNotMigrate("complex hcontainer in definitions")
			}
		default:
			return doNotMigrate("other stuff in container: %s", c.Tag)
		}
	}

	content := akn.MakerFor(el).Element("content")
	pos := 0
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "num", "heading", "subheading":
			pos = c.Index() + 1
		case "intro", "wrapUp":
			akn.MoveChildren(c, content)
			akn.Remove(c)
		case "hcontainer":
			akn.MoveChildren(akn.Child(c, "content"), content)
			akn.Remove(c)
		case "blockList":
			content.AddChild(c)
		}
	}
	el.InsertChildAt(pos, content)
	return nil
}

// DefsParaToBlocklist is the standalone migration for documents that
// already have the new shape but hold definitions as paragraphs.
type DefsParaToBlocklist struct {
	Eids   EidRewriter
	Logger *slog.Logger
}

// NewDefsParaToBlocklist returns the migration with the default eId
// generator.
func NewDefsParaToBlocklist() *DefsParaToBlocklist {
	return &DefsParaToBlocklist{Eids: eid.Generator{}}
}

func (m *DefsParaToBlocklist) Name() string { return "defs-para-to-blocklist" }

// Migrate converts definitions and regenerates eIds. Documents without
// paragraph definitions come back unchanged.
func (m *DefsParaToBlocklist) Migrate(xml []byte) (*Result, error) {
	doc, err := akn.Parse(xml)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if !ShouldMigrateDefs(root) {
		return &Result{Changed: false, Doc: doc}, nil
	}

	changed, err := DefsParaToBlocklistPass(root)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Result{Changed: false, Doc: doc}, nil
	}

	eids := m.Eids.Rewrite(root)
	UpdateInternalRefs(root, eids)
	if m.Logger != nil {
		m.Logger.Debug("migrated document", "migration", m.Name(), "eids", eids.Len())
	}
	return &Result{Changed: true, Doc: doc, Eids: eids}, nil
}
