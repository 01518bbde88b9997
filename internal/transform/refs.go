package transform

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/samber/lo"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/eid"
)

// UpdateInternalRefs points every fragment reference at the new eId of
// its target. Unknown targets are left as they are.
func UpdateInternalRefs(root *etree.Element, m *eid.Map) {
	for _, ref := range akn.Descendants(root, "ref") {
		href := ref.SelectAttrValue("href", "")
		if strings.HasPrefix(href, "#") {
			ref.CreateAttr("href", "#"+m.Lookup(href[1:]))
		}
	}
}

// EncodeSpaces percent-encodes spaces in img/@src and ref/@href.
func EncodeSpaces(root *etree.Element) {
	for _, e := range akn.Descendants(root, "img", "ref") {
		key := "href"
		if e.Tag == "img" {
			key = "src"
		}
		if a := e.SelectAttr(key); a != nil && strings.Contains(a.Value, " ") {
			e.CreateAttr(key, strings.ReplaceAll(a.Value, " ", "%20"))
		}
	}
}

// legacyOrganisations are organisations recorded by the old tooling.
var legacyOrganisations = []string{"slaw", "cobalt"}

// metaOrder is the schema order of the meta children that may precede
// references.
var metaOrder = []string{"identification", "publication", "classification", "lifecycle", "workflow", "analysis", "temporalData"}

// sourcedBlocks are the meta children whose source is the platform.
var sourcedBlocks = []string{"identification", "lifecycle", "references"}

// UpdateSource makes the platform the source of the identification,
// lifecycle and references blocks. Each meta gets a references element
// holding exactly one platform TLCOrganization. Organisations that only
// served as the old source of those blocks, or that belong to the legacy
// tooling, are removed.
func UpdateSource(root *etree.Element, p Platform) {
	source := "#" + p.ID
	for _, meta := range akn.Descendants(root, "meta") {
		var previous []string
		for _, c := range akn.Children(meta, sourcedBlocks...) {
			if a := c.SelectAttr("source"); a != nil {
				previous = append(previous, strings.TrimPrefix(a.Value, "#"))
			}
			c.CreateAttr("source", source)
		}

		refs := akn.Child(meta, "references")
		if refs == nil {
			refs = akn.MakerFor(meta).Element("references", "source", source)
			insertReferences(meta, refs)
		}

		used := referencedIDs(root)
		var platform *etree.Element
		for _, org := range akn.Children(refs, "TLCOrganization") {
			id := org.SelectAttrValue("eId", "")
			switch {
			case id == p.ID && platform == nil:
				platform = org
			case id == p.ID:
				akn.Remove(org)
			case lo.Contains(legacyOrganisations, id) || isLegacyHref(org.SelectAttrValue("href", "")):
				akn.Remove(org)
			case lo.Contains(previous, id) && !used[id]:
				akn.Remove(org)
			}
		}
		if platform == nil {
			platform = akn.MakerFor(refs).Element("TLCOrganization", "eId", p.ID)
			refs.InsertChildAt(0, platform)
		}
		platform.CreateAttr("href", p.Href)
		platform.CreateAttr("showAs", p.ShowAs)
	}
}

func isLegacyHref(href string) bool {
	return lo.SomeBy(legacyOrganisations, func(name string) bool {
		return strings.Contains(href, "/"+name)
	})
}

func insertReferences(meta, refs *etree.Element) {
	if prev := akn.LastChild(meta, metaOrder...); prev != nil {
		akn.InsertAfter(prev, refs)
		return
	}
	meta.InsertChildAt(0, refs)
}

// referencedIDs collects fragment ids still referenced by any attribute.
func referencedIDs(root *etree.Element) map[string]bool {
	used := make(map[string]bool)
	collect := func(e *etree.Element) {
		for _, a := range e.Attr {
			if strings.HasPrefix(a.Value, "#") {
				used[a.Value[1:]] = true
			}
		}
	}
	collect(root)
	for _, e := range akn.Descendants(root) {
		collect(e)
	}
	return used
}
