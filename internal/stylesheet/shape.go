package stylesheet

import (
	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

// newShape converts the structural idioms of the old parser into the
// ones emitted by the new parser.
func newShape() Stylesheet {
	return &ruleSheet{
		name: "shape",
		any:  shapeAttributes,
		templates: map[string]template{
			"components": func(e *etree.Element) { akn.Rename(e, "attachments") },
			"component":  func(e *etree.Element) { akn.Rename(e, "attachment") },
			"hcontainer": shapeCrossheading,
		},
	}
}

// shapeAttributes moves legacy namespace declarations to AKN 3.0 and
// replaces legacy id attributes with eId.
func shapeAttributes(e *etree.Element) {
	for i := range e.Attr {
		a := &e.Attr[i]
		if (a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")) && a.Value == akn.LegacyNamespace {
			a.Value = akn.Namespace
		}
	}
	if id := e.SelectAttr("id"); id != nil && id.Space == "" {
		if e.SelectAttr("eId") == nil {
			e.CreateAttr("eId", id.Value)
		}
		e.RemoveAttr("id")
	}
}

// shapeCrossheading turns <hcontainer name="crossheading"><heading>
// into <hcontainer name="hcontainer"><crossHeading>.
func shapeCrossheading(e *etree.Element) {
	if e.SelectAttrValue("name", "") != "crossheading" {
		return
	}
	e.CreateAttr("name", "hcontainer")
	for _, h := range akn.Children(e, "heading") {
		akn.Rename(h, "crossHeading")
	}
}
