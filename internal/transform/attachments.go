package transform

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/frbr"
)

// NameAttachments gives every attachment a work component of the form
// name_k (k counting same-named siblings from 1, nested attachments
// prefixed by their parent's component), updates the attachment's FRBR
// URIs to match and sets its alias from the attachment heading.
func NameAttachments(root *etree.Element) error {
	docEl := documentElement(root)
	if docEl == nil || akn.Child(docEl, "attachments") == nil {
		return nil
	}
	base, err := documentURI(docEl)
	if err != nil {
		return err
	}
	nameAttachments(docEl, base, "")
	return nil
}

func nameAttachments(container *etree.Element, base frbr.URI, parent string) {
	for _, atts := range akn.Children(container, "attachments") {
		seen := make(map[string]int)
		for _, att := range akn.Children(atts, "attachment") {
			doc := akn.Child(att, "doc", "act", "bill", "judgment", "debateReport", "statement", "portion")
			if doc == nil {
				continue
			}
			name := doc.SelectAttrValue("name", "attachment")
			seen[name]++
			component := name + "_" + strconv.Itoa(seen[name])
			if parent != "" {
				component = parent + "/" + component
			}

			setFRBR(doc, base.WithComponent(component))
			if heading := attachmentHeading(att, doc); heading != "" {
				setAlias(doc, heading)
			}
			nameAttachments(doc, base, component)
		}
	}
}

// documentElement returns the top-level document (act, bill, doc...)
// below akomaNtoso, or root itself when it already is one.
func documentElement(root *etree.Element) *etree.Element {
	if akn.Is(root, "akomaNtoso") {
		return akn.Child(root)
	}
	return root
}

func identification(doc *etree.Element) *etree.Element {
	meta := akn.Child(doc, "meta")
	if meta == nil {
		return nil
	}
	return akn.Child(meta, "identification")
}

func frbrThis(ident *etree.Element, level string) *etree.Element {
	if ident == nil {
		return nil
	}
	if l := akn.Child(ident, level); l != nil {
		return akn.Child(l, "FRBRthis")
	}
	return nil
}

// documentURI reads the expression URI of the main document, falling
// back to the work URI plus language and date.
func documentURI(doc *etree.Element) (frbr.URI, error) {
	ident := identification(doc)
	if this := frbrThis(ident, "FRBRExpression"); this != nil {
		if u, err := frbr.Parse(this.SelectAttrValue("value", "")); err == nil {
			return u.WithComponent(""), nil
		}
	}
	this := frbrThis(ident, "FRBRWork")
	if this == nil {
		return frbr.URI{}, doNotMigrate("document has no FRBR work URI")
	}
	u, err := frbr.Parse(this.SelectAttrValue("value", ""))
	if err != nil {
		return frbr.URI{}, doNotMigrate("unparseable FRBR URI: %v", err)
	}
	if expr := akn.Child(ident, "FRBRExpression"); expr != nil {
		if lang := akn.Child(expr, "FRBRlanguage"); lang != nil {
			u.Language = lang.SelectAttrValue("language", "")
		}
		if date := akn.Child(expr, "FRBRdate"); date != nil {
			u.ExpressionDate = date.SelectAttrValue("date", "")
		}
	}
	return u.WithComponent(""), nil
}

func setFRBR(doc *etree.Element, u frbr.URI) {
	ident := identification(doc)
	if this := frbrThis(ident, "FRBRWork"); this != nil {
		this.CreateAttr("value", u.WorkURI())
	}
	if this := frbrThis(ident, "FRBRExpression"); this != nil {
		this.CreateAttr("value", u.ExpressionURI())
	}
	if this := frbrThis(ident, "FRBRManifestation"); this != nil {
		this.CreateAttr("value", u.ManifestationURI())
	}
}

// attachmentHeading is the text of the attachment's own heading, or of
// the heading of the first container in its main body.
func attachmentHeading(att, doc *etree.Element) string {
	h := akn.Child(att, "heading")
	if h == nil {
		if body := akn.Child(doc, "mainBody"); body != nil {
			if first := akn.Child(body); akn.Is(first, "hcontainer") {
				h = akn.Child(first, "heading")
			}
		}
	}
	if h == nil {
		return ""
	}
	return strings.TrimSpace(akn.Text(h))
}

func setAlias(doc *etree.Element, alias string) {
	ident := identification(doc)
	if ident == nil {
		return
	}
	work := akn.Child(ident, "FRBRWork")
	if work == nil {
		return
	}
	if a := akn.Child(work, "FRBRalias"); a != nil {
		a.CreateAttr("value", alias)
		return
	}
	a := akn.MakerFor(work).Element("FRBRalias", "value", alias, "name", "title")
	if anchor := akn.LastChild(work, "FRBRthis", "FRBRuri"); anchor != nil {
		akn.InsertAfter(anchor, a)
	} else {
		work.InsertChildAt(0, a)
	}
}
