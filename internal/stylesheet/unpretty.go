package stylesheet

import (
	"github.com/beevik/etree"
)

// mixed lists elements whose whitespace is significant: block elements
// holding running text and every inline element.
var mixed = map[string]bool{
	"p": true, "heading": true, "subheading": true, "num": true,
	"crossHeading": true, "listIntroduction": true, "listWrapUp": true,
	"docTitle": true, "docNumber": true, "docDate": true, "docProponent": true,
	"a": true, "abbr": true, "b": true, "i": true, "u": true, "sup": true, "sub": true,
	"span": true, "inline": true, "marker": true, "remark": true, "ref": true,
	"term": true, "def": true, "date": true, "time": true, "person": true,
	"organization": true, "concept": true, "object": true, "event": true,
	"location": true, "process": true, "role": true, "quantity": true,
	"entity": true, "affectedDocument": true, "mref": true, "rref": true,
	"eol": true, "br": true, "img": true, "authorialNote": true, "quotedText": true,
	"embeddedText": true, "th": true, "td": true, "caption": true,
}

// newUnpretty drops indentation whitespace between block elements.
func newUnpretty() Stylesheet {
	return &unprettySheet{}
}

type unprettySheet struct{}

func (unprettySheet) Name() string { return "unpretty" }

func (unprettySheet) Apply(doc *etree.Document) *etree.Document {
	out := doc.Copy()
	if root := out.Root(); root != nil {
		stripIndent(root)
	}
	return out
}

func stripIndent(e *etree.Element) {
	if mixed[e.Tag] {
		return
	}
	for i := len(e.Child) - 1; i >= 0; i-- {
		if cd, ok := e.Child[i].(*etree.CharData); ok && cd.IsWhitespace() {
			e.RemoveChildAt(i)
		}
	}
	for _, c := range e.ChildElements() {
		stripIndent(c)
	}
}
