// Package akn is a small query and construction layer over etree for
// Akoma Ntoso 3.0 documents.
//
// Element text and tails are CharData tokens in etree, so moving an
// element never drags surrounding text with it. Helpers here work on
// local tag names; every element of a migrated document is expected to
// resolve to Namespace.
package akn

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// Namespace is the AKN 3.0 namespace.
const Namespace = "http://docs.oasis-open.org/legaldocml/ns/akn/3.0"

// LegacyNamespace is the AKN 2.0 namespace some older documents still use.
const LegacyNamespace = "http://www.akomantoso.org/2.0"

// Parse reads an XML document and rejects documents without a root.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("parse xml: no root element")
	}
	return doc, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*etree.Document, error) {
	return Parse([]byte(s))
}

// Serialise writes the document without reformatting it.
func Serialise(doc *etree.Document) ([]byte, error) {
	b, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialise xml: %w", err)
	}
	return b, nil
}

// SerialiseElement writes a single element subtree.
func SerialiseElement(e *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialise element: %w", err)
	}
	return s, nil
}

// Maker builds elements in the same namespace prefix as an existing
// document, so new nodes never pick up a foreign namespace.
type Maker struct {
	Space string
}

// MakerFor returns a Maker matching the prefix used by e.
func MakerFor(e *etree.Element) Maker {
	return Maker{Space: e.Space}
}

// Element creates a detached element. attrs are key/value pairs.
func (m Maker) Element(tag string, attrs ...string) *etree.Element {
	el := etree.NewElement(tag)
	el.Space = m.Space
	for i := 0; i+1 < len(attrs); i += 2 {
		el.CreateAttr(attrs[i], attrs[i+1])
	}
	return el
}
