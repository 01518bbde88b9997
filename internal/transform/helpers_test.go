package transform

import (
	"testing"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

func parse(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc, err := akn.ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func serialise(t *testing.T, doc *etree.Document) string {
	t.Helper()
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("serialise: %v", err)
	}
	return s
}

// transformString parses in, runs fn on the root and serialises the result.
func transformString(t *testing.T, in string, fn func(root *etree.Element)) string {
	t.Helper()
	doc := parse(t, in)
	fn(doc.Root())
	return serialise(t, doc)
}
