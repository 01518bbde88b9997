// Package stylesheet holds the compiled tree transforms used by the
// migrations. Each stylesheet is a table of templates keyed by element
// name and is a pure function: Apply works on a copy and never touches
// its input. Compile builds all of them once; the result is immutable
// and safe to share.
package stylesheet

import (
	"github.com/beevik/etree"
)

// Stylesheet is a named, pure document transform.
type Stylesheet interface {
	Name() string
	Apply(doc *etree.Document) *etree.Document
}

// Set is the collection of stylesheets a migration needs.
type Set struct {
	Shape       Stylesheet
	ComparePrep Stylesheet
	Unpretty    Stylesheet
}

// Compile builds the stylesheet set.
func Compile() *Set {
	return &Set{
		Shape:       newShape(),
		ComparePrep: newComparePrep(),
		Unpretty:    newUnpretty(),
	}
}

// template rewrites a single element in place. It may rename, re-attribute,
// or detach the element; children have already been visited.
type template func(e *etree.Element)

type ruleSheet struct {
	name      string
	templates map[string]template
	// any runs on every element before the tag-specific template.
	any template
}

func (s *ruleSheet) Name() string { return s.name }

func (s *ruleSheet) Apply(doc *etree.Document) *etree.Document {
	out := doc.Copy()
	if root := out.Root(); root != nil {
		s.visit(root)
	}
	return out
}

// visit runs templates bottom-up so a template may restructure its own
// element without invalidating the walk.
func (s *ruleSheet) visit(e *etree.Element) {
	for _, c := range e.ChildElements() {
		s.visit(c)
	}
	if s.any != nil {
		s.any(e)
	}
	if t, ok := s.templates[e.Tag]; ok && e.Parent() != nil {
		t(e)
	}
}
