package check

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/parser"
	"github.com/laws-africa/akn-migrate/internal/stylesheet"
)

// Stability checks that a migrated document is a fixed point of the
// reference parser: unparsing it and parsing the text again must give
// the same canonical XML.
type Stability struct {
	Parser parser.Parser
	Sheets *stylesheet.Set
}

// StabilityResult carries the canonical diff; it is empty when stable.
type StabilityResult struct {
	Stable bool
	Diff   string
}

func (s *Stability) Check(ctx context.Context, doc *etree.Document, frbrURI, doctype string) (*StabilityResult, error) {
	xml, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialise: %w", err)
	}
	text, err := s.Parser.Unparse(ctx, xml)
	if err != nil {
		return nil, fmt.Errorf("unparse: %w", err)
	}
	reparsed, err := s.Parser.Parse(ctx, text, frbrURI, doctype)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	again, err := akn.Parse(reparsed)
	if err != nil {
		return nil, fmt.Errorf("read parser output: %w", err)
	}

	// TLCTerm does not survive a re-parse.
	want, err := akn.Canonicalise(s.Sheets.ComparePrep.Apply(doc))
	if err != nil {
		return nil, err
	}
	got, err := akn.Canonicalise(s.Sheets.ComparePrep.Apply(again))
	if err != nil {
		return nil, err
	}

	diff := Diff(string(want), string(got), "migrated", "reparsed")
	return &StabilityResult{Stable: diff == "", Diff: diff}, nil
}

// Diff returns a unified diff of a and b, or "" when they are equal.
func Diff(a, b, fromName, toName string) string {
	if a == b {
		return ""
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return out
}
