// Package transform implements the structural migrations that move
// legacy Akoma Ntoso documents to the shape emitted by the current
// parser.
//
// SlawToBluebell runs as a sequence of named stages:
//  1. Pre-clean the serialised XML and drop indentation whitespace
//  2. Apply the shape stylesheet
//  3. Split table paragraphs at <br/> and <eol/>
//  4. Remove blank paragraphs from table cells
//  5. Name attachments and set their aliases
//  6. Fix cross-headings
//  7. Convert first-level blockLists to paragraphs
//  8. Re-encode paragraph definitions as blockLists
//  9. Normalise whitespace and empty elements
//  10. Regenerate eIds
//  11. Rewrite internal references
//  12. Percent-encode spaces in img/@src and ref/@href
//  13. Point metadata sources at the platform organisation
//
// The order matters: eIds are regenerated only once the hierarchy is
// final, and references are rewritten with the resulting map.
package transform

import (
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/eid"
	"github.com/laws-africa/akn-migrate/internal/stylesheet"
)

// Doc holds the mutable state of a document as it passes through the
// migration stages.
type Doc struct {
	Tree *etree.Document
	Eids *eid.Map // set by stage 10
}

// Root returns the akomaNtoso element.
func (d *Doc) Root() *etree.Element {
	return d.Tree.Root()
}

// SlawToBluebell migrates documents produced by the old parser.
type SlawToBluebell struct {
	Platform Platform
	Sheets   *stylesheet.Set
	Eids     EidRewriter
	Logger   *slog.Logger
}

// NewSlawToBluebell compiles the stylesheets once for the lifetime of
// the migration.
func NewSlawToBluebell(platform Platform) *SlawToBluebell {
	return &SlawToBluebell{
		Platform: platform,
		Sheets:   stylesheet.Compile(),
		Eids:     eid.Generator{},
	}
}

func (m *SlawToBluebell) Name() string { return "slaw-to-bluebell" }

// Migrate runs every stage on xml. A *DoNotMigrate error rejects this
// document only.
func (m *SlawToBluebell) Migrate(xml []byte) (*Result, error) {
	doc, err := m.Pipeline(xml)
	if err != nil {
		return nil, err
	}
	return &Result{Changed: true, Doc: doc.Tree, Eids: doc.Eids}, nil
}

// Pipeline runs all migration stages and returns the final document.
func (m *SlawToBluebell) Pipeline(xml []byte) (*Doc, error) {
	// Stage 1: Pre-clean.
	tree, err := akn.ParseString(Preclean(string(xml)))
	if err != nil {
		return nil, fmt.Errorf("preclean: %w", err)
	}
	tree = m.Sheets.Unpretty.Apply(tree)

	// Stage 2: Shape.
	doc := &Doc{Tree: m.Sheets.Shape.Apply(tree)}
	root := doc.Root()

	// Stage 3: Split table paragraphs.
	TableBrToP(root, "br")
	TableBrToP(root, "eol")

	// Stage 4: Blank table paragraphs.
	TableNukeBlankPs(root)

	// Stage 5: Attachments.
	if err := NameAttachments(root); err != nil {
		return nil, err
	}

	// Stage 6: Cross-headings.
	FixCrossheadings(root)

	// Stage 7: blockLists to paragraphs.
	BlocklistToPara(root)

	// Stage 8: Definitions back to blockLists.
	if ShouldMigrateDefs(root) {
		if _, err := DefsParaToBlocklistPass(root); err != nil {
			return nil, err
		}
	}

	// Stage 9: Normalise.
	Normalise(root)

	// Stage 10: eIds.
	doc.Eids = m.Eids.Rewrite(root)

	// Stage 11: Internal references.
	UpdateInternalRefs(root, doc.Eids)

	// Stage 12: img/@src and ref/@href.
	EncodeSpaces(root)

	// Stage 13: Metadata sources.
	UpdateSource(root, m.Platform)

	if m.Logger != nil {
		m.Logger.Debug("migrated document", "migration", m.Name(), "eids", doc.Eids.Len())
	}
	return doc, nil
}
