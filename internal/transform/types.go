package transform

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/eid"
)

// Migration rewrites a serialised AKN document.
type Migration interface {
	Name() string
	Migrate(xml []byte) (*Result, error)
}

// Result is the outcome of a successful migration. Eids is nil when the
// migration did not regenerate eIds.
type Result struct {
	Changed bool
	Doc     *etree.Document
	Eids    *eid.Map
}

// EidRewriter recomputes the eIds of a tree and reports old -> new.
type EidRewriter interface {
	Rewrite(root *etree.Element) *eid.Map
}

// Platform identifies the organisation recorded as the source of
// migrated metadata.
type Platform struct {
	ID     string
	Href   string
	ShowAs string
}

// SkipKind distinguishes why a document was not migrated.
type SkipKind int

const (
	// SkipSemantic means the document has a shape the migration cannot handle.
	SkipSemantic SkipKind = iota
	// SkipConfigured means the document was excluded by configuration.
	SkipConfigured
)

func (k SkipKind) String() string {
	if k == SkipConfigured {
		return "configured"
	}
	return "semantic"
}

// DoNotMigrate rejects a single document. The caller discards the tree,
// records the document for manual attention and carries on.
type DoNotMigrate struct {
	Reason string
	Kind   SkipKind
}

func (e *DoNotMigrate) Error() string {
	return fmt.Sprintf("do not migrate (%s): %s", e.Kind, e.Reason)
}

func doNotMigrate(format string, args ...any) error {
	return &DoNotMigrate{Reason: fmt.Sprintf(format, args...), Kind: SkipSemantic}
}
