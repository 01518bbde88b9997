package stylesheet

import (
	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

// newComparePrep removes what re-parsing is known to lose, so a
// stability comparison only reports real differences.
func newComparePrep() Stylesheet {
	return &ruleSheet{
		name: "compare-prep",
		templates: map[string]template{
			"TLCTerm": func(e *etree.Element) { akn.Remove(e) },
		},
	}
}
