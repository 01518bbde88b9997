// Package eid regenerates Akoma Ntoso eIds from document structure.
//
// Numbered elements (hierarchy and list items) take their eId from their
// num, counted elements (intros, tables, attachments and the like) from
// their position among same-kind siblings in the enclosing scope. Each
// eId is prefixed by the eId of its nearest identified ancestor, joined
// with "__". Everything inside meta is left alone.
package eid

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

var numbered = map[string]string{
	"article":      "art",
	"book":         "book",
	"chapter":      "chp",
	"clause":       "clause",
	"division":     "dvs",
	"indent":       "indent",
	"level":        "lvl",
	"list":         "list",
	"paragraph":    "para",
	"part":         "part",
	"point":        "point",
	"proviso":      "proviso",
	"rule":         "rule",
	"section":      "sec",
	"subchapter":   "subchp",
	"subclause":    "subclause",
	"subdivision":  "subdvs",
	"subparagraph": "subpara",
	"subpart":      "subpart",
	"subrule":      "subrule",
	"subsection":   "subsec",
	"subtitle":     "subtitle",
	"title":        "title",
	"tome":         "tome",
	"transitional": "transitional",
	"alinea":       "alinea",
	"item":         "item",
}

var counted = map[string]string{
	"hcontainer":        "hcontainer",
	"crossHeading":      "crossHeading",
	"blockList":         "list",
	"intro":             "intro",
	"wrapUp":            "wrapup",
	"listIntroduction":  "intro",
	"listWrapUp":        "wrapup",
	"table":             "table",
	"img":               "img",
	"attachment":        "att",
	"quotedStructure":   "qstr",
	"embeddedStructure": "estr",
}

var (
	numStrip   = regexp.MustCompile(`[()\[\]]`)
	numSpace   = regexp.MustCompile(`[\s.]+`)
	numInvalid = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// CleanNum turns a displayed number such as "(a)" or "1.2." into an
// eId fragment ("a", "1-2").
func CleanNum(num string) string {
	s := strings.TrimSpace(num)
	s = strings.TrimRight(s, ".")
	s = numStrip.ReplaceAllString(s, "")
	s = numSpace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = numInvalid.ReplaceAllString(s, "")
	return strings.Trim(s, "-")
}

// Generator rewrites eIds. It is stateless between calls.
type Generator struct{}

// Rewrite recomputes every eId below root and returns the ordered map of
// old to new eIds. Identified elements the generator does not number keep
// their eId. Every eId left in the tree appears as a value: eIds given
// to previously unidentified elements are appended as identity entries
// after all real mappings.
func (Generator) Rewrite(root *etree.Element) *Map {
	w := &walker{m: NewMap(), used: make(map[string]bool)}
	w.walk(root, "", make(map[string]int))
	for _, id := range w.fresh {
		if !w.m.Has(id) {
			w.m.Set(id, id)
		}
	}
	return w.m
}

type walker struct {
	m     *Map
	used  map[string]bool
	fresh []string
}

func (w *walker) walk(e *etree.Element, scope string, counters map[string]int) {
	for _, c := range e.ChildElements() {
		if c.Tag == "meta" {
			continue
		}
		old := c.SelectAttrValue("eId", "")

		local := w.local(c, counters)
		if local == "" {
			if old != "" {
				w.used[old] = true
				w.m.Set(old, old)
			}
			w.walk(c, scope, counters)
			continue
		}

		id := local
		if scope != "" {
			id = scope + "__" + local
		}
		id = w.unique(id)
		c.CreateAttr("eId", id)
		if old != "" {
			w.m.Set(old, id)
		} else {
			w.fresh = append(w.fresh, id)
		}
		w.walk(c, id, make(map[string]int))
	}
}

func (w *walker) local(e *etree.Element, counters map[string]int) string {
	if prefix, ok := numbered[e.Tag]; ok {
		if num := akn.Child(e, "num"); num != nil {
			if n := CleanNum(akn.Text(num)); n != "" {
				return prefix + "_" + n
			}
		}
		counters[prefix+"_nn"]++
		return prefix + "_nn_" + strconv.Itoa(counters[prefix+"_nn"])
	}
	if prefix, ok := counted[e.Tag]; ok {
		counters[prefix]++
		return prefix + "_" + strconv.Itoa(counters[prefix])
	}
	return ""
}

func (w *walker) unique(id string) string {
	if !w.used[id] {
		w.used[id] = true
		return id
	}
	for i := 2; ; i++ {
		cand := id + "_" + strconv.Itoa(i)
		if !w.used[cand] {
			w.used[cand] = true
			return cand
		}
	}
}
