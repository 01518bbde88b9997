package transform

import (
	"bytes"
	"testing"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

const legacyAct = `<akomaNtoso xmlns="http://www.akomantoso.org/2.0"><act contains="singleVersion">` +
	`<meta><identification source="#slaw">` +
	`<FRBRWork><FRBRthis value="/akn/za/act/2009/1/!main"/><FRBRuri value="/akn/za/act/2009/1"/></FRBRWork>` +
	`<FRBRExpression><FRBRthis value="/akn/za/act/2009/1/eng@2010-01-01/!main"/><FRBRlanguage language="eng"/></FRBRExpression>` +
	`<FRBRManifestation><FRBRthis value="/akn/za/act/2009/1/eng@2010-01-01/!main"/></FRBRManifestation></identification>` +
	`<references source="#slaw"><TLCOrganization id="slaw" href="/ontology/organization/za/slaw" showAs="Slaw"/>` +
	`<TLCTerm id="term-fee" href="/ontology/term/this.eng.fee" showAs="fee"/></references></meta>` +
	`<body>` +
	`<section id="section-1"><num>1.</num><heading>Definitions</heading><content>` +
	`<p>In this Act -</p>` +
	`<blockList id="section-1.list0" refersTo="#term-fee"><listIntroduction><def refersTo="#term-fee">fee</def> means -</listIntroduction>` +
	`<item id="section-1.list0.a"><num>(a)</num><p>a charge; or</p></item>` +
	`<item id="section-1.list0.b"><num>(b)</num><p>a levy, see <ref href="#section-2">section 2</ref>;</p></item>` +
	`</blockList></content></section>` +
	`<section id="section-2"><num>2.</num><heading>Fees</heading><content>` +
	`<p>Pay <img src="media/a b.png"/> now.</p>` +
	`<table id="section-2.table0"><tr><td><p>a<br/>b</p></td></tr></table>` +
	`</content></section>` +
	`</body></act></akomaNtoso>`

func TestSlawToBluebell(t *testing.T) {
	m := NewSlawToBluebell(testPlatform)
	res, err := m.Migrate([]byte(legacyAct))
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !res.Changed {
		t.Fatal("expected document to change")
	}
	root := res.Doc.Root()

	if ns := root.SelectAttrValue("xmlns", ""); ns != akn.Namespace {
		t.Fatalf("expected AKN 3.0 namespace, got: %s", ns)
	}
	for _, e := range akn.Descendants(root) {
		if e.SelectAttr("id") != nil {
			t.Fatalf("legacy id attribute left on %s", e.Tag)
		}
	}

	// Definitions come back as a blockList carrying the term.
	lists := akn.Descendants(root, "blockList")
	if len(lists) != 1 {
		t.Fatalf("expected one blockList, got %d", len(lists))
	}
	def := akn.Descendants(akn.Child(lists[0], "listIntroduction"), "def")[0]
	if got, want := lists[0].SelectAttrValue("refersTo", ""), def.SelectAttrValue("refersTo", ""); got != want {
		t.Fatalf("expected blockList refersTo %s, got %s", want, got)
	}
	if n := len(akn.Children(lists[0], "item")); n != 2 {
		t.Fatalf("expected 2 items, got %d", n)
	}

	// Every eId outside meta is a value of the map.
	values := make(map[string]bool)
	for _, v := range res.Eids.Values() {
		values[v] = true
	}
	body := akn.Descendants(root, "body")[0]
	for _, e := range akn.Descendants(body) {
		if id := e.SelectAttrValue("eId", ""); id != "" && !values[id] {
			t.Fatalf("eId %s missing from map", id)
		}
	}
	if got, _ := res.Eids.Get("section-1.list0.b"); got != "sec_1__list_1__item_b" {
		t.Fatalf("unexpected mapping for section-1.list0.b: %s", got)
	}

	ref := akn.Descendants(root, "ref")[0]
	if href := ref.SelectAttrValue("href", ""); href != "#sec_2" {
		t.Fatalf("expected reference to #sec_2, got: %s", href)
	}
	img := akn.Descendants(root, "img")[0]
	if src := img.SelectAttrValue("src", ""); src != "media/a%20b.png" {
		t.Fatalf("expected encoded src, got: %s", src)
	}
	if n := len(akn.Descendants(akn.Descendants(root, "td")[0], "p")); n != 2 {
		t.Fatalf("expected table cell split into 2 paragraphs, got %d", n)
	}

	orgs := 0
	for _, org := range akn.Descendants(root, "TLCOrganization") {
		if org.SelectAttrValue("eId", "") == testPlatform.ID {
			orgs++
		}
		if org.SelectAttrValue("eId", "") == "slaw" {
			t.Fatal("legacy organisation left in references")
		}
	}
	if orgs != 1 {
		t.Fatalf("expected one platform organisation, got %d", orgs)
	}
}

func TestSlawToBluebellIdempotent(t *testing.T) {
	m := NewSlawToBluebell(testPlatform)
	first, err := m.Migrate([]byte(legacyAct))
	if err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	out, err := first.Doc.WriteToBytes()
	if err != nil {
		t.Fatalf("serialise: %v", err)
	}
	second, err := m.Migrate(out)
	if err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	a, err := akn.Canonicalise(first.Doc)
	if err != nil {
		t.Fatalf("canonicalise: %v", err)
	}
	b, err := akn.Canonicalise(second.Doc)
	if err != nil {
		t.Fatalf("canonicalise: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("migration is not idempotent\nfirst:\n%s\nsecond:\n%s", a, b)
	}
	for _, pair := range second.Eids.Changed() {
		t.Errorf("eId changed on second run: %s -> %s", pair[0], pair[1])
	}
}

func TestSlawToBluebellRejectsBadXML(t *testing.T) {
	if _, err := NewSlawToBluebell(testPlatform).Migrate([]byte("not xml")); err == nil {
		t.Fatal("expected error for unparseable input")
	}
}
