package akn

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func mustParse(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestGraduateKeepsOrderAndText(t *testing.T) {
	d := mustParse(t, `<a><b>x<c/>y</b>z</a>`)
	b := Child(d.Root(), "b")
	Graduate(b)

	got, err := SerialiseElement(d.Root())
	if err != nil {
		t.Fatal(err)
	}
	if got != `<a>x<c/>yz</a>` {
		t.Fatalf("expected graduated children, got: %s", got)
	}
}

func TestSiblingNavigationSkipsText(t *testing.T) {
	d := mustParse(t, `<a><b/> text <c/> <d/></a>`)
	c := Child(d.Root(), "c")

	if n := NextElement(c); !Is(n, "d") {
		t.Fatalf("expected next sibling d, got: %v", n)
	}
	if p := PrevElement(c); !Is(p, "b") {
		t.Fatalf("expected previous sibling b, got: %v", p)
	}
	if n := NextElement(Child(d.Root(), "d")); n != nil {
		t.Fatalf("expected no sibling after d, got: %s", n.Tag)
	}
	if got := len(PrecedingSiblings(Child(d.Root(), "d"))); got != 2 {
		t.Fatalf("expected 2 preceding siblings, got %d", got)
	}
}

func TestTextCollectsDescendants(t *testing.T) {
	d := mustParse(t, `<p>a <b>bold <i>it</i></b> tail</p>`)
	if got := Text(d.Root()); got != "a bold it tail" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		xml  string
		want bool
	}{
		{`<p/>`, true},
		{`<p>  </p>`, true},
		{`<p>x</p>`, false},
		{`<p><b/></p>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.xml, func(t *testing.T) {
			d := mustParse(t, tt.xml)
			if got := IsEmpty(d.Root()); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMakerUsesDocumentPrefix(t *testing.T) {
	d := mustParse(t, `<akn:act xmlns:akn="`+Namespace+`"/>`)
	el := MakerFor(d.Root()).Element("p", "class", "x")
	d.Root().AddChild(el)

	if el.NamespaceURI() != Namespace {
		t.Fatalf("expected element in AKN namespace, got: %s", el.NamespaceURI())
	}
	if el.SelectAttrValue("class", "") != "x" {
		t.Fatal("expected class attribute")
	}
}

func TestCanonicaliseSortsAttributesAndIndents(t *testing.T) {
	d := mustParse(t, `<?xml version="1.0"?><act xmlns="`+Namespace+`" name="act" contains="originalVersion"><body><section eId="sec_1"><p>a <b>b</b></p><!-- note --></section></body></act>`)

	out, err := Canonicalise(d)
	if err != nil {
		t.Fatalf("canonicalise: %v", err)
	}
	got := string(out)

	if strings.Contains(got, "<?xml") {
		t.Fatalf("expected no xml declaration, got: %s", got)
	}
	if strings.Contains(got, "note") {
		t.Fatalf("expected comments stripped, got: %s", got)
	}
	if !strings.HasPrefix(got, `<act xmlns="`+Namespace+`" contains="originalVersion" name="act">`) {
		t.Fatalf("expected sorted attributes, got: %s", got)
	}
	if !strings.Contains(got, "\n    <section eId=\"sec_1\">\n      <p>a <b>b</b></p>\n    </section>") {
		t.Fatalf("expected indented structure with mixed content intact, got: %s", got)
	}
}

func TestCanonicaliseIsStable(t *testing.T) {
	d := mustParse(t, `<act xmlns="`+Namespace+`"><body><p>x</p><p/></body></act>`)
	first, err := Canonicalise(d)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(first)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Canonicalise(again)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected identical output\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if !strings.Contains(string(first), "<p></p>") {
		t.Fatalf("expected canonical end tags, got: %s", first)
	}
}
