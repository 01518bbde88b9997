package transform

import (
	"testing"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/eid"
)

var testPlatform = Platform{ID: "laws-africa", Href: "https://edit.laws.africa", ShowAs: "Laws.Africa"}

func TestUpdateInternalRefs(t *testing.T) {
	m := eid.NewMap()
	m.Set("sec_1__para_a", "sec_1__para_b")
	in := `<p><ref href="#sec_1__para_a">a</ref><ref href="#missing">m</ref><ref href="/akn/za/act/2009/1">act</ref></p>`
	want := `<p><ref href="#sec_1__para_b">a</ref><ref href="#missing">m</ref><ref href="/akn/za/act/2009/1">act</ref></p>`

	got := transformString(t, in, func(root *etree.Element) { UpdateInternalRefs(root, m) })
	if got != want {
		t.Fatalf("unexpected output\nexpected: %s\ngot:      %s", want, got)
	}
}

func TestEncodeSpaces(t *testing.T) {
	in := `<p><img src="media/a b.png"/><ref href="/akn/za/act/2009/1 x">x</ref><ref href="#ok">y</ref></p>`
	want := `<p><img src="media/a%20b.png"/><ref href="/akn/za/act/2009/1%20x">x</ref><ref href="#ok">y</ref></p>`

	got := transformString(t, in, EncodeSpaces)
	if got != want {
		t.Fatalf("unexpected output\nexpected: %s\ngot:      %s", want, got)
	}
}

func TestUpdateSource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "replace legacy and unreferenced sources",
			in: `<akomaNtoso><act><meta>` +
				`<identification source="#cobalt"><FRBRWork/></identification>` +
				`<lifecycle source="#indigo"><eventRef date="2009-01-01" eId="e1" source="#original" type="generation"/></lifecycle>` +
				`<references source="#cobalt">` +
				`<TLCOrganization eId="cobalt" href="/ontology/organization/za/cobalt" showAs="cobalt"/>` +
				`<TLCOrganization eId="indigo" href="/ontology/organization/za/indigo" showAs="Indigo"/>` +
				`<TLCOrganization eId="govt" href="/ontology/organization/za/govt" showAs="Govt"/>` +
				`</references></meta><body/></act></akomaNtoso>`,
			want: `<akomaNtoso><act><meta>` +
				`<identification source="#laws-africa"><FRBRWork/></identification>` +
				`<lifecycle source="#laws-africa"><eventRef date="2009-01-01" eId="e1" source="#original" type="generation"/></lifecycle>` +
				`<references source="#laws-africa">` +
				`<TLCOrganization eId="laws-africa" href="https://edit.laws.africa" showAs="Laws.Africa"/>` +
				`<TLCOrganization eId="govt" href="/ontology/organization/za/govt" showAs="Govt"/>` +
				`</references></meta><body/></act></akomaNtoso>`,
		},
		{
			name: "leave other blocks with their own source",
			in: `<akomaNtoso><act><meta>` +
				`<identification source="#govt"><FRBRWork/></identification>` +
				`<classification source="#govt"><keyword value="x" showAs="x" dictionary="#govt"/></classification>` +
				`<references source="#editor">` +
				`<TLCOrganization eId="editor" href="/ontology/organization/za/editor" showAs="Editor"/>` +
				`<TLCOrganization eId="govt" href="/ontology/organization/za/govt" showAs="Govt"/>` +
				`</references></meta><body/></act></akomaNtoso>`,
			want: `<akomaNtoso><act><meta>` +
				`<identification source="#laws-africa"><FRBRWork/></identification>` +
				`<classification source="#govt"><keyword value="x" showAs="x" dictionary="#govt"/></classification>` +
				`<references source="#laws-africa">` +
				`<TLCOrganization eId="laws-africa" href="https://edit.laws.africa" showAs="Laws.Africa"/>` +
				`<TLCOrganization eId="govt" href="/ontology/organization/za/govt" showAs="Govt"/>` +
				`</references></meta><body/></act></akomaNtoso>`,
		},
		{
			name: "add missing references",
			in: `<akomaNtoso><act><meta><identification source="#slaw"><FRBRWork/></identification>` +
				`<publication source="#gazette" date="2009-01-01" name="Gazette" showAs="Gazette"/>` +
				`<notes source="#gazette"/></meta><body/></act></akomaNtoso>`,
			want: `<akomaNtoso><act><meta><identification source="#laws-africa"><FRBRWork/></identification>` +
				`<publication source="#gazette" date="2009-01-01" name="Gazette" showAs="Gazette"/>` +
				`<references source="#laws-africa"><TLCOrganization eId="laws-africa" href="https://edit.laws.africa" showAs="Laws.Africa"/></references>` +
				`<notes source="#gazette"/></meta><body/></act></akomaNtoso>`,
		},
		{
			name: "keep one platform organisation",
			in: `<akomaNtoso><act><meta><references source="#laws-africa">` +
				`<TLCOrganization eId="laws-africa" href="https://old" showAs="Old"/>` +
				`<TLCOrganization eId="laws-africa" href="https://dup" showAs="Dup"/>` +
				`<TLCOrganization eId="slaw-old" href="https://example.com/slaw/x" showAs="Slaw"/>` +
				`</references></meta><body/></act></akomaNtoso>`,
			want: `<akomaNtoso><act><meta><references source="#laws-africa">` +
				`<TLCOrganization eId="laws-africa" href="https://edit.laws.africa" showAs="Laws.Africa"/>` +
				`</references></meta><body/></act></akomaNtoso>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := func(root *etree.Element) { UpdateSource(root, testPlatform) }
			got := transformString(t, tt.in, update)
			if got != tt.want {
				t.Fatalf("unexpected output\nexpected: %s\ngot:      %s", tt.want, got)
			}
			if again := transformString(t, got, update); again != got {
				t.Fatalf("expected a second run to be a no-op, got: %s", again)
			}
		})
	}
}
