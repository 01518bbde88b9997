package check

import (
	"context"
	"strings"
	"testing"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/stylesheet"
)

const fingerprintDoc = `<akomaNtoso xmlns="http://docs.oasis-open.org/legaldocml/ns/akn/3.0"><act><body>` +
	`<section eId="sec_1"><num>1.</num><heading>Fees</heading><content>` +
	`<p>Pay   the<br/><br/>fee <img src="a b.png"/> now</p>` +
	`</content></section></body></act></akomaNtoso>`

func TestFingerprint(t *testing.T) {
	got, err := Fingerprint([]byte(fingerprintDoc))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	want := "1.\nFees\nPay the\nfee IMG a%20b.png now"
	if got != want {
		t.Fatalf("expected %q, got: %q", want, got)
	}
}

func TestFingerprintInvariance(t *testing.T) {
	pretty := `<akomaNtoso xmlns="http://docs.oasis-open.org/legaldocml/ns/akn/3.0">
  <act>
    <body>
      <section eId="chp_1__sec_1">
        <num>1.</num>
        <heading>Fees</heading>
        <content>
          <p>Pay the
            <br/>
            fee <img src="a b.png"/> now</p>
        </content>
      </section>
    </body>
  </act>
</akomaNtoso>`

	a, err := Fingerprint([]byte(fingerprintDoc))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	b, err := Fingerprint([]byte(pretty))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal fingerprints\n%q\n%q", a, b)
	}
}

func TestCompareFingerprints(t *testing.T) {
	changed := strings.Replace(fingerprintDoc, "Fees", "Charges", 1)
	res, err := CompareFingerprints([]byte(fingerprintDoc), []byte(changed))
	if err != nil {
		t.Fatalf("CompareFingerprints: %v", err)
	}
	if res.Identical {
		t.Fatal("expected fingerprints to differ")
	}
	if !strings.Contains(res.Diff, "-Fees") || !strings.Contains(res.Diff, "+Charges") {
		t.Fatalf("unexpected diff: %s", res.Diff)
	}

	same, err := CompareFingerprints([]byte(fingerprintDoc), []byte(fingerprintDoc))
	if err != nil {
		t.Fatalf("CompareFingerprints: %v", err)
	}
	if !same.Identical || same.Diff != "" {
		t.Fatalf("expected identical fingerprints, got diff: %s", same.Diff)
	}
	if same.WordsBefore != same.WordsAfter || same.WordsBefore == 0 {
		t.Fatalf("unexpected word counts: %d %d", same.WordsBefore, same.WordsAfter)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("Pay the fee now"); n != 4 {
		t.Fatalf("expected 4 words, got %d", n)
	}
	if n := WordCount(""); n != 0 {
		t.Fatalf("expected 0 words, got %d", n)
	}
}

// fakeParser echoes XML through unparse and applies edit on parse.
type fakeParser struct {
	edit func(string) string
}

func (p fakeParser) Unparse(_ context.Context, xml []byte) (string, error) {
	return string(xml), nil
}

func (p fakeParser) Parse(_ context.Context, text, _, _ string) ([]byte, error) {
	if p.edit != nil {
		text = p.edit(text)
	}
	return []byte(text), nil
}

const stabilityDoc = `<akomaNtoso xmlns="http://docs.oasis-open.org/legaldocml/ns/akn/3.0"><act>` +
	`<meta><references source="#x"><TLCTerm eId="term-fee" href="/t" showAs="fee"/></references></meta>` +
	`<body><section eId="sec_1"><num>1.</num><content><p>x</p></content></section></body></act></akomaNtoso>`

func TestStability(t *testing.T) {
	dropTerms := func(s string) string {
		return strings.Replace(s, `<TLCTerm eId="term-fee" href="/t" showAs="fee"/>`, "", 1)
	}
	tests := []struct {
		name   string
		edit   func(string) string
		stable bool
	}{
		{"identity", nil, true},
		{"terms lost", dropTerms, true},
		{"renumbered", func(s string) string { return strings.Replace(s, "<num>1.</num>", "<num>2.</num>", 1) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := akn.ParseString(stabilityDoc)
			if err != nil {
				t.Fatal(err)
			}
			s := &Stability{Parser: fakeParser{edit: tt.edit}, Sheets: stylesheet.Compile()}
			res, err := s.Check(context.Background(), doc, "/akn/za/act/2009/1", "act")
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if res.Stable != tt.stable {
				t.Fatalf("expected stable=%v, diff:\n%s", tt.stable, res.Diff)
			}
			if !tt.stable && !strings.Contains(res.Diff, "+++ reparsed") {
				t.Fatalf("expected unified diff, got: %s", res.Diff)
			}
		})
	}
}
