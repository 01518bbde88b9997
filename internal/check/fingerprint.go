// Package check holds the post-migration diagnostics: the content
// fingerprint, which must survive a migration unchanged, and the
// stability check, which round-trips a document through the reference
// parser.
package check

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/blevesearch/segment"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/transform"
)

// fingerprintTags are the elements whose text makes up a fingerprint.
var fingerprintTags = []string{"p", "heading", "subheading", "num", "crossHeading", "listIntroduction", "listWrapUp"}

var lineBreaks = regexp.MustCompile(`(?:\s*<(?:br|eol)(?:\s[^>]*)?/>)+`)

// Fingerprint projects a document onto its visible text, one line per
// block and line break, with whitespace collapsed and empty lines
// dropped. Structure, attributes and eIds do not contribute.
func Fingerprint(xml []byte) (string, error) {
	s := transform.Preclean(string(xml))
	s = lineBreaks.ReplaceAllString(s, "\n")
	doc, err := akn.ParseString(s)
	if err != nil {
		return "", err
	}
	root := doc.Root()

	for _, img := range akn.Descendants(root, "img") {
		src := strings.ReplaceAll(img.SelectAttrValue("src", ""), " ", "%20")
		parent := img.Parent()
		idx := img.Index()
		parent.RemoveChildAt(idx)
		parent.InsertChildAt(idx, etree.NewText("IMG "+src))
	}

	var lines []string
	for _, e := range akn.Descendants(root, fingerprintTags...) {
		for _, line := range strings.Split(akn.Text(e), "\n") {
			if line = strings.Join(strings.Fields(line), " "); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// WordCount counts the words of a fingerprint.
func WordCount(fingerprint string) int {
	seg := segment.NewWordSegmenter(strings.NewReader(fingerprint))
	count := 0
	for seg.Segment() {
		if seg.Type() != segment.None {
			count++
		}
	}
	return count
}

// FingerprintResult compares the fingerprints of a document before and
// after migration.
type FingerprintResult struct {
	Identical   bool
	WordsBefore int
	WordsAfter  int
	Diff        string
}

// CompareFingerprints fingerprints both versions of a document.
func CompareFingerprints(before, after []byte) (*FingerprintResult, error) {
	a, err := Fingerprint(before)
	if err != nil {
		return nil, err
	}
	b, err := Fingerprint(after)
	if err != nil {
		return nil, err
	}
	return &FingerprintResult{
		Identical:   a == b,
		WordsBefore: WordCount(a),
		WordsAfter:  WordCount(b),
		Diff:        Diff(a+"\n", b+"\n", "before", "after"),
	}, nil
}
