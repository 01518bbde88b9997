package transform

import "regexp"

var (
	newlineRun = regexp.MustCompile(`\s*\n\s*`)
	breakRun   = regexp.MustCompile(`<br\s*/>(?:\s*<br\s*/>)+`)
)

// Preclean collapses whitespace around newlines to a single space and
// runs of adjacent <br/> to one.
func Preclean(xml string) string {
	xml = newlineRun.ReplaceAllString(xml, " ")
	return breakRun.ReplaceAllString(xml, "<br/>")
}
