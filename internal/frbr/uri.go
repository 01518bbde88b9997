// Package frbr parses and formats Akoma Ntoso FRBR URIs.
package frbr

import (
	"fmt"
	"regexp"
	"strings"
)

// URI is a parsed work, expression or manifestation URI. Prefix is
// "akn" when the URI carried the /akn prefix, and is formatted back the
// same way.
type URI struct {
	Prefix         string
	Country        string
	Locality       string
	Doctype        string
	Subtype        string
	Actor          string
	Date           string
	Number         string
	Language       string
	ExpressionDate string
	WorkComponent  string
	Format         string
}

var uriPattern = regexp.MustCompile(`^/(?:(akn)/)?([a-z]{2})(?:-([^/]+))?/([^/]+)/(?:([^0-9/][^/]*)/)?(?:([^0-9/][^/]*)/)?([0-9]{4}(?:-[0-9]{2}(?:-[0-9]{2})?)?)/([^/]+)(?:/([a-z]{3})(?:@([^/]*))?)?(?:/!(.+))?$`)

var formats = []string{"xml", "html", "pdf", "epub", "json"}

// Parse parses an FRBR URI such as /akn/za-cpt/act/by-law/2009/1/eng@2010-01-01/!schedule_1.
func Parse(s string) (URI, error) {
	var u URI
	raw := strings.TrimSpace(s)
	for _, f := range formats {
		if strings.HasSuffix(raw, "."+f) {
			u.Format = f
			raw = strings.TrimSuffix(raw, "."+f)
			break
		}
	}

	m := uriPattern.FindStringSubmatch(raw)
	if m == nil {
		return URI{}, fmt.Errorf("invalid FRBR URI: %q", s)
	}
	u.Prefix = m[1]
	u.Country = m[2]
	u.Locality = m[3]
	u.Doctype = m[4]
	u.Subtype = m[5]
	u.Actor = m[6]
	u.Date = m[7]
	u.Number = m[8]
	u.Language = m[9]
	u.ExpressionDate = m[10]
	u.WorkComponent = m[11]
	return u, nil
}

// Place returns the country code, with the locality appended when set.
func (u URI) Place() string {
	if u.Locality == "" {
		return u.Country
	}
	return u.Country + "-" + u.Locality
}

func (u URI) work() string {
	parts := []string{""}
	if u.Prefix != "" {
		parts = append(parts, u.Prefix)
	}
	parts = append(parts, u.Place(), u.Doctype)
	if u.Subtype != "" {
		parts = append(parts, u.Subtype)
	}
	if u.Actor != "" {
		parts = append(parts, u.Actor)
	}
	parts = append(parts, u.Date, u.Number)
	return strings.Join(parts, "/")
}

func (u URI) component() string {
	if u.WorkComponent == "" {
		return ""
	}
	return "/!" + u.WorkComponent
}

// WorkURI formats the work-level URI, including any component.
func (u URI) WorkURI() string {
	return u.work() + u.component()
}

// ExpressionURI formats the expression-level URI.
func (u URI) ExpressionURI() string {
	return u.work() + "/" + u.Language + "@" + u.ExpressionDate + u.component()
}

// ManifestationURI is the expression URI plus the format suffix, if any.
func (u URI) ManifestationURI() string {
	if u.Format == "" {
		return u.ExpressionURI()
	}
	return u.ExpressionURI() + "." + u.Format
}

// WithComponent returns a copy of u naming a different work component.
func (u URI) WithComponent(component string) URI {
	u.WorkComponent = component
	return u
}
