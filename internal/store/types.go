package store

import "time"

// Work is a piece of legislation identified by its FRBR work URI.
type Work struct {
	ID       int64
	FRBRURI  string
	Country  string
	Locality string
	Doctype  string
}

// Document is one expression of a work.
type Document struct {
	ID             int64
	WorkID         int64
	Language       string
	ExpressionDate string
	XML            string
}

// Version is a stored historical revision of a document. Data is the
// serialised revision payload; see DecodeVersionXML.
type Version struct {
	ID           int64
	DocumentID   int64
	RevisionDate time.Time
	UserID       int64
	Comment      string
	Data         []byte
}

// Commencement lists the provisions (by eId) a commencement brings
// into force.
type Commencement struct {
	ID            int64
	WorkID        int64
	AllProvisions bool
	Provisions    []string
}

// Scope selects the works of a run. At most one field is set; the
// zero value selects every work.
type Scope struct {
	Work    string // one work FRBR URI
	Place   string // country or country-locality code, localities excluded for a bare country
	Country string // country code including all its localities
}
