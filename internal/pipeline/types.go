package pipeline

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/laws-africa/akn-migrate/internal/eid"
	"github.com/laws-africa/akn-migrate/internal/schema"
)

// Options control a single run.
type Options struct {
	Commit          bool
	Check           bool
	MigrateVersions bool
	SkipList        []string
	// RecordRevision stores the migrated document as a new revision
	// attributed to UserID.
	RecordRevision bool
	UserID         int64
}

// Policy decides which check failures skip a document instead of being
// reported as warnings.
type Policy struct {
	InvalidIsFatal  bool
	MismatchIsFatal bool
}

// Status is the outcome for one document.
type Status string

const (
	StatusMigrated  Status = "migrated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
)

// Warning is a non-fatal finding. URL points at the stored diff, if any.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// DocReport is the diagnostic for one document. Valid, Stable and
// Identical are nil when the check did not run. Before and After point
// at the stored canonical documents when a check left a diff.
type DocReport struct {
	DocID       int64                    `json:"doc_id"`
	Work        string                   `json:"work"`
	Status      Status                   `json:"status"`
	Reason      string                   `json:"reason,omitempty"`
	Valid       *bool                    `json:"valid,omitempty"`
	Stable      *bool                    `json:"stable,omitempty"`
	Identical   *bool                    `json:"identical,omitempty"`
	Words       int                      `json:"words,omitempty"`
	Errors      []schema.ValidationError `json:"errors,omitempty"`
	Warnings    []Warning                `json:"warnings,omitempty"`
	Versions    int                      `json:"versions,omitempty"`
	Annotations int                      `json:"annotations,omitempty"`
	Before      string                   `json:"before,omitempty"`
	After       string                   `json:"after,omitempty"`
	Eids        *eid.Map                 `json:"eids,omitempty"`
}

// ManualEntry is a document that needs a human to migrate it.
type ManualEntry struct {
	DocID  int64  `json:"doc_id"`
	Work   string `json:"work"`
	Reason string `json:"reason"`
	Kind   string `json:"kind"`
}

// Report summarises a run.
type Report struct {
	RunID         string        `json:"run_id"`
	Migration     string        `json:"migration"`
	Scope         string        `json:"scope"`
	Committed     bool          `json:"committed"`
	Documents     []*DocReport  `json:"documents"`
	Manual        []ManualEntry `json:"manual"`
	Commencements int           `json:"commencements"`
}

// Warnings counts the warnings across all documents.
func (r *Report) Warnings() int {
	n := 0
	for _, d := range r.Documents {
		n += len(d.Warnings)
	}
	return n
}

func (r *Report) sort() {
	sort.Slice(r.Documents, func(i, j int) bool { return r.Documents[i].DocID < r.Documents[j].DocID })
	sort.Slice(r.Manual, func(i, j int) bool { return r.Manual[i].DocID < r.Manual[j].DocID })
}

// EidMappingsJSON writes {doc_id: {old: new}} for every migrated
// document, in document order with each map in generation order.
func (r *Report) EidMappingsJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, d := range r.Documents {
		if d.Eids == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		m, err := json.Marshal(d.Eids)
		if err != nil {
			return nil, err
		}
		buf.WriteString(strconv.Quote(strconv.FormatInt(d.DocID, 10)))
		buf.WriteByte(':')
		buf.Write(m)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
