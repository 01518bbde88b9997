package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/laws-africa/akn-migrate/internal/frbr"
)

// Tx is a run's outer transaction. It is safe for concurrent use; calls
// are serialised.
type Tx struct {
	mu sync.Mutex
	tx *sql.Tx
}

func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// AddWork records a work, deriving its place and doctype from the URI.
func (t *Tx) AddWork(ctx context.Context, frbrURI string) (int64, error) {
	u, err := frbr.Parse(frbrURI)
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	res, err := t.tx.ExecContext(ctx, `INSERT INTO works (frbr_uri, country, locality, doctype) VALUES (?, ?, ?, ?)`,
		frbrURI, u.Country, u.Locality, u.Doctype)
	if err != nil {
		return 0, fmt.Errorf("add work %s: %w", frbrURI, err)
	}
	return res.LastInsertId()
}

// Works lists the works in scope ordered by FRBR URI.
func (t *Tx) Works(ctx context.Context, scope Scope) ([]Work, error) {
	where, args, err := scope.where()
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, err := t.tx.QueryContext(ctx, `SELECT id, frbr_uri, country, locality, doctype FROM works WHERE `+where+` ORDER BY frbr_uri`, args...)
	if err != nil {
		return nil, fmt.Errorf("query works: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var works []Work
	for rows.Next() {
		var w Work
		if err := rows.Scan(&w.ID, &w.FRBRURI, &w.Country, &w.Locality, &w.Doctype); err != nil {
			return nil, fmt.Errorf("scan work: %w", err)
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

func (t *Tx) AddDocument(ctx context.Context, d Document) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, err := t.tx.ExecContext(ctx, `INSERT INTO documents (work_id, language, expression_date, document_xml) VALUES (?, ?, ?, ?)`,
		d.WorkID, d.Language, d.ExpressionDate, d.XML)
	if err != nil {
		return 0, fmt.Errorf("add document: %w", err)
	}
	return res.LastInsertId()
}

// Documents lists the documents of a work ordered by id.
func (t *Tx) Documents(ctx context.Context, workID int64) ([]Document, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, err := t.tx.QueryContext(ctx, `SELECT id, work_id, language, expression_date, document_xml FROM documents WHERE work_id = ? ORDER BY id`, workID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.WorkID, &d.Language, &d.ExpressionDate, &d.XML); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Document loads a single document.
func (t *Tx) Document(ctx context.Context, id int64) (Document, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var d Document
	err := t.tx.QueryRowContext(ctx, `SELECT id, work_id, language, expression_date, document_xml FROM documents WHERE id = ?`, id).
		Scan(&d.ID, &d.WorkID, &d.Language, &d.ExpressionDate, &d.XML)
	if err != nil {
		return Document{}, fmt.Errorf("load document %d: %w", id, err)
	}
	return d, nil
}

func (t *Tx) SaveDocument(ctx context.Context, id int64, xml string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.tx.ExecContext(ctx, `UPDATE documents SET document_xml = ?, updated_at = ? WHERE id = ?`,
		xml, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("save document %d: %w", id, err)
	}
	return nil
}

// Versions lists the stored revisions of a document, oldest first.
func (t *Tx) Versions(ctx context.Context, documentID int64) ([]Version, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, err := t.tx.QueryContext(ctx, `SELECT id, document_id, revision_date, COALESCE(user_id, 0), comment, serialized_data FROM document_versions WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []Version
	for rows.Next() {
		var v Version
		var date string
		if err := rows.Scan(&v.ID, &v.DocumentID, &date, &v.UserID, &v.Comment, &v.Data); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.RevisionDate, _ = time.Parse(time.RFC3339, date)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// AddVersion stores a new revision. A zero UserID is stored as NULL.
func (t *Tx) AddVersion(ctx context.Context, v Version) (int64, error) {
	if v.RevisionDate.IsZero() {
		v.RevisionDate = time.Now().UTC()
	}
	var user any
	if v.UserID != 0 {
		user = v.UserID
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	res, err := t.tx.ExecContext(ctx, `INSERT INTO document_versions (document_id, revision_date, user_id, comment, serialized_data) VALUES (?, ?, ?, ?, ?)`,
		v.DocumentID, v.RevisionDate.Format(time.RFC3339), user, v.Comment, v.Data)
	if err != nil {
		return 0, fmt.Errorf("add version for document %d: %w", v.DocumentID, err)
	}
	return res.LastInsertId()
}

// SaveVersion overwrites the payload of an existing revision.
func (t *Tx) SaveVersion(ctx context.Context, id int64, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.tx.ExecContext(ctx, `UPDATE document_versions SET serialized_data = ? WHERE id = ?`, data, id); err != nil {
		return fmt.Errorf("save version %d: %w", id, err)
	}
	return nil
}

func (t *Tx) AddAnnotation(ctx context.Context, documentID int64, anchor, text string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, err := t.tx.ExecContext(ctx, `INSERT INTO annotations (document_id, anchor_id, text) VALUES (?, ?, ?)`, documentID, anchor, text)
	if err != nil {
		return 0, fmt.Errorf("add annotation: %w", err)
	}
	return res.LastInsertId()
}

// Annotations maps annotation id to anchor eId for a document.
func (t *Tx) Annotations(ctx context.Context, documentID int64) (map[int64]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.annotations(ctx, documentID)
}

func (t *Tx) annotations(ctx context.Context, documentID int64) (map[int64]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id, anchor_id FROM annotations WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var anchor string
		if err := rows.Scan(&id, &anchor); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		out[id] = anchor
	}
	return out, rows.Err()
}

// RewriteAnnotations moves the annotations of a document from old to
// new anchors. Each annotation is rewritten at most once, so chained
// renames (a to b, b to c) do not cascade. It returns the number of
// annotations updated.
func (t *Tx) RewriteAnnotations(ctx context.Context, documentID int64, changes map[string]string) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	anchors, err := t.annotations(ctx, documentID)
	if err != nil {
		return 0, err
	}

	count := 0
	for id, anchor := range anchors {
		next, ok := changes[anchor]
		if !ok || next == anchor {
			continue
		}
		if _, err := t.tx.ExecContext(ctx, `UPDATE annotations SET anchor_id = ? WHERE id = ?`, next, id); err != nil {
			return count, fmt.Errorf("rewrite annotation %d: %w", id, err)
		}
		count++
	}
	return count, nil
}

func (t *Tx) AddCommencement(ctx context.Context, c Commencement) (int64, error) {
	provisions, err := marshalProvisions(c.Provisions)
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	res, err := t.tx.ExecContext(ctx, `INSERT INTO commencements (work_id, all_provisions, provisions) VALUES (?, ?, ?)`,
		c.WorkID, c.AllProvisions, string(provisions))
	if err != nil {
		return 0, fmt.Errorf("add commencement: %w", err)
	}
	return res.LastInsertId()
}

// Commencements lists the commencements of a work that name their
// provisions explicitly.
func (t *Tx) Commencements(ctx context.Context, workID int64) ([]Commencement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, err := t.tx.QueryContext(ctx, `SELECT id, work_id, all_provisions, provisions FROM commencements WHERE work_id = ? AND all_provisions = 0 ORDER BY id`, workID)
	if err != nil {
		return nil, fmt.Errorf("query commencements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Commencement
	for rows.Next() {
		var c Commencement
		var provisions string
		if err := rows.Scan(&c.ID, &c.WorkID, &c.AllProvisions, &provisions); err != nil {
			return nil, fmt.Errorf("scan commencement: %w", err)
		}
		if err := json.Unmarshal([]byte(provisions), &c.Provisions); err != nil {
			return nil, fmt.Errorf("decode provisions of commencement %d: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *Tx) SaveCommencement(ctx context.Context, c Commencement) error {
	provisions, err := marshalProvisions(c.Provisions)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.tx.ExecContext(ctx, `UPDATE commencements SET provisions = ? WHERE id = ?`, string(provisions), c.ID); err != nil {
		return fmt.Errorf("save commencement %d: %w", c.ID, err)
	}
	return nil
}

func marshalProvisions(p []string) ([]byte, error) {
	if p == nil {
		p = []string{}
	}
	return json.Marshal(p)
}
