// Package pipeline drives a migration over a scope of works: it loads
// each document from the store, migrates and checks it, and on commit
// writes back the document, its annotation anchors, its historical
// versions and the commencement provisions of its work.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/laws-africa/akn-migrate/internal/akn"
	"github.com/laws-africa/akn-migrate/internal/check"
	"github.com/laws-africa/akn-migrate/internal/eid"
	"github.com/laws-africa/akn-migrate/internal/schema"
	"github.com/laws-africa/akn-migrate/internal/storage"
	"github.com/laws-africa/akn-migrate/internal/store"
	"github.com/laws-africa/akn-migrate/internal/transform"
)

type Runner struct {
	Store     *store.Store
	Migration transform.Migration
	Policy    Policy
	Validator schema.Validator
	Stability *check.Stability   // nil skips the stability check
	Artifacts *storage.FSStorage // nil keeps diffs in the log only
	Workers   int
	Logger    *slog.Logger

	mu     sync.Mutex
	report *Report
}

// Migrate runs the migration over every work in scope inside one
// transaction, committed only when opts.Commit is set. Skipped
// documents and warnings are collected in the report; any other error
// aborts the run and rolls everything back.
func (r *Runner) Migrate(ctx context.Context, scope store.Scope, opts Options) (*Report, error) {
	if r.Store == nil || r.Migration == nil || r.Validator == nil {
		return nil, errors.New("pipeline runner missing dependencies")
	}

	r.report = &Report{
		RunID:     uuid.NewString(),
		Migration: r.Migration.Name(),
		Scope:     scope.String(),
	}

	tx, err := r.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	works, err := tx.Works(ctx, scope)
	if err != nil {
		return nil, err
	}
	if r.Logger != nil {
		r.Logger.Info("migrating", "migration", r.report.Migration, "scope", r.report.Scope, "works", len(works), "run", r.report.RunID)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan store.Work)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for range max(r.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				if err := r.migrateWork(ctx, tx, w, opts); err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("work %s: %w", w.FRBRURI, err)
						cancel()
					})
				}
			}
		}()
	}

	for _, w := range works {
		if ctx.Err() != nil {
			break
		}
		jobs <- w
	}
	close(jobs)
	wg.Wait()

	report := r.report
	report.sort()

	if firstErr != nil {
		return report, firstErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	if opts.Commit {
		if err := tx.Commit(); err != nil {
			return report, err
		}
		report.Committed = true
	}

	if r.Artifacts != nil {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return report, fmt.Errorf("encode report: %w", err)
		}
		url, err := r.Artifacts.WriteReport(ctx, report.RunID, data)
		if err != nil {
			return report, err
		}
		if r.Logger != nil {
			r.Logger.Info("report written", "url", url)
		}
	}

	if r.Logger != nil {
		r.Logger.Info("migration done", "documents", len(report.Documents), "manual", len(report.Manual),
			"warnings", report.Warnings(), "committed", report.Committed)
	}
	return report, nil
}

func (r *Runner) migrateWork(ctx context.Context, tx *store.Tx, w store.Work, opts Options) error {
	docs, err := tx.Documents(ctx, w.ID)
	if err != nil {
		return err
	}

	merged := eid.NewMap()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lo.Contains(opts.SkipList, w.FRBRURI) {
			r.skip(&DocReport{DocID: doc.ID, Work: w.FRBRURI}, &transform.DoNotMigrate{Reason: "in skip list", Kind: transform.SkipConfigured})
			continue
		}

		dr, err := r.migrateDocument(ctx, tx, w, doc, opts)
		if err != nil {
			return fmt.Errorf("document %d: %w", doc.ID, err)
		}
		if dr.Status == StatusMigrated && dr.Eids != nil {
			merged.Merge(dr.Eids)
		}
	}

	if !opts.Commit || len(merged.Changed()) == 0 {
		return nil
	}
	return r.rewriteCommencements(ctx, tx, w, merged)
}

func (r *Runner) migrateDocument(ctx context.Context, tx *store.Tx, w store.Work, doc store.Document, opts Options) (*DocReport, error) {
	dr := &DocReport{DocID: doc.ID, Work: w.FRBRURI}

	res, err := r.Migration.Migrate([]byte(doc.XML))
	var dnm *transform.DoNotMigrate
	if errors.As(err, &dnm) {
		r.skip(dr, dnm)
		return dr, nil
	}
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		dr.Status = StatusUnchanged
		r.record(dr)
		return dr, nil
	}
	dr.Eids = res.Eids

	raw, err := akn.Serialise(res.Doc)
	if err != nil {
		return nil, err
	}
	out := string(raw)
	if opts.Check {
		canonical, err := akn.Canonicalise(res.Doc)
		if err != nil {
			return nil, fmt.Errorf("canonicalise: %w", err)
		}
		dr.Errors, err = r.Validator.Validate(ctx, canonical)
		if err != nil {
			return nil, fmt.Errorf("validate: %w", err)
		}
		dr.Valid = lo.ToPtr(len(dr.Errors) == 0)
		if !*dr.Valid {
			if r.Policy.InvalidIsFatal {
				r.skip(dr, &transform.DoNotMigrate{Reason: "schema invalid", Kind: transform.SkipSemantic})
				return dr, nil
			}
			r.warn(ctx, dr, "validation", fmt.Sprintf("%d schema errors", len(dr.Errors)), "")
		}

		fp, err := check.CompareFingerprints([]byte(doc.XML), []byte(out))
		if err != nil {
			return nil, fmt.Errorf("fingerprint: %w", err)
		}
		dr.Identical = lo.ToPtr(fp.Identical)
		dr.Words = fp.WordsAfter
		if !fp.Identical {
			if r.Policy.MismatchIsFatal {
				r.skip(dr, &transform.DoNotMigrate{Reason: "fingerprint mismatch", Kind: transform.SkipSemantic})
				return dr, nil
			}
			r.warn(ctx, dr, "fingerprint", fmt.Sprintf("content changed (%d -> %d words)", fp.WordsBefore, fp.WordsAfter), fp.Diff)
		}

		if r.Stability != nil {
			st, err := r.Stability.Check(ctx, res.Doc, w.FRBRURI, w.Doctype)
			switch {
			case err != nil:
				r.warn(ctx, dr, "stability", err.Error(), "")
			case !st.Stable:
				dr.Stable = lo.ToPtr(false)
				r.warn(ctx, dr, "stability", "unparse and parse is not a fixed point", st.Diff)
			default:
				dr.Stable = lo.ToPtr(true)
			}
		}

		if slices.ContainsFunc(dr.Warnings, func(w Warning) bool { return w.URL != "" }) {
			r.storeDocuments(ctx, dr, doc.XML, canonical)
		}
	}

	dr.Status = StatusMigrated
	if opts.Commit {
		if err := r.persist(ctx, tx, dr, doc, out, opts); err != nil {
			return nil, err
		}
	}
	r.record(dr)

	if r.Logger != nil {
		r.Logger.Debug("migrated document", "doc", doc.ID, "work", w.FRBRURI, "valid", dr.Valid != nil && *dr.Valid,
			"stable", dr.Stable != nil && *dr.Stable, "identical", dr.Identical != nil && *dr.Identical)
	}
	return dr, nil
}

// persist writes a migrated document and everything anchored to its
// eIds.
func (r *Runner) persist(ctx context.Context, tx *store.Tx, dr *DocReport, doc store.Document, xml string, opts Options) error {
	if err := tx.SaveDocument(ctx, doc.ID, xml); err != nil {
		return err
	}

	if dr.Eids != nil {
		changes := lo.SliceToMap(dr.Eids.Changed(), func(pair [2]string) (string, string) { return pair[0], pair[1] })
		n, err := tx.RewriteAnnotations(ctx, doc.ID, changes)
		if err != nil {
			return err
		}
		dr.Annotations = n
	}

	if opts.MigrateVersions {
		n, err := r.migrateVersions(ctx, tx, dr)
		if err != nil {
			return err
		}
		dr.Versions = n
	}

	if opts.RecordRevision {
		data, err := store.NewVersionData(doc.ID, xml)
		if err != nil {
			return err
		}
		_, err = tx.AddVersion(ctx, store.Version{
			DocumentID: doc.ID,
			UserID:     opts.UserID,
			Comment:    "Migrated by " + r.Migration.Name(),
			Data:       data,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// migrateVersions migrates the XML embedded in each stored revision and
// writes back those that changed. A revision the migration refuses is
// left alone with a warning.
func (r *Runner) migrateVersions(ctx context.Context, tx *store.Tx, dr *DocReport) (int, error) {
	versions, err := tx.Versions(ctx, dr.DocID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, v := range versions {
		xml, err := store.DecodeVersionXML(v.Data)
		if err != nil {
			return count, fmt.Errorf("version %d: %w", v.ID, err)
		}
		res, err := r.Migration.Migrate([]byte(xml))
		var dnm *transform.DoNotMigrate
		if errors.As(err, &dnm) {
			r.warn(ctx, dr, "version", fmt.Sprintf("version %d not migrated: %s", v.ID, dnm.Reason), "")
			continue
		}
		if err != nil {
			return count, fmt.Errorf("version %d: %w", v.ID, err)
		}
		if !res.Changed {
			continue
		}
		raw, err := akn.Serialise(res.Doc)
		if err != nil {
			return count, fmt.Errorf("version %d: %w", v.ID, err)
		}
		out := string(raw)
		if out == xml {
			continue
		}
		data, err := store.EncodeVersionXML(v.Data, out)
		if err != nil {
			return count, fmt.Errorf("version %d: %w", v.ID, err)
		}
		if err := tx.SaveVersion(ctx, v.ID, data); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// rewriteCommencements renames the provisions of the work's
// commencements through the merged eId map of its documents.
func (r *Runner) rewriteCommencements(ctx context.Context, tx *store.Tx, w store.Work, m *eid.Map) error {
	commencements, err := tx.Commencements(ctx, w.ID)
	if err != nil {
		return err
	}
	for _, c := range commencements {
		renamed := lo.Map(c.Provisions, func(p string, _ int) string { return m.Lookup(p) })
		if slices.Equal(renamed, c.Provisions) {
			continue
		}
		c.Provisions = renamed
		if err := tx.SaveCommencement(ctx, c); err != nil {
			return err
		}
		r.mu.Lock()
		r.report.Commencements++
		r.mu.Unlock()
	}
	return nil
}

func (r *Runner) record(dr *DocReport) {
	r.mu.Lock()
	r.report.Documents = append(r.report.Documents, dr)
	r.mu.Unlock()
}

func (r *Runner) skip(dr *DocReport, dnm *transform.DoNotMigrate) {
	dr.Status = StatusSkipped
	dr.Reason = dnm.Reason
	dr.Eids = nil
	r.mu.Lock()
	r.report.Documents = append(r.report.Documents, dr)
	r.report.Manual = append(r.report.Manual, ManualEntry{DocID: dr.DocID, Work: dr.Work, Reason: dnm.Reason, Kind: dnm.Kind.String()})
	r.mu.Unlock()

	if r.Logger != nil {
		r.Logger.Warn("document not migrated", "doc", dr.DocID, "work", dr.Work, "reason", dnm.Reason, "kind", dnm.Kind.String())
	}
}

// storeDocuments keeps canonical copies of the document before and
// after migration next to its diffs.
func (r *Runner) storeDocuments(ctx context.Context, dr *DocReport, before string, after []byte) {
	prev, err := akn.ParseString(before)
	if err == nil {
		var canonical []byte
		if canonical, err = akn.Canonicalise(prev); err == nil {
			dr.Before, err = r.Artifacts.WriteDocument(ctx, r.report.RunID, dr.DocID, "before", canonical)
		}
	}
	if err == nil {
		dr.After, err = r.Artifacts.WriteDocument(ctx, r.report.RunID, dr.DocID, "after", after)
	}
	if err != nil && r.Logger != nil {
		r.Logger.Error("write documents failed", "doc", dr.DocID, "error", err)
	}
}

// warn records a non-fatal finding, storing its diff when there is one.
func (r *Runner) warn(ctx context.Context, dr *DocReport, kind, message, diff string) {
	w := Warning{Kind: kind, Message: message}
	if diff != "" && r.Artifacts != nil {
		url, err := r.Artifacts.WriteDiff(ctx, r.report.RunID, dr.DocID, kind, diff)
		if err != nil && r.Logger != nil {
			r.Logger.Error("write diff failed", "doc", dr.DocID, "error", err)
		}
		w.URL = url
	}
	dr.Warnings = append(dr.Warnings, w)

	if r.Logger != nil {
		r.Logger.Warn("migration warning", "doc", dr.DocID, "work", dr.Work, "kind", kind, "message", message, "url", w.URL)
	}
}
