// Package storage writes the artifacts of a migration run (per-document
// diffs and the run report) and hands out the URLs reviewers use to
// open them.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type FSStorage struct {
	Root    string
	BaseURL string
}

func NewFSStorage(root string, baseURL string) *FSStorage {
	return &FSStorage{Root: root, BaseURL: baseURL}
}

// WriteDiff stores a diff for one document under the run's directory
// and returns its URL. kind names the check, e.g. "stability".
func (s *FSStorage) WriteDiff(ctx context.Context, runID string, docID int64, kind string, diff string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("diff run id required")
	}
	destPath := path.Join("runs", runID, strconv.FormatInt(docID, 10)+"-"+kind+".diff")
	if err := s.writeFile(destPath, []byte(diff)); err != nil {
		return "", fmt.Errorf("write diff %s: %w", destPath, err)
	}
	return s.URL(destPath), nil
}

// WriteDocument stores a canonical serialisation of a document, so a
// reviewer can compare the full before and after.
func (s *FSStorage) WriteDocument(ctx context.Context, runID string, docID int64, name string, xml []byte) (string, error) {
	destPath := path.Join("runs", runID, strconv.FormatInt(docID, 10)+"-"+name+".xml")
	if err := s.writeFile(destPath, xml); err != nil {
		return "", fmt.Errorf("write document %s: %w", destPath, err)
	}
	return s.URL(destPath), nil
}

// WriteReport stores the JSON report of a run.
func (s *FSStorage) WriteReport(ctx context.Context, runID string, report []byte) (string, error) {
	destPath := path.Join("runs", runID, "report.json")
	if err := s.writeFile(destPath, report); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return s.URL(destPath), nil
}

// URL maps a stored path to the address reviewers open: under BaseURL
// when one is configured, otherwise the absolute file path.
func (s *FSStorage) URL(destPath string) string {
	if s.BaseURL != "" {
		return strings.TrimSuffix(s.BaseURL, "/") + "/" + strings.TrimPrefix(destPath, "/")
	}
	full, err := filepath.Abs(filepath.Join(s.Root, filepath.FromSlash(destPath)))
	if err != nil {
		return filepath.Join(s.Root, filepath.FromSlash(destPath))
	}
	return full
}

func (s *FSStorage) writeFile(destPath string, content []byte) error {
	fullPath := filepath.Join(s.Root, filepath.FromSlash(destPath))
	return s.writeFileAbsolute(fullPath, content)
}

func (s *FSStorage) writeFileAbsolute(fullPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// Remove any existing file or symlink so os.WriteFile does not
	// follow a stale symlink left by an earlier run.
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
