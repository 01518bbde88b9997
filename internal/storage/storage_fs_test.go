package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAbsolute_OverwritesDanglingSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nonexistent")
	dest := filepath.Join(dir, "1-stability.diff")

	// Create a dangling symlink at the destination.
	if err := os.Symlink(target, dest); err != nil {
		t.Fatal(err)
	}

	s := &FSStorage{}
	if err := s.writeFileAbsolute(dest, []byte("hello")); err != nil {
		t.Fatalf("writeFileAbsolute failed: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}

	// Ensure it's a regular file, not a symlink.
	info, err := os.Lstat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		t.Fatal("expected regular file, got symlink")
	}
}

func TestWriteFileAbsolute_OverwritesCircularSymlink(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.diff")
	b := filepath.Join(dir, "b.diff")

	// Create circular symlinks: a -> b -> a
	if err := os.Symlink(b, a); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(a, b); err != nil {
		t.Fatal(err)
	}

	s := &FSStorage{}
	if err := s.writeFileAbsolute(a, []byte("content")); err != nil {
		t.Fatalf("writeFileAbsolute failed: %v", err)
	}

	got, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "content" {
		t.Fatalf("got %q, want %q", got, "content")
	}
}

func TestWriteDiff(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStorage(dir, "https://reports.example.com/migrations/")

	url, err := s.WriteDiff(context.Background(), "run-1", 42, "fingerprint", "-a\n+b\n")
	if err != nil {
		t.Fatalf("WriteDiff failed: %v", err)
	}
	if url != "https://reports.example.com/migrations/runs/run-1/42-fingerprint.diff" {
		t.Fatalf("unexpected url: %s", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "runs", "run-1", "42-fingerprint.diff"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "-a\n+b\n" {
		t.Fatalf("got %q", got)
	}

	if _, err := s.WriteDiff(context.Background(), "", 42, "fingerprint", "x"); err == nil {
		t.Fatal("expected error without a run id")
	}
}

func TestURLWithoutBase(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStorage(dir, "")
	url, err := s.WriteReport(context.Background(), "run-2", []byte("{}"))
	if err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	if url != filepath.Join(dir, "runs", "run-2", "report.json") {
		t.Fatalf("unexpected url: %s", url)
	}
}
