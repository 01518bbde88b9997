package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeBinary writes an executable shell script and returns its path.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-parser")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecRoundTrip(t *testing.T) {
	bin := fakeBinary(t, `case "$1" in
unparse) tr 'a-z' 'A-Z' ;;
parse) echo "$3 $5"; cat ;;
esac
`)
	p := NewExec(bin)

	text, err := p.Unparse(context.Background(), []byte("<p>hello</p>"))
	if err != nil {
		t.Fatalf("Unparse: %v", err)
	}
	if text != "<P>HELLO</P>" {
		t.Fatalf("expected upper-cased text, got: %s", text)
	}

	xml, err := p.Parse(context.Background(), "body", "/akn/za/act/2009/1", "act")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := string(xml); got != "/akn/za/act/2009/1 act\nbody" {
		t.Fatalf("unexpected parse output: %q", got)
	}
}

func TestExecFailure(t *testing.T) {
	bin := fakeBinary(t, "echo 'bad input' >&2\nexit 3\n")
	_, err := NewExec(bin).Unparse(context.Background(), []byte("<p/>"))

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got: %v", err)
	}
	if perr.Op != "unparse" || perr.Stderr != "bad input" {
		t.Fatalf("unexpected error details: %+v", perr)
	}
	if !strings.Contains(err.Error(), "bad input") {
		t.Fatalf("expected stderr in message, got: %s", err)
	}
}

func TestExecTimeout(t *testing.T) {
	// exec so the shell is replaced and the kill reaches sleep.
	bin := fakeBinary(t, "exec sleep 60\n")
	p := NewExec(bin)
	p.Timeout = 200 * time.Millisecond

	start := time.Now()
	if _, err := p.Unparse(context.Background(), nil); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("timeout was not enforced")
	}
}
