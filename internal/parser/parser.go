// Package parser talks to the platform's reference parser, which turns
// AKN XML into the plain-text markup editors work with and back again.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Parser is the reference unparse/parse pair used by the stability
// check.
type Parser interface {
	Unparse(ctx context.Context, xml []byte) (string, error)
	Parse(ctx context.Context, text string, frbrURI string, doctype string) ([]byte, error)
}

// Error reports a failed run of the external parser.
type Error struct {
	Op     string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("parser %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("parser %s failed: %v: %s", e.Op, e.Err, e.Stderr)
}

func (e *Error) Unwrap() error { return e.Err }

// Exec runs the parser binary once per call:
//
//	<binary> unparse < xml > text
//	<binary> parse --frbr-uri URI --root DOCTYPE < text > xml
type Exec struct {
	Binary  string
	Timeout time.Duration
}

// NewExec returns a parser backed by binary, defaulting to "bluebell".
func NewExec(binary string) *Exec {
	if binary == "" {
		binary = "bluebell"
	}
	return &Exec{Binary: binary, Timeout: 60 * time.Second}
}

func (p *Exec) Unparse(ctx context.Context, xml []byte) (string, error) {
	out, err := p.run(ctx, "unparse", xml)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (p *Exec) Parse(ctx context.Context, text string, frbrURI string, doctype string) ([]byte, error) {
	return p.run(ctx, "parse", []byte(text), "--frbr-uri", frbrURI, "--root", doctype)
}

func (p *Exec) run(ctx context.Context, op string, input []byte, args ...string) ([]byte, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Binary, append([]string{op}, args...)...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &Error{Op: op, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}
