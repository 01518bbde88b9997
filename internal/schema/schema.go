// Package schema validates canonicalised AKN documents.
package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/laws-africa/akn-migrate/internal/akn"
)

// ValidationError is one problem found in a document.
type ValidationError struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Validator checks a serialised document. A nil slice means valid; the
// error is reserved for failures to run the check at all.
type Validator interface {
	Validate(ctx context.Context, xml []byte) ([]ValidationError, error)
}

// XMLLint validates against an XSD with xmllint(1).
type XMLLint struct {
	Binary  string
	Schema  string
	Timeout time.Duration
}

// NewXMLLint returns a validator for the XSD at schemaPath.
func NewXMLLint(binary, schemaPath string) *XMLLint {
	if binary == "" {
		binary = "xmllint"
	}
	return &XMLLint{Binary: binary, Schema: schemaPath, Timeout: 30 * time.Second}
}

var lintLine = regexp.MustCompile(`^-:(\d+): (.*)$`)

func (v *XMLLint) Validate(ctx context.Context, xml []byte) ([]ValidationError, error) {
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, v.Binary, "--noout", "--schema", v.Schema, "-")
	cmd.Stdin = bytes.NewReader(xml)
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || ctx.Err() != nil {
		return nil, fmt.Errorf("xmllint: %w", err)
	}

	var out []ValidationError
	for _, line := range strings.Split(stderr.String(), "\n") {
		m := lintLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		out = append(out, ValidationError{Line: n, Message: m[2]})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("xmllint: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Structural checks the invariants every migrated document must meet
// without an XSD: an akomaNtoso root with a single document child,
// every element in the AKN namespace and unique eIds.
type Structural struct{}

func (Structural) Validate(_ context.Context, xml []byte) ([]ValidationError, error) {
	doc, err := akn.Parse(xml)
	if err != nil {
		return []ValidationError{{Message: err.Error()}}, nil
	}
	root := doc.Root()

	var out []ValidationError
	if root.Tag != "akomaNtoso" {
		out = append(out, ValidationError{Message: fmt.Sprintf("root element is %s, not akomaNtoso", root.Tag)})
	}
	if n := len(root.ChildElements()); n != 1 {
		out = append(out, ValidationError{Message: fmt.Sprintf("akomaNtoso has %d children, expected 1", n)})
	}

	seen := make(map[string]bool)
	check := func(e *etree.Element) {
		if ns := e.NamespaceURI(); ns != akn.Namespace {
			out = append(out, ValidationError{Message: fmt.Sprintf("element %s is in namespace %q", e.Tag, ns)})
		}
		if id := e.SelectAttrValue("eId", ""); id != "" {
			if seen[id] {
				out = append(out, ValidationError{Message: fmt.Sprintf("duplicate eId %s", id)})
			}
			seen[id] = true
		}
	}
	check(root)
	for _, e := range akn.Descendants(root) {
		check(e)
	}
	return out, nil
}
