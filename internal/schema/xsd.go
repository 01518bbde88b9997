package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"
)

// XSD validates in process against a schema compiled once by LoadXSD.
type XSD struct {
	mu     sync.Mutex
	schema *xsd.Schema
}

// LoadXSD compiles the schema at path. Includes and imports resolve
// relative to its directory.
func LoadXSD(path string) (*XSD, error) {
	s, err := xsd.LoadWithOptions(os.DirFS(filepath.Dir(path)), filepath.Base(path), xsd.NewLoadOptions())
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return &XSD{schema: s}, nil
}

func (v *XSD) Validate(_ context.Context, xml []byte) ([]ValidationError, error) {
	v.mu.Lock()
	err := v.schema.Validate(bytes.NewReader(xml))
	v.mu.Unlock()
	if err == nil {
		return nil, nil
	}

	var list xsderrors.ValidationList
	if !errors.As(err, &list) {
		return nil, fmt.Errorf("xsd: %w", err)
	}
	out := make([]ValidationError, 0, len(list))
	for _, e := range list {
		msg := e.Message
		if e.Path != "" {
			msg += " at " + e.Path
		}
		out = append(out, ValidationError{Message: msg})
	}
	return out, nil
}
