// Package loader turns raw configuration file bytes into tree.Node
// structures. Each serialization family has one loader; all of them share
// the same contract: parse the whole document or return a typed
// ParseError. A missing file is never a loader concern - absence is
// modeled upstream and classified by the comparator.
package loader

import (
	"fmt"

	"confdrift/internal/tree"
)

// ErrorKind classifies a parse failure by serialization family.
type ErrorKind string

const (
	MalformedMarkup ErrorKind = "MALFORMED_MARKUP"
	MalformedTable  ErrorKind = "MALFORMED_TABLE"
	MalformedScript ErrorKind = "MALFORMED_SCRIPT"
)

// ParseError is the typed failure returned by every loader. It is
// recoverable per-file: the comparator converts it into a
// TARGET_UNPARSEABLE (or reference-side) status instead of propagating.
type ParseError struct {
	Kind   ErrorKind
	Path   string
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
}

// Func is the shared loader contract: raw bytes in, structural tree or
// typed failure out.
type Func func(path string, raw []byte) (*tree.Node, *ParseError)
