// Package formatter writes a Xata schema as JSON, or as a text or markdown
// preview for review.
package formatter

import (
	"fmt"
	"io"
	"os"

	"github.com/tordrt/xataschema/internal/xata"
)

const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Formatter writes a schema in one output format
type Formatter interface {
	Format(s *xata.Schema) error
}

// New returns the formatter for the named format
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONFormatter(w), nil
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'json', 'text' or 'markdown')", format)
	}
}

// WriteFile formats the schema into path, replacing any existing content.
// A path of "-" writes to stdout.
func WriteFile(path string, s *xata.Schema, format string) (err error) {
	if path == "-" {
		f, err := New(format, os.Stdout)
		if err != nil {
			return err
		}
		return f.Format(s)
	}

	// validate the format before truncating the destination
	if _, err := New(format, io.Discard); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	f, _ := New(format, file)
	if err := f.Format(s); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
