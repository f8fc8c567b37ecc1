package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/xataschema/internal/xata"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *xata.Schema) error {
	for i, table := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if _, err := fmt.Fprintf(f.writer, "TABLE %s\n", table.Name); err != nil {
			return err
		}
		for _, col := range table.Columns {
			_, _ = fmt.Fprintf(f.writer, "  %s\n", formatColumn(col))
		}
	}
	return nil
}

func formatColumn(col xata.Column) string {
	parts := []string{col.Name + ":", string(col.Type)}

	if col.Link != nil {
		parts = append(parts, "→", col.Link.Table)
	}

	if col.Unique {
		parts = append(parts, "UNIQUE")
	}

	if col.NotNull != nil && *col.NotNull {
		parts = append(parts, "NOT NULL")
	}

	if col.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}

	return strings.Join(parts, " ")
}
