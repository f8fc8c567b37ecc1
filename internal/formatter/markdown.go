package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/xataschema/internal/xata"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *xata.Schema) error {
	if _, err := fmt.Fprintln(f.writer, "# Xata Schema"); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range s.Tables {
		f.formatTable(table)
	}
	return nil
}

func (f *MarkdownFormatter) formatTable(table xata.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)

	var links []xata.Column
	for _, col := range table.Columns {
		constraintStr := formatConstraints(col)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, col.Type, constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, col.Type)
		}
		if col.Link != nil {
			links = append(links, col)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(links) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Links")
		_, _ = fmt.Fprintln(f.writer)
		for _, col := range links {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s\n", col.Name, col.Link.Table)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func formatConstraints(col xata.Column) string {
	var constraints []string

	if col.Unique {
		constraints = append(constraints, "UNIQUE")
	}

	if col.NotNull != nil && *col.NotNull {
		constraints = append(constraints, "NOT NULL")
	}

	if col.DefaultValue != nil {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}

	return strings.Join(constraints, ", ")
}
