package formatter

import (
	"encoding/json"
	"io"

	"github.com/tordrt/xataschema/internal/xata"
)

// JSONFormatter writes the schema document Xata consumes
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Format writes the schema as 2-space indented JSON. Characters such as
// < and & are written as-is.
func (f *JSONFormatter) Format(s *xata.Schema) error {
	enc := json.NewEncoder(f.writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
