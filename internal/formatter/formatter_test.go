package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tordrt/xataschema/internal/xata"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleSchema() *xata.Schema {
	return &xata.Schema{
		Tables: []xata.Table{
			{
				Name: "Post",
				Columns: []xata.Column{
					{Name: "title", Type: xata.TypeString, NotNull: boolPtr(true)},
					{Name: "author", Type: xata.TypeLink, Link: &xata.Link{Table: "User"}},
					{Name: "body", Type: xata.TypeText, DefaultValue: strPtr("<empty> & more"), NotNull: boolPtr(false)},
					{Name: "slug", Type: xata.TypeString, Unique: true},
				},
			},
		},
	}
}

const sampleJSON = `{
  "tables": [
    {
      "name": "Post",
      "columns": [
        {
          "name": "title",
          "type": "string",
          "unique": false,
          "notNull": true
        },
        {
          "name": "author",
          "type": "link",
          "link": {
            "table": "User"
          },
          "unique": false
        },
        {
          "name": "body",
          "type": "text",
          "defaultValue": "<empty> & more",
          "unique": false,
          "notNull": false
        },
        {
          "name": "slug",
          "type": "string",
          "unique": true
        }
      ]
    }
  ]
}
`

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf).Format(sampleSchema()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.String() != sampleJSON {
		t.Errorf("Format() =\n%s\nwant\n%s", buf.String(), sampleJSON)
	}
}

func TestJSONFormatterEmptySchema(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf).Format(&xata.Schema{Tables: []xata.Table{}}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if want := "{\n  \"tables\": []\n}\n"; buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextFormatter(&buf).Format(sampleSchema()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := []string{
		"TABLE Post",
		"  title: string NOT NULL",
		"  author: link → User",
		"  body: text DEFAULT <empty> & more",
		"  slug: string UNIQUE",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("Format() =\n%s", buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf).Format(sampleSchema()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# Xata Schema",
		"## Post",
		"- **title:** string, NOT NULL",
		"- **slug:** string, UNIQUE",
		"- **author:** link\n",
		"### Links",
		"- author → User",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q\n%s", want, output)
		}
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", FormatJSON, FormatText, FormatMarkdown} {
		if _, err := New(format, &bytes.Buffer{}); err != nil {
			t.Errorf("New(%q) error = %v", format, err)
		}
	}
	if _, err := New("yaml", &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xataSchema.json")
	if err := os.WriteFile(path, []byte("stale content that is longer than the new document ......................................................................................................................................................................................................................................................................................................................................................................................................"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteFile(path, sampleSchema(), FormatJSON); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleJSON {
		t.Errorf("WriteFile() wrote\n%s", data)
	}
}

func TestWriteFileErrors(t *testing.T) {
	dir := t.TempDir()

	existing := filepath.Join(dir, "keep.json")
	if err := os.WriteFile(existing, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(existing, sampleSchema(), "yaml"); err == nil {
		t.Error("Expected error for unknown format")
	}
	if data, _ := os.ReadFile(existing); string(data) != "keep" {
		t.Errorf("unknown format truncated the destination: %q", data)
	}

	if err := WriteFile(filepath.Join(dir, "missing", "out.json"), sampleSchema(), FormatJSON); err == nil {
		t.Error("Expected error for unwritable destination")
	}
}
