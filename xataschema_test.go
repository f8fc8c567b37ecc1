package xataschema

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tordrt/xataschema/internal/prisma"
	"github.com/tordrt/xataschema/internal/xata"
)

func TestConvertFileGolden(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "xataSchema.json")

	res, err := ConvertFile(ctx, filepath.Join("testdata", "blog.prisma"), out, nil, nil)
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "blog.xata.json"))
	if err != nil {
		t.Fatalf("failed to read golden file: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}

	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(res.Warnings), res.Warnings)
	}
	w := res.Warnings[0]
	if w.Kind != xata.WarnTypeFallback || w.Table != "User" || w.Column != "role" {
		t.Errorf("unexpected warning: %+v", w)
	}
}

func TestConvertFileIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	out := filepath.Join(dir, "xataSchema.json")

	if err := os.WriteFile(out, []byte("stale content that is longer than nothing"), 0o644); err != nil {
		t.Fatal(err)
	}

	var runs [2][]byte
	for i := range runs {
		if _, err := ConvertFile(ctx, filepath.Join("testdata", "blog.prisma"), out, nil, nil); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		runs[i] = data
	}

	if !bytes.Equal(runs[0], runs[1]) {
		t.Error("two runs over the same input produced different output")
	}
	if strings.Contains(string(runs[0]), "stale") {
		t.Error("existing output was not replaced")
	}
}

func TestConvertFileDMMF(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "dmmf.json")

	doc := `{"datamodel": {"models": [{"name": "Tag", "fields": [
		{"name": "id", "kind": "scalar", "isId": true, "isRequired": true, "type": "Int"},
		{"name": "label", "kind": "scalar", "isRequired": true, "isUnique": true, "type": "String"},
		{"name": "weight", "kind": "scalar", "isRequired": false, "type": "Decimal", "default": 1.50}
	]}]}}`
	if err := os.WriteFile(src, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	res, err := ConvertFile(ctx, src, "", nil, &OutputOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}

	want := `{
  "tables": [
    {
      "name": "Tag",
      "columns": [
        {
          "name": "label",
          "type": "string",
          "unique": true
        },
        {
          "name": "weight",
          "type": "float",
          "defaultValue": "1.5",
          "unique": false,
          "notNull": false
        }
      ]
    }
  ]
}
`
	if buf.String() != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", res.Warnings)
	}
}

func TestConvertFileErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.prisma")
	if err := os.WriteFile(broken, []byte("model User {\n  id Int @id @default(\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	brokenJSON := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(brokenJSON, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{name: "missing schema file", source: filepath.Join(dir, "missing.prisma"), wantErr: ErrSourceRead},
		{name: "missing dmmf file", source: filepath.Join(dir, "missing.json"), wantErr: ErrSourceRead},
		{name: "malformed schema", source: broken, wantErr: ErrSourceParse},
		{name: "malformed dmmf", source: brokenJSON, wantErr: ErrSourceParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".json")
			_, err := ConvertFile(ctx, tt.source, out, nil, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
				t.Error("output file should not be created on failure")
			}
		})
	}
}

func TestConvertStrict(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "xataSchema.json")

	res, err := ConvertFile(ctx, filepath.Join("testdata", "blog.prisma"), out, &Options{Strict: true}, nil)
	if !errors.Is(err, ErrLossyConversion) {
		t.Fatalf("error = %v, want ErrLossyConversion", err)
	}
	if res == nil || len(res.Warnings) != 1 {
		t.Fatalf("strict failure should still report warnings, got %+v", res)
	}
	if !strings.Contains(err.Error(), "User.role") {
		t.Errorf("error %q should name the offending column", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("nothing should be written in strict mode when warnings exist")
	}

	// excluding the offending model makes the conversion lossless
	_, err = ConvertFile(ctx, filepath.Join("testdata", "blog.prisma"), out,
		&Options{Strict: true, ExcludeModels: []string{"User"}}, nil)
	if err != nil {
		t.Fatalf("strict conversion without User failed: %v", err)
	}
}

type staticSource struct {
	dm  *prisma.Datamodel
	err error
}

func (s staticSource) Datamodel(context.Context) (*prisma.Datamodel, error) {
	return s.dm, s.err
}

func TestConvertSource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty datamodel", func(t *testing.T) {
		res, err := Convert(ctx, staticSource{dm: &prisma.Datamodel{}}, nil)
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}

		var buf bytes.Buffer
		if err := Write(res.Schema, &OutputOptions{Writer: &buf}); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "{\n  \"tables\": []\n}\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("source error", func(t *testing.T) {
		boom := errors.New("boom")
		if _, err := Convert(ctx, staticSource{err: boom}, nil); !errors.Is(err, boom) {
			t.Errorf("error = %v, want boom", err)
		}
	})

	t.Run("excluded models", func(t *testing.T) {
		dm := &prisma.Datamodel{Models: []prisma.Model{{Name: "A"}, {Name: "B"}, {Name: "C"}}}
		res, err := Convert(ctx, staticSource{dm: dm}, &Options{ExcludeModels: []string{"B"}})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Schema.Tables) != 2 || res.Schema.Tables[0].Name != "A" || res.Schema.Tables[1].Name != "C" {
			t.Errorf("tables = %+v", res.Schema.Tables)
		}
	})
}

func TestWriteInvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&xata.Schema{}, &OutputOptions{Format: "yaml", Writer: &buf})
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("error = %v, want invalid format", err)
	}
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantType string
		wantConn string
		wantErr  bool
	}{
		{name: "postgres", url: "postgres://u:p@localhost/db", wantType: "postgres", wantConn: "postgres://u:p@localhost/db"},
		{name: "postgresql", url: "postgresql://localhost/db", wantType: "postgres", wantConn: "postgresql://localhost/db"},
		{name: "mysql", url: "mysql://u:p@tcp(localhost:3306)/db", wantType: "mysql", wantConn: "u:p@tcp(localhost:3306)/db"},
		{name: "sqlite", url: "sqlite://data/app.db", wantType: "sqlite", wantConn: "data/app.db"},
		{name: "empty", url: "", wantErr: true},
		{name: "unknown scheme", url: "mongodb://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbType, conn, err := parseDatabaseURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dbType != tt.wantType || conn != tt.wantConn {
				t.Errorf("got (%q, %q), want (%q, %q)", dbType, conn, tt.wantType, tt.wantConn)
			}
		})
	}

	if _, _, err := parseDatabaseURL("redis://x"); !errors.Is(err, ErrUnsupportedDatabase) {
		t.Errorf("error = %v, want ErrUnsupportedDatabase", err)
	}
}

func TestConvertDatabaseSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	// sqlite creates the file on first use, the introspector sees an empty database
	var buf bytes.Buffer
	res, err := ConvertDatabase(ctx, "sqlite://"+path, nil, &OutputOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("ConvertDatabase failed: %v", err)
	}
	if len(res.Schema.Tables) != 0 {
		t.Errorf("expected no tables, got %+v", res.Schema.Tables)
	}
	if buf.String() != "{\n  \"tables\": []\n}\n" {
		t.Errorf("got %q", buf.String())
	}
}
