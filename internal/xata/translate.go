package xata

import (
	"fmt"

	"github.com/tordrt/xataschema/internal/prisma"
)

// identityField is managed by Xata itself and never emitted as a column
const identityField = "id"

// Options configures schema translation
type Options struct {
	// ExcludeModels lists models that are left out of the output entirely
	ExcludeModels []string
}

// Translate converts models into a Xata schema. Table order follows model
// order and column order follows field order, minus the identity field.
// The returned warnings list every lossy conversion, in encounter order.
func Translate(models []prisma.Model) (*Schema, []Warning) {
	return TranslateWithOptions(models, nil)
}

// TranslateWithOptions is Translate with model exclusions applied first
func TranslateWithOptions(models []prisma.Model, opts *Options) (*Schema, []Warning) {
	excluded := make(map[string]bool)
	if opts != nil {
		for _, name := range opts.ExcludeModels {
			excluded[name] = true
		}
	}

	s := &Schema{Tables: make([]Table, 0, len(models))}
	var warnings []Warning

	for _, model := range models {
		if excluded[model.Name] {
			continue
		}

		table := Table{Name: model.Name, Columns: make([]Column, 0, len(model.Fields))}
		for _, field := range model.Fields {
			if field.Name == identityField {
				continue
			}

			col, fieldWarnings := TranslateField(field)
			for _, w := range fieldWarnings {
				w.Table = model.Name
				warnings = append(warnings, w)
			}
			table.Columns = append(table.Columns, col)
		}

		s.Tables = append(s.Tables, table)
	}

	return s, warnings
}

// TranslateField converts one field into a column. It never fails: anything
// without a Xata equivalent degrades to a string type or an absent default,
// and is reported in the returned warnings.
func TranslateField(f prisma.Field) (Column, []Warning) {
	var warnings []Warning

	colType := MapType(f)
	col := Column{
		Name:   f.Name,
		Type:   colType,
		Unique: f.IsUnique,
	}

	if colType == TypeLink {
		col.Link = &Link{Table: f.Type}
	}

	if !f.IsID && f.Name != identityField && !f.IsUnique && colType != TypeLink {
		notNull := f.IsRequired
		col.NotNull = &notNull
	}

	if colType == TypeString {
		if _, known := LookupType(f.Type); !known {
			warnings = append(warnings, fallbackWarning(f))
		}
	}

	def, w := defaultValue(f)
	col.DefaultValue = def
	if w != nil {
		warnings = append(warnings, *w)
	}

	return col, warnings
}

// defaultValue decides the Xata default for a field. Identity, email, unique
// and relation columns never carry one.
func defaultValue(f prisma.Field) (*string, *Warning) {
	if f.Name == identityField || f.Name == "email" || f.IsUnique || f.IsRelation() {
		return nil, nil
	}

	d := f.Default
	if d.IsUnrecognized() {
		return nil, &Warning{
			Kind:    WarnDroppedDefault,
			Column:  f.Name,
			Message: fmt.Sprintf("default %s is not a literal or generator and was dropped", d.Raw),
		}
	}
	if d == nil || (!d.IsGenerator() && d.Value == nil) {
		return nil, nil
	}

	if !d.IsGenerator() {
		v := d.String()
		return &v, nil
	}

	gen := d.Generator
	if gen.Name == "autoincrement" {
		return nil, &Warning{
			Kind:    WarnDroppedDefault,
			Column:  f.Name,
			Message: "autoincrement() default has no Xata equivalent and was dropped",
		}
	}

	v := gen.Name
	if len(gen.Args) > 0 {
		return &v, &Warning{
			Kind:    WarnGeneratorArgs,
			Column:  f.Name,
			Message: fmt.Sprintf("default %s() kept as %q, arguments %v were dropped", gen.Name, v, gen.Args),
		}
	}
	return &v, nil
}

func fallbackWarning(f prisma.Field) Warning {
	msg := fmt.Sprintf("type %s has no Xata equivalent, stored as string", f.Type)
	if f.Kind == prisma.KindEnum {
		msg = fmt.Sprintf("enum %s stored as string", f.Type)
	}
	return Warning{Kind: WarnTypeFallback, Column: f.Name, Message: msg}
}
