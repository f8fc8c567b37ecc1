package db

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/xataschema/internal/prisma"
)

// sqlScalars maps lower-cased SQL base types to Prisma scalars. Types are
// matched after stripping modifiers such as "(255)" or " unsigned".
var sqlScalars = map[string]string{
	"bool": "Boolean", "boolean": "Boolean",

	"smallint": "Int", "integer": "Int", "int": "Int", "int2": "Int", "int4": "Int",
	"mediumint": "Int", "tinyint": "Int", "serial": "Int", "serial2": "Int",
	"serial4": "Int", "smallserial": "Int", "year": "Int",

	"bigint": "BigInt", "int8": "BigInt", "bigserial": "BigInt", "serial8": "BigInt",

	"real": "Float", "double precision": "Float", "double": "Float",
	"float": "Float", "float4": "Float", "float8": "Float",

	"numeric": "Decimal", "decimal": "Decimal", "money": "Decimal",

	"date": "DateTime", "datetime": "DateTime",

	"json": "Json", "jsonb": "Json",

	"bytea": "Bytes", "blob": "Bytes", "binary": "Bytes", "varbinary": "Bytes",
	"tinyblob": "Bytes", "mediumblob": "Bytes", "longblob": "Bytes",

	"text": "String", "varchar": "String", "character varying": "String",
	"char": "String", "character": "String", "bpchar": "String", "uuid": "String",
	"citext": "String", "tinytext": "String", "mediumtext": "String",
	"longtext": "String", "clob": "String", "nvarchar": "String", "nchar": "String",
	"xml": "String", "inet": "String", "cidr": "String",
}

// ToDatamodel converts an extracted catalog into Prisma models. Each table
// becomes a model with one scalar field per column. Every foreign key adds
// a relation field on the referencing model, named after the referenced
// table, and a back-relation on the referenced model.
func ToDatamodel(c *Catalog) *prisma.Datamodel {
	dm := &prisma.Datamodel{Models: make([]prisma.Model, 0, len(c.Tables))}

	enums := make(map[string]bool, len(c.Enums))
	for _, e := range c.Enums {
		enums[e.Name] = true
		dm.Enums = append(dm.Enums, toEnum(e.Name, e.Values))
	}

	index := make(map[string]int, len(c.Tables))
	taken := make([]map[string]bool, len(c.Tables))

	for i, table := range c.Tables {
		index[table.Name] = i
		taken[i] = make(map[string]bool, len(table.Columns))

		fkColumns := make(map[string]bool, len(table.ForeignKeys))
		for _, fk := range table.ForeignKeys {
			fkColumns[fk.Column] = true
		}

		model := prisma.Model{Name: table.Name}
		for _, col := range table.Columns {
			f := columnField(&table, col, enums)
			if len(col.EnumValues) > 0 {
				name := table.Name + "_" + col.Name
				dm.Enums = append(dm.Enums, toEnum(name, col.EnumValues))
				f.Kind, f.Type = prisma.KindEnum, name
			}
			f.IsReadOnly = fkColumns[col.Name]

			model.Fields = append(model.Fields, f)
			taken[i][col.Name] = true
		}
		dm.Models = append(dm.Models, model)
	}

	for i, table := range c.Tables {
		perTarget := make(map[string]int)
		for _, fk := range table.ForeignKeys {
			perTarget[fk.TargetTable]++
		}

		for _, fk := range table.ForeignKeys {
			j, ok := index[fk.TargetTable]
			if !ok {
				// referenced table was not extracted; keep the plain column
				continue
			}

			relation := prisma.RelationName(table.Name, fk.TargetTable)
			if perTarget[fk.TargetTable] > 1 {
				relation = fmt.Sprintf("%s_%sTo%s", table.Name, fk.Column, fk.TargetTable)
			}

			col := findColumn(&table, fk.Column)
			required := col != nil && !col.Nullable
			oneToOne := col != nil && col.IsUnique

			dm.Models[i].Fields = append(dm.Models[i].Fields, prisma.Field{
				Name:               uniqueName(taken[i], fk.TargetTable, fk.TargetTable+"_"+fk.Column),
				Kind:               prisma.KindObject,
				Type:               fk.TargetTable,
				IsRequired:         required,
				RelationName:       relation,
				RelationFromFields: []string{fk.Column},
				RelationToFields:   []string{fk.TargetColumn},
			})

			dm.Models[j].Fields = append(dm.Models[j].Fields, prisma.Field{
				Name:         uniqueName(taken[j], table.Name, table.Name+"_"+fk.Column),
				Kind:         prisma.KindObject,
				Type:         table.Name,
				IsList:       !oneToOne,
				IsRequired:   !oneToOne,
				RelationName: relation,
			})
		}
	}

	return dm
}

func toEnum(name string, values []string) prisma.Enum {
	e := prisma.Enum{Name: name}
	for _, v := range values {
		e.Values = append(e.Values, prisma.EnumValue{Name: v})
	}
	return e
}

func columnField(table *Table, col Column, enums map[string]bool) prisma.Field {
	typeName, kind, isList := scalarFor(col.Type, enums)

	f := prisma.Field{
		Name:       col.Name,
		Kind:       kind,
		Type:       typeName,
		IsList:     isList,
		IsRequired: isList || !col.Nullable,
		IsID:       len(table.PrimaryKey) == 1 && table.PrimaryKey[0] == col.Name,
		IsUnique:   col.IsUnique,
	}
	if f.IsID {
		f.IsUnique = false
	}

	f.Default = columnDefault(col, typeName, kind)
	f.HasDefaultValue = f.Default != nil

	return f
}

// scalarFor maps a SQL column type to a Prisma type name. Unknown types
// are returned unchanged with KindUnsupported.
func scalarFor(raw string, enums map[string]bool) (string, prisma.FieldKind, bool) {
	// PostgreSQL reports array columns by udt name, e.g. _int4
	if strings.HasPrefix(raw, "_") && len(raw) > 1 {
		name, kind, _ := scalarFor(raw[1:], enums)
		return name, kind, true
	}
	if enums[raw] {
		return raw, prisma.KindEnum, false
	}

	t := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(t, "tinyint(1)") || t == "bit(1)" {
		return "Boolean", prisma.KindScalar, false
	}

	base := t
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(base), "unsigned"))

	if name, ok := sqlScalars[base]; ok {
		return name, prisma.KindScalar, false
	}
	if strings.HasPrefix(base, "timestamp") || strings.HasPrefix(base, "time") {
		return "DateTime", prisma.KindScalar, false
	}
	if base == "enum" {
		return "String", prisma.KindScalar, false
	}

	return raw, prisma.KindUnsupported, false
}

// columnDefault reads a column default the way Prisma introspection does:
// sequences become autoincrement(), current timestamps become now(),
// literals are kept as values and anything else is dbgenerated.
func columnDefault(col Column, typeName string, kind prisma.FieldKind) *prisma.Default {
	if col.AutoIncrement {
		return prisma.Call("autoincrement")
	}
	if col.DefaultValue == nil {
		return nil
	}

	raw := strings.TrimSpace(*col.DefaultValue)
	lower := strings.ToLower(raw)
	switch {
	case lower == "" || lower == "null" || strings.HasPrefix(lower, "null::"):
		return nil
	case strings.HasPrefix(lower, "nextval("):
		return prisma.Call("autoincrement")
	case lower == "now()" || strings.HasPrefix(lower, "current_timestamp"):
		return prisma.Call("now")
	}

	text, quoted := unquoteSQL(raw)
	if v, ok := literalValue(typeName, text); ok {
		return prisma.Literal(v)
	}
	textual := typeName == "String" || kind == prisma.KindEnum
	if quoted || (textual && !strings.ContainsAny(raw, "()")) {
		return prisma.Literal(text)
	}

	return prisma.Call("dbgenerated", raw)
}

func literalValue(typeName, text string) (any, bool) {
	switch typeName {
	case "Boolean":
		switch strings.ToLower(text) {
		case "true", "t", "1", "b'1'":
			return true, true
		case "false", "f", "0", "b'0'":
			return false, true
		}
	case "Int", "BigInt", "Float", "Decimal":
		n := strings.Trim(text, "()")
		if _, err := strconv.ParseFloat(n, 64); err == nil {
			return json.Number(n), true
		}
	}
	return nil, false
}

// unquoteSQL strips a leading '...' literal, dropping any trailing cast
// such as ::character varying.
func unquoteSQL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "'") {
		return raw, false
	}

	var b strings.Builder
	for i := 1; i < len(raw); i++ {
		if raw[i] != '\'' {
			b.WriteByte(raw[i])
			continue
		}
		if i+1 < len(raw) && raw[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return b.String(), true
	}
	return raw, false
}

func uniqueName(taken map[string]bool, base, alt string) string {
	name := base
	if taken[name] {
		name = alt
	}
	for n := 2; taken[name]; n++ {
		name = alt + strconv.Itoa(n)
	}
	taken[name] = true
	return name
}

func findColumn(t *Table, name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
