package xata

import "github.com/tordrt/xataschema/internal/prisma"

// scalarTypes maps Prisma scalars to Xata column types
var scalarTypes = map[string]ColumnType{
	"String":   TypeString,
	"Boolean":  TypeBool,
	"Int":      TypeInt,
	"BigInt":   TypeInt,
	"Float":    TypeFloat,
	"Decimal":  TypeFloat,
	"DateTime": TypeDatetime,
	"Json":     TypeText,
	"Bytes":    TypeText,
}

// LookupType returns the Xata type for a Prisma scalar name
func LookupType(prismaType string) (ColumnType, bool) {
	t, ok := scalarTypes[prismaType]
	return t, ok
}

// MapType returns the Xata column type for a field. A field named "email"
// always becomes an email column, relations become links, and anything the
// scalar table does not know falls back to string.
func MapType(f prisma.Field) ColumnType {
	if f.Name == "email" {
		return TypeEmail
	}
	if f.IsRelation() {
		return TypeLink
	}
	if t, ok := LookupType(f.Type); ok {
		return t
	}
	return TypeString
}
