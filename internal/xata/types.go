// Package xata translates a Prisma data model into a Xata table schema.
package xata

// ColumnType is a Xata column type
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeBool     ColumnType = "bool"
	TypeInt      ColumnType = "int"
	TypeFloat    ColumnType = "float"
	TypeDatetime ColumnType = "datetime"
	TypeText     ColumnType = "text"
	TypeEmail    ColumnType = "email"
	TypeLink     ColumnType = "link"
)

// Schema is the document written to xataSchema.json
type Schema struct {
	Tables []Table `json:"tables"`
}

// Table is a Xata table. The identity column is managed by Xata and never
// listed here.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column is a Xata column. Link, DefaultValue and NotNull are pointers
// because an absent value is not the same thing as a zero value: a missing
// notNull leaves nullability to Xata, while false states it explicitly.
type Column struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	Link         *Link      `json:"link,omitempty"`
	DefaultValue *string    `json:"defaultValue,omitempty"`
	Unique       bool       `json:"unique"`
	NotNull      *bool      `json:"notNull,omitempty"`
}

// Link names the table a link column points at
type Link struct {
	Table string `json:"table"`
}

// FindTable returns the table with the given name, or nil
func (s *Schema) FindTable(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// FindColumn returns the column with the given name, or nil
func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
