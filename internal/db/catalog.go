// Package db introspects a live PostgreSQL, MySQL or SQLite database and
// turns its tables into a Prisma data model, the way `prisma db pull` would.
package db

import "context"

// Catalog is the relational structure read from a database
type Catalog struct {
	Tables []Table
	Enums  []Enum
}

// Table represents a database table
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Column represents a table column
type Column struct {
	Name          string
	Type          string
	Nullable      bool
	DefaultValue  *string
	IsUnique      bool // single-column unique constraint
	AutoIncrement bool
	EnumValues    []string
}

// ForeignKey is a single-column foreign key
type ForeignKey struct {
	Column       string
	TargetTable  string
	TargetColumn string
}

// Enum is a named enum type (PostgreSQL CREATE TYPE ... AS ENUM)
type Enum struct {
	Name   string
	Values []string
}

// Introspector reads the catalog of one database
type Introspector interface {
	// ExtractCatalog extracts the given tables, or every table when tables is empty
	ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error)
	Close(ctx context.Context) error
}

// FindTable returns the table with the given name, or nil
func (c *Catalog) FindTable(name string) *Table {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether column is part of the table's primary key
func (t *Table) IsPrimaryKey(column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}
