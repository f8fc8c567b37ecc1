package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteIntrospector reads the catalog of a SQLite database file
type SQLiteIntrospector struct {
	db *sql.DB
}

// NewSQLiteIntrospector opens a SQLite database
func NewSQLiteIntrospector(ctx context.Context, path string) (*SQLiteIntrospector, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteIntrospector{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteIntrospector) Close(_ context.Context) error {
	return s.db.Close()
}

// ExtractCatalog extracts tables from the database file
func (s *SQLiteIntrospector) ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error) {
	tableNames := tables
	if len(tableNames) == 0 {
		query := `
			SELECT name
			FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name
		`
		var err error
		if tableNames, err = queryStrings(ctx, s.db, query); err != nil {
			return nil, fmt.Errorf("failed to get table names: %w", err)
		}
	}

	catalog := &Catalog{}
	for _, tableName := range tableNames {
		table, err := s.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		catalog.Tables = append(catalog.Tables, *table)
	}

	return catalog, nil
}

func (s *SQLiteIntrospector) extractTable(ctx context.Context, tableName string) (*Table, error) {
	table := &Table{Name: tableName}

	if err := s.extractColumns(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}

	unique, err := s.uniqueColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract unique indexes: %w", err)
	}
	for i := range table.Columns {
		table.Columns[i].IsUnique = unique[table.Columns[i].Name] && !table.IsPrimaryKey(table.Columns[i].Name)
	}

	if table.ForeignKeys, err = s.extractForeignKeys(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}

	return table, nil
}

// extractColumns fills columns and primary key from PRAGMA table_info. An
// INTEGER PRIMARY KEY aliases the rowid and therefore auto-increments.
func (s *SQLiteIntrospector) extractColumns(ctx context.Context, table *Table) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return err
		}

		col := Column{Name: name, Type: colType, Nullable: notNull == 0 && pk == 0}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		if pk > 0 {
			table.PrimaryKey = append(table.PrimaryKey, name)
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(table.PrimaryKey) == 1 {
		for i := range table.Columns {
			col := &table.Columns[i]
			if col.Name == table.PrimaryKey[0] && strings.EqualFold(col.Type, "INTEGER") {
				col.AutoIncrement = true
			}
		}
	}

	return nil
}

// uniqueColumns returns the columns covered by a single-column unique index
func (s *SQLiteIntrospector) uniqueColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var uniqueIndexes []string
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		if unique == 1 && origin != "pk" {
			uniqueIndexes = append(uniqueIndexes, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]bool)
	for _, index := range uniqueIndexes {
		columns, err := s.indexColumns(ctx, index)
		if err != nil {
			return nil, err
		}
		if len(columns) == 1 {
			result[columns[0]] = true
		}
	}

	return result, nil
}

func (s *SQLiteIntrospector) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

func (s *SQLiteIntrospector) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		// only the first column of a composite key becomes a link
		if seq > 0 {
			continue
		}

		fk := ForeignKey{Column: fromCol, TargetTable: targetTable, TargetColumn: toCol.String}
		if !toCol.Valid {
			fk.TargetColumn = "rowid"
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
