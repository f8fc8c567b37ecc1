package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQLIntrospector reads the catalog of one MySQL database
type MySQLIntrospector struct {
	db         *sql.DB
	schemaName string
}

// NewMySQLIntrospector connects to MySQL. When schemaName is empty the
// database named in the DSN is used.
func NewMySQLIntrospector(ctx context.Context, dsn, schemaName string) (*MySQLIntrospector, error) {
	if schemaName == "" {
		var err error
		if schemaName, err = ParseDatabaseName(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLIntrospector{db: db, schemaName: schemaName}, nil
}

// ParseDatabaseName returns the database named in a MySQL DSN
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("MySQL DSN does not name a database")
	}
	return cfg.DBName, nil
}

// Close closes the database connection
func (m *MySQLIntrospector) Close(_ context.Context) error {
	return m.db.Close()
}

// ExtractCatalog extracts tables from the database. MySQL enums are inline
// column types, so they are returned on the columns rather than as Enums.
func (m *MySQLIntrospector) ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error) {
	tableNames, err := m.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	catalog := &Catalog{}
	for _, tableName := range tableNames {
		table, err := m.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		catalog.Tables = append(catalog.Tables, *table)
	}

	return catalog, nil
}

func (m *MySQLIntrospector) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	return queryStrings(ctx, m.db, query, m.schemaName)
}

func (m *MySQLIntrospector) extractTable(ctx context.Context, tableName string) (*Table, error) {
	table := &Table{Name: tableName}

	var err error
	if table.Columns, err = m.extractColumns(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}

	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`
	if table.PrimaryKey, err = queryStrings(ctx, m.db, query, m.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}

	if table.ForeignKeys, err = m.extractForeignKeys(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}

	return table, nil
}

func (m *MySQLIntrospector) extractColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra,
			EXISTS (
				SELECT 1 FROM information_schema.statistics s
				WHERE s.table_schema = c.table_schema
					AND s.table_name = c.table_name
					AND s.column_name = c.column_name
					AND s.non_unique = 0
					AND s.index_name != 'PRIMARY'
					AND (
						SELECT count(*) FROM information_schema.statistics s2
						WHERE s2.table_schema = s.table_schema
							AND s2.table_name = s.table_name
							AND s2.index_name = s.index_name
					) = 1
			) AS is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := m.db.QueryContext(ctx, query, m.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable, extra string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultVal, &extra, &col.IsUnique); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if defaultVal.Valid {
			col.DefaultValue = &defaultVal.String
		}
		if strings.HasPrefix(col.Type, "enum(") {
			if col.EnumValues, err = parseEnumValues(col.Type); err != nil {
				return nil, err
			}
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (m *MySQLIntrospector) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
			AND kcu.ordinal_position = 1
		ORDER BY kcu.constraint_name
	`

	rows, err := m.db.QueryContext(ctx, query, m.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Column, &fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// parseEnumValues reads the members of "enum('a','b','c')"
func parseEnumValues(columnType string) ([]string, error) {
	start := strings.Index(columnType, "(")
	end := strings.LastIndex(columnType, ")")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("invalid enum type format: %s", columnType)
	}

	var values []string
	for _, part := range strings.Split(columnType[start+1:end], ",") {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && part[0] == '\'' && part[len(part)-1] == '\'' {
			part = strings.ReplaceAll(part[1:len(part)-1], "''", "'")
		}
		values = append(values, part)
	}

	return values, nil
}

// queryStrings runs a query returning a single string column
func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
