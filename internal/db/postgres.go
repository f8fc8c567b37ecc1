package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// PostgresIntrospector reads the catalog of one PostgreSQL schema
type PostgresIntrospector struct {
	conn   *pgx.Conn
	schema string
}

// NewPostgresIntrospector connects to PostgreSQL. schemaName defaults to public.
func NewPostgresIntrospector(ctx context.Context, connString, schemaName string) (*PostgresIntrospector, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if schemaName == "" {
		schemaName = "public"
	}

	return &PostgresIntrospector{conn: conn, schema: schemaName}, nil
}

// Close closes the database connection
func (p *PostgresIntrospector) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

// ExtractCatalog extracts tables and enum types from the schema
func (p *PostgresIntrospector) ExtractCatalog(ctx context.Context, tables []string) (*Catalog, error) {
	tableNames, err := p.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	catalog := &Catalog{}
	for _, tableName := range tableNames {
		table, err := p.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		catalog.Tables = append(catalog.Tables, *table)
	}

	if catalog.Enums, err = p.extractEnums(ctx); err != nil {
		return nil, fmt.Errorf("failed to extract enums: %w", err)
	}

	return catalog, nil
}

func (p *PostgresIntrospector) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := p.conn.Query(ctx, query, p.schema)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (p *PostgresIntrospector) extractTable(ctx context.Context, tableName string) (*Table, error) {
	table := &Table{Name: tableName}

	var err error
	if table.Columns, err = p.extractColumns(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if table.PrimaryKey, err = p.extractPrimaryKey(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	if table.ForeignKeys, err = p.extractForeignKeys(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}

	return table, nil
}

// extractColumns reads columns in ordinal order. User-defined and array
// types are reported by their udt name (e.g. "role", "_int4").
func (p *PostgresIntrospector) extractColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			c.column_name,
			CASE WHEN c.data_type IN ('USER-DEFINED', 'ARRAY') THEN c.udt_name ELSE c.data_type END,
			c.is_nullable = 'YES',
			c.column_default,
			c.is_identity = 'YES',
			EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
					AND tc.table_name = kcu.table_name
				WHERE tc.table_schema = $1
					AND tc.table_name = $2
					AND tc.constraint_type = 'UNIQUE'
					AND kcu.column_name = c.column_name
					AND (
						SELECT count(*) FROM information_schema.key_column_usage k2
						WHERE k2.constraint_name = tc.constraint_name
							AND k2.table_schema = tc.table_schema
					) = 1
			)
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := p.conn.Query(ctx, query, p.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.DefaultValue, &col.AutoIncrement, &col.IsUnique); err != nil {
			return nil, err
		}
		if col.DefaultValue != nil && strings.HasPrefix(*col.DefaultValue, "nextval(") {
			col.AutoIncrement = true
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (p *PostgresIntrospector) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	rows, err := p.conn.Query(ctx, query, p.schema, tableName)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// extractForeignKeys returns one row per constraint. Only the first column
// pair of a composite key becomes a link.
func (p *PostgresIntrospector) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			a.attname,
			ref.relname,
			af.attname
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class ref ON ref.oid = c.confrelid
		JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = c.conkey[1]
		JOIN pg_attribute af ON af.attrelid = c.confrelid AND af.attnum = c.confkey[1]
		WHERE c.contype = 'f'
			AND n.nspname = $1
			AND t.relname = $2
		ORDER BY a.attnum, c.conname
	`

	rows, err := p.conn.Query(ctx, query, p.schema, tableName)
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

func (p *PostgresIntrospector) extractEnums(ctx context.Context) ([]Enum, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := p.conn.Query(ctx, query, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enums []Enum
	for rows.Next() {
		var name, label string
		if err := rows.Scan(&name, &label); err != nil {
			return nil, err
		}
		if len(enums) == 0 || enums[len(enums)-1].Name != name {
			enums = append(enums, Enum{Name: name})
		}
		last := &enums[len(enums)-1]
		last.Values = append(last.Values, label)
	}

	return enums, rows.Err()
}
