//go:build integration
// +build integration

package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

const fixtureDDL = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	email VARCHAR(255) NOT NULL UNIQUE,
	name TEXT,
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY,
	title VARCHAR(200) NOT NULL DEFAULT 'Untitled',
	views INTEGER NOT NULL DEFAULT 0,
	author_id INTEGER NOT NULL,
	FOREIGN KEY (author_id) REFERENCES users(id)
);
CREATE TABLE regions (
	country VARCHAR(8) NOT NULL,
	code VARCHAR(8) NOT NULL,
	PRIMARY KEY (country, code)
);
CREATE TABLE offices (
	id INTEGER PRIMARY KEY,
	country VARCHAR(8) NOT NULL,
	code VARCHAR(8) NOT NULL,
	FOREIGN KEY (country, code) REFERENCES regions(country, code)
);
`

const dropFixture = "DROP TABLE IF EXISTS offices; DROP TABLE IF EXISTS regions; DROP TABLE IF EXISTS posts; DROP TABLE IF EXISTS users;"


func TestSQLiteIntrospection(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fixture.db")
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to create SQLite database: %v", err)
	}
	if _, err := raw.ExecContext(ctx, fixtureDDL); err != nil {
		t.Fatalf("Failed to create fixture tables: %v", err)
	}
	_ = raw.Close()

	in, err := NewSQLiteIntrospector(ctx, path)
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer in.Close(ctx)

	catalog, err := in.ExtractCatalog(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to extract catalog: %v", err)
	}

	verifyFixture(t, catalog)
}

func TestPostgresIntrospection(t *testing.T) {
	ctx := context.Background()

	connString := os.Getenv("POSTGRES_TEST_URL")
	if connString == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	setup, err := pgx.Connect(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer setup.Close(ctx)

	for _, stmt := range []string{
		"DROP SCHEMA IF EXISTS xataschema_it CASCADE",
		"CREATE SCHEMA xataschema_it",
		"SET search_path TO xataschema_it",
		fixtureDDL,
	} {
		if _, err := setup.Exec(ctx, stmt); err != nil {
			t.Fatalf("Failed to prepare fixture: %v", err)
		}
	}
	defer func() { _, _ = setup.Exec(ctx, "DROP SCHEMA IF EXISTS xataschema_it CASCADE") }()

	in, err := NewPostgresIntrospector(ctx, connString, "xataschema_it")
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer in.Close(ctx)

	catalog, err := in.ExtractCatalog(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to extract catalog: %v", err)
	}

	verifyFixture(t, catalog)
}

func TestMySQLIntrospection(t *testing.T) {
	ctx := context.Background()

	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	setup, err := sql.Open("mysql", dsn+sep+"multiStatements=true")
	if err != nil {
		t.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer setup.Close()

	if _, err := setup.ExecContext(ctx, dropFixture+fixtureDDL); err != nil {
		t.Fatalf("Failed to prepare fixture: %v", err)
	}
	defer func() { _, _ = setup.ExecContext(ctx, dropFixture) }()

	in, err := NewMySQLIntrospector(ctx, dsn, "")
	if err != nil {
		t.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer in.Close(ctx)

	catalog, err := in.ExtractCatalog(ctx, []string{"users", "posts", "regions", "offices"})
	if err != nil {
		t.Fatalf("Failed to extract catalog: %v", err)
	}

	verifyFixture(t, catalog)
}

// verifyFixture checks the catalog read from fixtureDDL and its model conversion
func verifyFixture(t *testing.T, c *Catalog) {
	t.Helper()

	users := c.FindTable("users")
	posts := c.FindTable("posts")
	if users == nil || posts == nil {
		t.Fatalf("Expected users and posts tables, got %+v", c.Tables)
	}

	if len(users.PrimaryKey) != 1 || users.PrimaryKey[0] != "id" {
		t.Errorf("Expected primary key [id], got %v", users.PrimaryKey)
	}

	email := findColumn(users, "email")
	if email == nil || !email.IsUnique || email.Nullable {
		t.Errorf("Expected users.email to be unique and not null, got %+v", email)
	}

	if len(posts.ForeignKeys) != 1 || posts.ForeignKeys[0].TargetTable != "users" || posts.ForeignKeys[0].Column != "author_id" {
		t.Errorf("Expected posts.author_id -> users, got %+v", posts.ForeignKeys)
	}

	// a composite key yields one link on its first column only
	offices := c.FindTable("offices")
	if offices == nil {
		t.Fatalf("Expected offices table, got %+v", c.Tables)
	}
	if len(offices.ForeignKeys) != 1 {
		t.Fatalf("Expected one foreign key on offices, got %+v", offices.ForeignKeys)
	}
	if fk := offices.ForeignKeys[0]; fk.Column != "country" || fk.TargetTable != "regions" || fk.TargetColumn != "country" {
		t.Errorf("Expected offices.country -> regions.country, got %+v", fk)
	}

	dm := ToDatamodel(c)
	var postModel, userModel int = -1, -1
	for i, m := range dm.Models {
		switch m.Name {
		case "posts":
			postModel = i
		case "users":
			userModel = i
		}
	}

	title := field(t, dm.Models[postModel], "title")
	if title.Default.String() != "Untitled" {
		t.Errorf("Expected posts.title default Untitled, got %s", title.Default)
	}
	if views := field(t, dm.Models[postModel], "views"); views.Default.String() != "0" {
		t.Errorf("Expected posts.views default 0, got %s", views.Default)
	}
	if rel := field(t, dm.Models[postModel], "users"); rel.RelationName != "postsTousers" {
		t.Errorf("Expected relation postsTousers, got %s", rel.RelationName)
	}
	if created := field(t, dm.Models[userModel], "created_at"); created.Default.String() != "now" {
		t.Errorf("Expected users.created_at default now(), got %s", created.Default)
	}
}
