// Package migrations embeds the Postgres schema for stored Vipps profiles.
// The SQL is rendered for a schema name, so it matches whatever schema
// identity.Store was configured with.
package migrations

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"testing/fstest"
	"text/template"

	"github.com/uptrace/bun/migrate"
)

// DefaultSchema is the schema identity.NewStore uses when none is given.
const DefaultSchema = "vipps"

//go:embed *.sql.tmpl
var templateFS embed.FS

var schemaName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Migrations is the bun/migrate registry for DefaultSchema.
var Migrations = mustForSchema(DefaultSchema)

// ValidSchema reports whether name is a plain lower-case Postgres identifier.
func ValidSchema(name string) bool { return schemaName.MatchString(name) }

// Render returns the SQL files for schema, named the way bun/migrate
// discovers them.
func Render(schema string) (fs.FS, error) {
	if !ValidSchema(schema) {
		return nil, fmt.Errorf("migrations: invalid schema name %q", schema)
	}
	names, err := fs.Glob(templateFS, "*.sql.tmpl")
	if err != nil {
		return nil, err
	}
	out := fstest.MapFS{}
	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("migrations: parse %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, struct{ Schema string }{schema}); err != nil {
			return nil, fmt.Errorf("migrations: render %s: %w", name, err)
		}
		out[strings.TrimSuffix(name, ".tmpl")] = &fstest.MapFile{Data: buf.Bytes()}
	}
	return out, nil
}

// ForSchema returns a bun/migrate registry whose SQL targets schema.
func ForSchema(schema string) (*migrate.Migrations, error) {
	fsys, err := Render(schema)
	if err != nil {
		return nil, err
	}
	m := migrate.NewMigrations()
	if err := m.Discover(fsys); err != nil {
		return nil, fmt.Errorf("migrations: discover: %w", err)
	}
	return m, nil
}

func mustForSchema(schema string) *migrate.Migrations {
	m, err := ForSchema(schema)
	if err != nil {
		panic(err)
	}
	return m
}

// Names returns the migration names in apply order.
func Names() []string {
	sorted := Migrations.Sorted()
	out := make([]string, 0, len(sorted))
	for _, m := range sorted {
		out = append(out, m.Name)
	}
	return out
}
