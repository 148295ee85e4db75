package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	names := Names()
	if len(names) != 1 || names[0] != "20260101000001" {
		t.Fatalf("unexpected migrations: %v", names)
	}
}

func TestRender_UsesSchema(t *testing.T) {
	fsys, err := Render("tenant_a")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	up, err := fs.ReadFile(fsys, "20260101000001_vipps_profiles.up.sql")
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	for _, want := range []string{"CREATE SCHEMA IF NOT EXISTS tenant_a;", "tenant_a.profiles", "tenant_a.addresses"} {
		if !strings.Contains(string(up), want) {
			t.Fatalf("up migration missing %q", want)
		}
	}
	if strings.Contains(string(up), "vipps.") || strings.Contains(string(up), "{{") {
		t.Fatalf("up migration not fully rendered:\n%s", up)
	}

	m, err := ForSchema("tenant_a")
	if err != nil {
		t.Fatalf("for schema: %v", err)
	}
	if got := len(m.Sorted()); got != 1 {
		t.Fatalf("expected 1 migration, got %d", got)
	}
}

func TestRender_RejectsUnsafeSchema(t *testing.T) {
	for _, name := range []string{"", "Vipps", "vipps; DROP TABLE x", "1abc", "a.b"} {
		if _, err := Render(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}
