package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestListMigrationFilesKeepsUpOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_channel.up.sql",
		"000001_create_posts.up.sql",
		"000001_create_posts.down.sql",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	got := listMigrationFiles(dir)
	want := []string{"000001_create_posts.up.sql", "000002_add_channel.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
}

func TestAppliedBetween(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	cases := []struct {
		from, to uint64
		want     []string
	}{
		{0, 3, files},
		{1, 2, []string{"000002_b.up.sql"}},
		{3, 3, nil},
		{3, 1, nil},
	}
	for _, tc := range cases {
		if got := appliedBetween(files, tc.from, tc.to); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("appliedBetween(%d,%d) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "posts"}
	if got, want := cfg.DSN(), "postgres://bot:p%40ss@db:5432/posts?sslmode=disable"; got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
	cfg.URL = "postgres://u:p@remote:6543/other?sslmode=require"
	if got := cfg.DSN(); got != cfg.URL {
		t.Fatalf("DSN should prefer URL, got %q", got)
	}
	host, name := cfg.Target()
	if host != "remote:6543" || name != "other" {
		t.Fatalf("Target = %q %q", host, name)
	}
}

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := Config{Host: "db", User: "bot", Name: "posts"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Port != "5432" || cfg.MaxConnections != 5 || cfg.MigrationsDir != "migrations" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := (&Config{}).Normalize(); err == nil {
		t.Fatal("expected error for empty config")
	}
}
