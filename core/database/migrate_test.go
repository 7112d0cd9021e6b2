package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestUpFilesAndBetween(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_names.up.sql", "0001_products.up.sql", "0001_products.down.sql", "notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	files := upFiles(dir)
	want := []string{"0001_products.up.sql", "0002_names.up.sql"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("upFiles = %v, want %v", files, want)
	}
	if got := between(files, 1, 2); !reflect.DeepEqual(got, want[1:]) {
		t.Fatalf("between(1,2) = %v", got)
	}
	if got := between(files, 2, 2); len(got) != 0 {
		t.Fatalf("between(2,2) = %v, want none", got)
	}
}

func TestConfigNormalizeAndURL(t *testing.T) {
	cfg := Config{Host: "db", Name: "prices", User: "bot", Password: "p@ss"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Port != "5432" || cfg.SSLMode != "disable" || cfg.MigrationsDir != "migrations" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if got, want := cfg.URL(), "postgres://bot:p%40ss@db:5432/prices?sslmode=disable"; got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}
	if err := (&Config{Name: "x"}).Normalize(); err == nil {
		t.Fatal("missing host should fail")
	}
}
