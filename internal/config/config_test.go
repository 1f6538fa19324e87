package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Addr != ":8080" {
		t.Fatalf("addr: %s", cfg.Addr)
	}
	if cfg.Solver.CoolingRate != 0.99975 || cfg.Solver.MaxIterations != 10000 {
		t.Fatalf("solver defaults: %+v", cfg.Solver)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "addr: \":9090\"\nsolver:\n  maxIterations: 123\n  destroyOperators: [shaw_destroy]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" { // env wins over file
		t.Fatalf("addr: %s", cfg.Addr)
	}
	if cfg.Solver.MaxIterations != 123 {
		t.Fatalf("maxIterations: %d", cfg.Solver.MaxIterations)
	}
	if len(cfg.Solver.DestroyOperators) != 1 || cfg.Solver.DestroyOperators[0] != "shaw_destroy" {
		t.Fatalf("operators: %v", cfg.Solver.DestroyOperators)
	}
	// untouched fields keep their defaults
	if cfg.Solver.CoolingRate != 0.99975 {
		t.Fatalf("cooling: %f", cfg.Solver.CoolingRate)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("addr: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("PORT", "")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}
