package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "s3cret")
	path := writeFile(t, "port: 9090\ntoken: ${SAMPLE_TOKEN}\n")

	cfg := sample{Name: "default", Port: 1}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "default" || cfg.Port != 9090 || cfg.Token != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	cfg := sample{Port: 1}
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("expected error for missing file")
	}
	if err := Load(writeFile(t, "port: [\n"), &cfg); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("bad yaml err = %v", err)
	}
	if err := Load(writeFile(t, "port: 0\n"), &cfg); err == nil || !strings.Contains(err.Error(), "validation") {
		t.Errorf("invalid err = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Fatalf("absent file: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}

	bad := sample{}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &bad); err == nil {
		t.Error("defaults should still be validated")
	}

	if err := LoadOptional(writeFile(t, "port: 7070\n"), &cfg); err != nil || cfg.Port != 7070 {
		t.Errorf("present file: %v, port %d", err, cfg.Port)
	}
}
