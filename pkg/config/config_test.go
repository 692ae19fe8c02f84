package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
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

func TestLoad_KeepsDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "vault")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	s := &sample{Port: 8080}
	if err := Load(path, s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "vault" {
		t.Errorf("Name = %q, want %q", s.Name, "vault")
	}
	if s.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", s.Port)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, "port: -1\n")
	if err := Load(path, &sample{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &sample{Port: 1})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	s := &sample{Port: 9000}
	if err := LoadOptional(missing, s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Port != 9000 {
		t.Errorf("Port = %d, want 9000", s.Port)
	}

	if err := LoadOptional(missing, &sample{}); err == nil {
		t.Error("defaults should still be validated")
	}

	path := writeFile(t, "port: 7\n")
	s = &sample{Port: 9000}
	if err := LoadOptional(path, s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Port != 7 {
		t.Errorf("Port = %d, want 7", s.Port)
	}
}
