package internal

import (
	"strings"
	"testing"

	"github.com/starford/foldertags/internal/models"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	s := cfg.Tagging.Settings()
	if s.InheritanceMode != models.InheritImmediate || !s.UseFrontMatter || !s.NewFolderPrompt {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestStateConfig_InvalidBackend(t *testing.T) {
	cfg := StateConfig{Backend: "redis", Path: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail validation")
	}
}

func TestTaggingConfig(t *testing.T) {
	cfg := NewDefaultConfig().Tagging
	cfg.InheritanceMode = "sideways"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown inheritance mode should fail validation")
	}

	cfg = NewDefaultConfig().Tagging
	cfg.DefaultOutcome = "keep-all"
	if err := cfg.Validate(); err == nil {
		t.Error("conflict outcome is not a valid default")
	}

	cfg = NewDefaultConfig().Tagging
	cfg.ExcludedFolders = []string{"/Archive/", `Templates\Daily`}
	got := cfg.Settings().ExcludedFolders
	if len(got) != 2 || got[0] != "Archive" || got[1] != "Templates/Daily" {
		t.Errorf("excluded = %v", got)
	}
}

func TestReconcileAndIntakeConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Reconcile.Prompter = "telepathy"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown prompter should fail validation")
	}

	cfg = NewDefaultConfig()
	cfg.Intake.Capacity = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero capacity should fail validation")
	}

	cfg = NewDefaultConfig()
	cfg.Reconcile.MoveDebounce = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero debounce should fail validation")
	}
}
