package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/reconcile"
	"github.com/starford/foldertags/internal/vaultpath"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// State backends.
const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

// Prompters.
const (
	PrompterHTTP   = "http"
	PrompterPolicy = "policy"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	State     StateConfig       `yaml:"state"`
	Tagging   TaggingConfig     `yaml:"tagging"`
	Reconcile ReconcileConfig   `yaml:"reconcile"`
	Intake    IntakeConfig      `yaml:"intake"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.State.Validate(); err != nil {
		return err
	}
	if err := c.Tagging.Validate(); err != nil {
		return err
	}
	if err := c.Reconcile.Validate(); err != nil {
		return err
	}
	return c.Intake.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// StateConfig selects where the folder tag map and settings are persisted.
type StateConfig struct {
	Backend string `yaml:"backend"`
	// Path is the state file for the file backend and the kv key for the
	// sqlite backend.
	Path string `yaml:"path"`
}

// Validate validates the state configuration.
func (c *StateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(StateBackendFile, StateBackendSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// TaggingConfig seeds the engine settings when no state has been
// persisted yet.
type TaggingConfig struct {
	InheritanceMode string   `yaml:"inheritance_mode"`
	ExcludedFolders []string `yaml:"excluded_folders"`
	UseFrontMatter  bool     `yaml:"use_front_matter"`
	AutoApply       bool     `yaml:"auto_apply"`
	NewFolderPrompt bool     `yaml:"new_folder_prompt"`
	// DefaultOutcome answers relocation prompts under the policy prompter.
	DefaultOutcome string `yaml:"default_outcome"`
}

// Validate validates the tagging configuration.
func (c *TaggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.InheritanceMode, validation.Required, validation.In(
			string(models.InheritNone), string(models.InheritImmediate), string(models.InheritAll))),
		validation.Field(&c.DefaultOutcome, validation.Required, validation.In(
			string(reconcile.ReplaceAll), string(reconcile.Merge), string(reconcile.NoAction))),
	)
}

// Settings converts the section into engine settings.
func (c *TaggingConfig) Settings() models.Settings {
	excluded := make([]string, 0, len(c.ExcludedFolders))
	for _, f := range c.ExcludedFolders {
		excluded = append(excluded, vaultpath.Normalize(f))
	}
	return models.Settings{
		InheritanceMode: models.InheritanceMode(c.InheritanceMode),
		ExcludedFolders: excluded,
		UseFrontMatter:  c.UseFrontMatter,
		AutoApplyTags:   c.AutoApply,
		NewFolderPrompt: c.NewFolderPrompt,
	}
}

// ReconcileConfig holds reconciliation loop configuration.
type ReconcileConfig struct {
	MoveDebounce  time.Duration `yaml:"move_debounce"`
	PromptTimeout time.Duration `yaml:"prompt_timeout"`
	Prompter      string        `yaml:"prompter"`
}

// Validate validates the reconcile configuration.
func (c *ReconcileConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MoveDebounce, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.PromptTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Prompter, validation.Required, validation.In(PrompterHTTP, PrompterPolicy)),
	)
}

// IntakeConfig holds new-folder intake queue configuration.
type IntakeConfig struct {
	Interval     time.Duration `yaml:"interval"`
	Capacity     int           `yaml:"capacity"`
	StartupGrace time.Duration `yaml:"startup_grace"`
}

// Validate validates the intake configuration.
func (c *IntakeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.StartupGrace, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./foldertags.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		State: StateConfig{
			Backend: StateBackendSQLite,
			Path:    "folder-tags",
		},
		Tagging: TaggingConfig{
			InheritanceMode: string(models.InheritImmediate),
			ExcludedFolders: []string{},
			UseFrontMatter:  true,
			AutoApply:       false,
			NewFolderPrompt: true,
			DefaultOutcome:  string(reconcile.Merge),
		},
		Reconcile: ReconcileConfig{
			MoveDebounce:  300 * time.Millisecond,
			PromptTimeout: 5 * time.Minute,
			Prompter:      PrompterHTTP,
		},
		Intake: IntakeConfig{
			Interval:     time.Second,
			Capacity:     64,
			StartupGrace: 2 * time.Second,
		},
	}
}
