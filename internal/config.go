package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/formfill/internal/filler"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
	"github.com/starford/formfill/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Document backends.
const (
	BackendGoogle = "google"
	BackendVault  = "vault"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Docs   DocsConfig        `yaml:"docs"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Fill   FillConfig        `yaml:"fill"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Docs.Validate(); err != nil {
		return fmt.Errorf("docs: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Fill.Validate(); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	return c.Auth.Validate()
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

// DocsConfig selects and configures the document backend used for plain
// document IDs. File paths are always read by the file parsers.
type DocsConfig struct {
	Backend     string        `yaml:"backend"`
	BaseURL     string        `yaml:"base_url"`
	AccessToken string        `yaml:"access_token"`
	TokenFile   string        `yaml:"token_file"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

// Validate validates the docs configuration. The google backend needs a
// token or a token file.
func (c *DocsConfig) Validate() error {
	google := c.Backend == BackendGoogle
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendGoogle, BackendVault)),
		validation.Field(&c.AccessToken,
			validation.When(google && c.TokenFile == "", validation.Required.Error("access_token or token_file is required for the google backend")),
		),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.MaxBackoff, validation.Min(time.Duration(0))),
	)
}

// GoogleDocsOptions converts the section into client options. The token
// is resolved separately with storage.LoadToken.
func (c *DocsConfig) GoogleDocsOptions(token string, logger *slog.Logger) storage.GoogleDocsOptions {
	return storage.GoogleDocsOptions{
		BaseURL:    c.BaseURL,
		Token:      token,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		MaxBackoff: c.MaxBackoff,
		Logger:     logger,
	}
}

// VaultConfig holds the path of the local JSON document store.
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

// FillConfig holds the defaults of every fill.
type FillConfig struct {
	OutlineMode  string  `yaml:"outline_mode"`
	AnswerColor  string  `yaml:"answer_color"`
	AnswerIndent float64 `yaml:"answer_indent"`
	ResultsDir   string  `yaml:"results_dir"`
}

// Validate validates the fill configuration.
func (c *FillConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OutlineMode, validation.By(func(any) error {
			_, err := outline.ParseMode(c.OutlineMode)
			return err
		})),
		validation.Field(&c.AnswerColor, validation.When(c.AnswerColor != "", validation.By(func(any) error {
			_, err := models.ParseColor(c.AnswerColor)
			return err
		}))),
		validation.Field(&c.AnswerIndent, validation.Min(0.0)),
	)
}

// Options converts the section into filler options. It assumes Validate
// has passed.
func (c *FillConfig) Options() filler.Options {
	mode, _ := outline.ParseMode(c.OutlineMode)
	o := filler.Options{Mode: mode, AnswerIndent: filler.Indent(c.AnswerIndent)}
	if c.AnswerColor != "" {
		if rgb, err := models.ParseColor(c.AnswerColor); err == nil {
			o.AnswerColor = &rgb
		}
	}
	return o
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Docs: DocsConfig{
			Backend:    BackendVault,
			Timeout:    30 * time.Second,
			MaxRetries: 5,
			MaxBackoff: 64 * time.Second,
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./formfill.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Fill: FillConfig{
			OutlineMode:  string(outline.ModeAuto),
			AnswerIndent: filler.DefaultAnswerIndent,
			ResultsDir:   ".",
		},
	}
}
