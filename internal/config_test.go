package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/formfill/internal/outline"
	pkgconfig "github.com/starford/formfill/pkg/config"
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

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("empty token err = %v", err)
	}

	if err := (&AuthConfig{Mode: "magic", Token: "x"}).Validate(); err == nil {
		t.Error("invalid mode should fail validation")
	}
}

func TestDocsConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DocsConfig
		wantErr bool
	}{
		{"vault", DocsConfig{Backend: BackendVault}, false},
		{"google with token", DocsConfig{Backend: BackendGoogle, AccessToken: "t"}, false},
		{"google with token file", DocsConfig{Backend: BackendGoogle, TokenFile: "token.json"}, false},
		{"google without credentials", DocsConfig{Backend: BackendGoogle}, true},
		{"unknown backend", DocsConfig{Backend: "dropbox"}, true},
		{"negative retries", DocsConfig{Backend: BackendVault, MaxRetries: -1}, true},
		{"negative backoff", DocsConfig{Backend: BackendVault, MaxBackoff: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFillConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     FillConfig
		wantErr bool
	}{
		{"defaults", NewDefaultConfig().Fill, false},
		{"named colour", FillConfig{OutlineMode: "text_based", AnswerColor: "blue"}, false},
		{"hex colour", FillConfig{AnswerColor: "#336699"}, false},
		{"bad colour", FillConfig{AnswerColor: "sparkly"}, true},
		{"bad mode", FillConfig{OutlineMode: "bullets"}, true},
		{"negative indent", FillConfig{AnswerIndent: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	o := (&FillConfig{OutlineMode: "native_bullets", AnswerColor: "blue", AnswerIndent: 18}).Options()
	if o.Mode != outline.ModeNative || o.AnswerIndent == nil || *o.AnswerIndent != 18 || o.AnswerColor == nil || o.AnswerColor.Blue != 1 {
		t.Errorf("Options() = %+v", o)
	}
	if o := (&FillConfig{}).Options(); o.AnswerIndent == nil || *o.AnswerIndent != 0 {
		t.Errorf("zero answer_indent became %v", o.AnswerIndent)
	}
	if o := (&FillConfig{}).Options(); o.AnswerColor != nil || o.Mode != outline.ModeAuto {
		t.Errorf("empty Options() = %+v", o)
	}
}

func TestFullConfig_LoadYAML(t *testing.T) {
	t.Setenv("FORMFILL_TEST_TOKEN", "abc")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: debug
docs:
  backend: google
  access_token: ${FORMFILL_TEST_TOKEN}
  max_backoff: 10s
fill:
  answer_color: red
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Docs.AccessToken != "abc" || cfg.Docs.MaxBackoff != 10*time.Second || cfg.Docs.MaxRetries != 5 {
		t.Errorf("docs = %+v", cfg.Docs)
	}
	if cfg.App.LogLevel.String() != "DEBUG" || cfg.Fill.AnswerIndent != 36 {
		t.Errorf("app = %+v fill = %+v", cfg.App, cfg.Fill)
	}
}

func TestFullConfig_ValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}

	cfg = NewDefaultConfig()
	cfg.Fill.OutlineMode = "nope"
	if err := cfg.Validate(); err == nil || !strings.HasPrefix(err.Error(), "fill:") {
		t.Errorf("fill err = %v", err)
	}
}
