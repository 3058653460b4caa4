// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/formfill/internal/filler"
	"github.com/starford/formfill/internal/formservice"
	"github.com/starford/formfill/internal/history"
	"github.com/starford/formfill/internal/storage"
)

// ErrRunHasErrors is returned by Fill when the run finished but at least
// one entry ended with the error status.
var ErrRunHasErrors = errors.New("run finished with errors")

// App wires configuration, storage, history and the form service. Each
// CLI command is one method. Storage and history are opened on first use.
type App struct {
	cfg     *Config
	log     *slog.Logger
	out     io.Writer
	errOut  io.Writer
	version string

	vault *storage.FS
	db    *history.DB
	docs  storage.Provider
}

// New creates an App from options.
func New(opts ...Option) (*App, error) {
	app := &application{stdout: os.Stdout, stderr: os.Stderr, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := app.logger
	if logger == nil {
		level := app.config.App.LogLevel
		if app.verbose {
			level = slog.LevelDebug
		}
		// stdout is reserved for command output.
		logger = slog.New(slog.NewJSONHandler(app.stderr, &slog.HandlerOptions{Level: level}))
	}
	slog.SetDefault(logger)

	return &App{
		cfg:     app.config,
		log:     logger,
		out:     app.stdout,
		errOut:  app.stderr,
		version: app.version,
	}, nil
}

// Close releases the history database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// open initializes the vault, the history database and the document
// provider.
func (a *App) open() error {
	if a.docs != nil {
		return nil
	}
	cfg := a.cfg

	a.log.Debug("Configuration loaded",
		slog.String("docs_backend", cfg.Docs.Backend),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	vault, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}

	var docs storage.Provider = vault
	if cfg.Docs.Backend == BackendGoogle {
		token, err := storage.LoadToken(cfg.Docs.AccessToken, cfg.Docs.TokenFile)
		if err != nil {
			db.Close()
			return err
		}
		docs = storage.NewGoogleDocs(cfg.Docs.GoogleDocsOptions(token, a.log))
	}

	a.vault = vault
	a.db = db
	a.docs = storage.NewMux(docs)
	return nil
}

// service builds a form service over the opened stores.
func (a *App) service(opts ...formservice.Option) (*formservice.Service, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	base := []formservice.Option{
		formservice.WithVault(a.vault),
		formservice.WithHistory(a.db),
		formservice.WithDefaults(a.defaults()),
	}
	return formservice.NewService(a.docs, a.log, append(base, opts...)...), nil
}

func (a *App) defaults() filler.Options {
	return a.cfg.Fill.Options()
}
