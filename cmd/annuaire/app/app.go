// Package app provides the application context and dependency management
// for the annuaire CLI: configuration, logging, the reconciliation engine and
// the operator session.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/franceroutage/annuaire"
	"github.com/franceroutage/annuaire/internal/config"
	"github.com/franceroutage/annuaire/pkg/errors"
	"github.com/franceroutage/annuaire/pkg/reconcile"
)

// App represents the annuaire application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	viper  *viper.Viper
	config *Config
	logger *zerolog.Logger

	stdout io.Writer
	stderr io.Writer

	// Engine (lazy-initialized once settings are final)
	mu       sync.RWMutex
	annuaire annuaire.Annuaire
	session  annuaire.Session
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		viper:   viper.New(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	cfg, err := LoadConfig(app.viper)
	if err != nil {
		return nil, errors.NewConfigError("app", "loading configuration", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Session returns the operator session holding the latest result.
func (a *App) Session() *annuaire.Session {
	return &a.session
}

// Annuaire returns the reconciliation engine, creating it lazily from the
// pipeline settings. Completed runs are recorded in the session.
func (a *App) Annuaire() (annuaire.Annuaire, error) {
	a.mu.RLock()
	if a.annuaire != nil {
		an := a.annuaire
		a.mu.RUnlock()
		return an, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.annuaire != nil {
		return a.annuaire, nil
	}

	opts, err := a.config.Pipeline.Options()
	if err != nil {
		return nil, err
	}
	an, err := annuaire.New(opts...)
	if err != nil {
		return nil, errors.NewConfigError("annuaire", "creating engine", err)
	}
	an.OnRunCompleted(a.session.Record)
	an.OnWarning(func(runID string, w reconcile.Warning) {
		a.logger.Debug().Str("run_id", runID).Str("kind", string(w.Kind)).Msg("Warning raised")
	})

	a.annuaire = an
	return an, nil
}

// reloadPipeline re-reads the pipeline settings after flags are parsed. The
// engine is dropped when they changed so the next use picks them up.
func (a *App) reloadPipeline() error {
	pipeline, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if pipeline != a.config.Pipeline {
		a.config.Pipeline = pipeline
		a.annuaire = nil
	}
	return nil
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	if last, ok := a.session.LastResult(); ok {
		a.logger.Debug().Str("run_id", last.RunID).Int("runs", a.session.Runs()).Msg("Session closed")
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithAnnuaire sets a custom engine (useful for testing).
func WithAnnuaire(an annuaire.Annuaire) Option {
	return func(a *App) error {
		a.annuaire = an
		return nil
	}
}

// WithOutput redirects the command output streams.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) error {
		a.stdout = stdout
		a.stderr = stderr
		return nil
	}
}
