package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/repositories"
	"github.com/desertthunder/wavey/internal/server"
	"github.com/desertthunder/wavey/internal/services"
	"github.com/desertthunder/wavey/internal/session"
	"github.com/desertthunder/wavey/internal/shared"
	"github.com/urfave/cli/v3"
)

// historyStore records catalog lookups; satisfied by [repositories.SearchHistoryRepository].
type historyStore interface {
	Record(kind, query string, resultCount int) (*models.SearchEntry, error)
	Recent(limit int) ([]models.SearchEntry, error)
	Clear() (int64, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *services.APIClient
	session    *session.Session
	storage    session.Storage
	history    historyStore
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	openBrowser func(url string) error
	listen      func(ctx context.Context, h *server.CallbackHandler, opts server.ListenOpts) (string, error)
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Nil dependencies are built from the loaded configuration on first use.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *services.APIClient
	Storage    session.Storage
	History    historyStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		client:      opts.Client,
		storage:     opts.Storage,
		history:     opts.History,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: shared.OpenBrowser,
		listen:      server.Listen,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, songsCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies global flags ahead of any command action.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// After releases resources opened by the command.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close closes the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger used by the runner.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig reads the config file when present, falling back to defaults, then applies WAVEY_* overrides.
func (r *Runner) loadConfig() *shared.Config {
	if r.config != nil {
		return r.config
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		loaded, err := shared.LoadConfig(r.configPath)
		if err != nil {
			r.logger.Warn("failed to load config, using defaults", "path", r.configPath, "error", err)
		} else {
			config = loaded
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	config.ApplyEnv()
	r.config = config
	return config
}

// connect builds the client, storage and session, then resumes any stored credential.
func (r *Runner) connect(ctx context.Context) error {
	if r.session != nil {
		return nil
	}

	config := r.loadConfig()

	if r.client == nil {
		r.client = services.NewAPIClient(services.APIClientOpts{
			BaseURL:           config.API.BaseURL,
			HTTPClient:        r.httpClient,
			Timeout:           config.API.Timeout(),
			RequestsPerSecond: config.API.RequestsPerSecond,
			Neon:              config.Credentials.Neon,
			Logger:            shared.WithLogger(r.logger, "component", "api"),
		})
	}

	if r.storage == nil {
		db, err := shared.OpenDatabase(ctx, config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", config.Database.Path, err)
		}
		r.db = db
		r.storage = repositories.NewCredentialRepository(db)
		if r.history == nil {
			r.history = repositories.NewSearchHistoryRepository(db)
		}
	}

	r.session = session.New(r.client, r.storage, shared.WithLogger(r.logger, "component", "session"))
	r.session.Initialize(ctx)
	return nil
}

// requireAuth connects and fails unless the session is signed in.
func (r *Runner) requireAuth(ctx context.Context) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if !r.session.IsAuthenticated() {
		return fmt.Errorf("%w: run 'wavey auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
