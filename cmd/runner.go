package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/auth"
	"github.com/desertthunder/crossfade/internal/repositories"
	"github.com/desertthunder/crossfade/internal/services"
	"github.com/desertthunder/crossfade/internal/shared"
	"github.com/desertthunder/crossfade/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, playlistsCommand, migrateCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens the configured sqlite database and brings its schema up
// to date.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// stack bundles the wired application components behind one database handle.
type stack struct {
	store     *auth.Store
	refresher *auth.OAuthRefresher
	source    *services.SpotifyClient
	engine    *tasks.Engine
	history   *repositories.MigrationRepository
}

// buildStack wires credentials, provider clients and the migration engine on
// top of an open database, seeding the credential store from persisted rows.
func (r *Runner) buildStack(db *sql.DB) (*stack, error) {
	credRepo := repositories.NewCredentialRepository(db)
	historyRepo := repositories.NewMigrationRepository(db)

	refresher := auth.NewOAuthRefresher(r.config.Credentials, r.httpClient)
	store := auth.NewStore(auth.StoreOpts{
		Refresher: refresher,
		Persister: credRepo,
		Buffer:    r.config.Migration.RefreshBuffer(),
		Logger:    r.logger,
	})

	sets, err := credRepo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted credentials: %w", err)
	}
	for userID, set := range sets {
		store.Seed(userID, set)
	}

	source := services.NewSpotifyClient(services.SpotifyOpts{
		HTTPClient: r.httpClient,
		PageSize:   r.config.Migration.PageSize,
		Timeout:    r.config.Migration.RequestTimeout(),
	})
	dest := services.NewYouTubeClient(services.YouTubeOpts{
		HTTPClient: r.httpClient,
		Timeout:    r.config.Migration.RequestTimeout(),
	})

	engine := tasks.NewEngine(tasks.EngineOpts{
		Credentials: store,
		Source:      source,
		Destination: dest,
		Matcher:     tasks.NewMatcher(dest, r.config.Migration.SearchInterval(), r.logger),
		History:     historyRepo,
		Logger:      r.logger,
	})

	return &stack{
		store:     store,
		refresher: refresher,
		source:    source,
		engine:    engine,
		history:   historyRepo,
	}, nil
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
