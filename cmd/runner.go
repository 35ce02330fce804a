package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/repositories"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// ServiceFactory builds the streaming service for a loaded configuration.
type ServiceFactory func(ctx context.Context, config *shared.Config, logger *log.Logger) (services.Service, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config        *shared.Config
	service       services.Service
	newService    ServiceFactory
	logger        *log.Logger
	output        io.Writer
	now           func() time.Time
	insult        tasks.InsultSelector
	openBrowser   func(string) error
	oauthEndpoint *oauth2.Endpoint
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config and Service skip loading from disk when set.
type RunnerOpts struct {
	Config         *shared.Config
	Service        services.Service
	ServiceFactory ServiceFactory
	Logger         *log.Logger
	Output         io.Writer
	Now            func() time.Time
	Insult         tasks.InsultSelector
	OpenBrowser    func(string) error
	OAuthEndpoint  *oauth2.Endpoint // overrides the Spotify authorization endpoints
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ServiceFactory == nil {
		opts.ServiceFactory = newSpotifyService
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:        opts.Config,
		service:       opts.Service,
		newService:    opts.ServiceFactory,
		logger:        opts.Logger,
		output:        opts.Output,
		now:           opts.Now,
		insult:        opts.Insult,
		openBrowser:   opts.OpenBrowser,
		oauthEndpoint: opts.OAuthEndpoint,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		todoCommand, filterCommand, runCommand, authCommand, setupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads and validates the configuration at path unless one was injected.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	config := r.config
	if config == nil {
		if path == "" {
			path = "config.toml"
		}

		loaded, err := shared.LoadConfig(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s (run `curator setup config` to create one)", shared.ErrMissingConfig, path)
			}
			return nil, err
		}
		config = loaded
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	r.config = config
	return config, nil
}

// spotify returns the injected service or builds one from credentials.
func (r *Runner) spotify(ctx context.Context, config *shared.Config) (services.Service, error) {
	if r.service != nil {
		return r.service, nil
	}

	svc, err := r.newService(ctx, config, r.logger)
	if err != nil {
		return nil, err
	}
	r.service = svc
	return svc, nil
}

// openAudit opens the audit log. A nil log and no error means auditing is disabled.
func (r *Runner) openAudit(config *shared.Config) (*repositories.AuditLog, func(), error) {
	if config.Database.Path == "" {
		return nil, func() {}, nil
	}

	db, err := shared.OpenAuditDatabase(config.Database)
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close audit database", "error", err)
		}
	}
	return repositories.NewAuditLog(db), closer, nil
}

// newSpotifyService loads credentials and creates the Spotify client.
//
// Rotated refresh tokens are written back to the credentials file when one is configured.
func newSpotifyService(ctx context.Context, config *shared.Config, logger *log.Logger) (services.Service, error) {
	src := shared.NewCredentialSource(config.Spotify)
	creds, err := shared.LoadCredentials(src)
	if err != nil {
		return nil, err
	}

	svc, err := services.NewSpotifyService(ctx, creds, services.SpotifyOpts{
		RateLimit:  config.Spotify.RateLimit,
		MaxRetries: config.Spotify.MaxRetries,
		Backoff:    time.Duration(config.Spotify.BackoffMS) * time.Millisecond,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	if src.File != "" {
		svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
			if token.RefreshToken == "" || token.RefreshToken == creds.RefreshToken {
				return
			}
			creds.RefreshToken = token.RefreshToken
			if err := shared.SaveCredentials(src.File, creds); err != nil {
				logger.Warn("failed to persist rotated refresh token", "error", err)
				return
			}
			logger.Info("refresh token rotated", "file", src.File)
		})
	}

	return svc, nil
}

// resolveDangerRun returns whether mutations are enabled. --dry-run always wins.
func resolveDangerRun(danger, dry bool) bool {
	return danger && !dry
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
