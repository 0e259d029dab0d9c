package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/julianstephens/habitline/internal/backup"
	"github.com/julianstephens/habitline/internal/calendar"
	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/keyring"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/session"
	"github.com/julianstephens/habitline/internal/stage"
	"github.com/julianstephens/habitline/internal/storage"
	"github.com/julianstephens/habitline/internal/storage/postgres"
	"github.com/julianstephens/habitline/internal/storage/sqlite"
	"github.com/julianstephens/habitline/internal/utils"
)

// Calendar backends selectable with --calendar-backend.
const (
	BackendGoogle = "google"
	BackendLocal  = "local"
)

// Context is passed to every command's Run method.
type Context struct {
	Store storage.Provider

	Backend     string
	Credentials string
	Timezone    string
	Calendars   []string
	Guidance    string

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Settings returns the stored settings with defaults applied and command
// line overrides on top.
func (c *Context) Settings() (models.Settings, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if c.Timezone != "" {
		settings.Timezone = c.Timezone
	}
	if len(c.Calendars) > 0 {
		settings.Calendars = c.Calendars
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

// Location resolves the configured timezone.
func (c *Context) Location(settings models.Settings) (*time.Location, error) {
	return utils.LoadLocation(settings.Timezone)
}

// Calendar builds the calendar backend named by --calendar-backend.
func (c *Context) Calendar(ctx context.Context, loc *time.Location) (calendar.Backend, error) {
	switch c.Backend {
	case "", BackendLocal:
		events, ok := c.Store.(calendar.EventStore)
		if !ok {
			return nil, fmt.Errorf("storage provider does not support the local calendar")
		}
		return calendar.NewLocal(events, loc), nil
	case BackendGoogle:
		return c.google(ctx, loc)
	default:
		return nil, fmt.Errorf("unknown calendar backend %q (expected %s or %s)", c.Backend, BackendGoogle, BackendLocal)
	}
}

func (c *Context) google(ctx context.Context, loc *time.Location) (calendar.Backend, error) {
	cfg, err := c.oauthConfig()
	if err != nil {
		return nil, err
	}
	raw, err := keyring.GetOAuthToken()
	if err != nil {
		return nil, fmt.Errorf("no Google Calendar token stored, run '%s calendar login' first: %w", constants.AppName, err)
	}
	tok, err := calendar.DecodeToken(raw)
	if err != nil {
		return nil, err
	}
	return calendar.NewGoogle(ctx, cfg, tok, loc)
}

func (c *Context) oauthConfig() (*oauth2.Config, error) {
	if c.Credentials == "" {
		return nil, fmt.Errorf("--credentials is required for the Google Calendar backend")
	}
	data, err := os.ReadFile(ExpandHome(c.Credentials))
	if err != nil {
		return nil, fmt.Errorf("failed to read client credentials: %w", err)
	}
	return calendar.OAuthConfig(data)
}

// SessionDeps assembles everything a session manager needs.
func (c *Context) SessionDeps(ctx context.Context) (session.Deps, error) {
	settings, err := c.Settings()
	if err != nil {
		return session.Deps{}, err
	}
	loc, err := c.Location(settings)
	if err != nil {
		return session.Deps{}, err
	}
	backend, err := c.Calendar(ctx, loc)
	if err != nil {
		return session.Deps{}, err
	}

	payloads := stage.DefaultPayloads()
	if c.Guidance != "" {
		payloads, err = stage.LoadPayloads(ExpandHome(c.Guidance))
		if err != nil {
			return session.Deps{}, err
		}
	}

	return session.Deps{
		Store:    c.Store,
		Calendar: backend,
		Stage:    stage.NewController(payloads),
		Settings: settings,
		Location: loc,
		Now:      c.Now,
	}, nil
}

// PerformAutomaticBackup snapshots a SQLite database before a destructive
// command. PostgreSQL is left to the server's own tooling.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	path := c.Store.GetConfigPath()
	if _, err := os.Stat(path); err != nil {
		return
	}
	mgr := backup.NewManager(path)
	if _, err := mgr.Create(); err != nil {
		logger.Warn("automatic backup failed", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: automatic backup failed: %v\n", err)
	}
}

// NewProvider picks a storage provider for config. PostgreSQL strings given
// on the command line must not embed a password; an empty config falls back
// to the connection string kept in the OS keyring, which may.
func NewProvider(config string) (storage.Provider, error) {
	if config == "" {
		if connStr, err := keyring.GetConnectionString(); err == nil && connStr != "" {
			return postgres.New(connStr), nil
		}
		config = constants.DefaultConfigPath
	}
	if isPostgres(config) {
		if err := postgres.ValidateConnString(config); err != nil {
			return nil, err
		}
		return postgres.New(config), nil
	}
	return sqlite.NewStore(ExpandHome(config)), nil
}

// ConfigDir is where logs are written for a given provider config.
func ConfigDir(config string) string {
	if config == "" || isPostgres(config) {
		config = constants.DefaultConfigPath
	}
	return filepath.Dir(ExpandHome(config))
}

func isPostgres(config string) bool {
	return storage.IsPostgres(config) || strings.Contains(config, "host=")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
