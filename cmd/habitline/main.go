package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitline/internal/cli"
	"github.com/julianstephens/habitline/internal/constants"
	apperrors "github.com/julianstephens/habitline/internal/errors"
	"github.com/julianstephens/habitline/internal/logger"
)

var CLI struct {
	Version         kong.VersionFlag
	Config          string   `help:"SQLite database path or PostgreSQL connection string. PostgreSQL strings must NOT embed a password; store one with 'keyring set' instead." env:"HABITLINE_CONFIG"`
	Debug           bool     `help:"Log at debug level and mirror logs to stderr."`
	Timezone        string   `help:"IANA timezone used for scheduling (overrides the stored setting)." env:"HABITLINE_TIMEZONE"`
	CalendarBackend string   `name:"calendar-backend" help:"Calendar backend: google or local." enum:"google,local" default:"local" env:"HABITLINE_CALENDAR_BACKEND"`
	Calendars       []string `help:"Calendars read for busy intervals (overrides the stored setting)." sep:","`
	Guidance        string   `help:"YAML file overriding the built-in stage guidance." type:"path"`
	Credentials     string   `help:"Google OAuth client credentials JSON." env:"HABITLINE_GOOGLE_CREDENTIALS"`

	Init     cli.InitCmd     `cmd:"" help:"Initialize habitline storage."`
	Serve    cli.ServeCmd    `cmd:"" help:"Run the session server for the conversational agent and displays."`
	Review   cli.ReviewCmd   `cmd:"" help:"Review a session's draft schedule in the terminal."`
	Habit    cli.HabitCmd    `cmd:"" help:"Manage the habit plan."`
	Note     cli.NoteCmd     `cmd:"" help:"Manage remembered facts."`
	Draft    cli.DraftCmd    `cmd:"" help:"Work with draft schedules."`
	Calendar cli.CalendarCmd `cmd:"" help:"Manage calendar access and local events."`
	Settings cli.SettingsCmd `cmd:"" help:"View or change scheduling settings."`
	Doctor   cli.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Validate cli.ValidateCmd `cmd:"" help:"Check the habit plan for entries the scheduler would skip or default."`
	Backup   cli.BackupCmd   `cmd:"" help:"Manage database backups."`
	Keyring  cli.KeyringCmd  `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	DebugCmd cli.DebugCmd    `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

// Commands that must run before the store exists or without it.
var skipLoad = []string{"init", "doctor", "review", "keyring", "calendar login", "calendar logout"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit coach backend: turns a habit plan into a reviewable calendar draft"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	command := ctx.Command()
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: cli.ConfigDir(CLI.Config),
		Stderr:    strings.HasPrefix(command, "serve"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := cli.NewProvider(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:       store,
		Backend:     CLI.CalendarBackend,
		Credentials: CLI.Credentials,
		Timezone:    CLI.Timezone,
		Calendars:   CLI.Calendars,
		Guidance:    CLI.Guidance,
	}

	if !skipsLoad(command) {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}

func skipsLoad(command string) bool {
	for _, prefix := range skipLoad {
		if strings.HasPrefix(command, prefix) {
			return true
		}
	}
	return false
}
