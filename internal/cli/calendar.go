package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/julianstephens/habitline/internal/calendar"
	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/keyring"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
	"github.com/julianstephens/habitline/internal/utils"
)

type CalendarCmd struct {
	Login  CalendarLoginCmd  `cmd:"" help:"Authorize Google Calendar access and store the token in the OS keyring."`
	Logout CalendarLogoutCmd `cmd:"" help:"Forget the stored Google Calendar token."`
	List   CalendarListCmd   `cmd:"" help:"List upcoming events from the configured calendars."`
	Add    CalendarAddCmd    `cmd:"" help:"Add an event to the local calendar."`
}

type CalendarLoginCmd struct{}

func (c *CalendarLoginCmd) Run(ctx *Context) error {
	cfg, err := ctx.oauthConfig()
	if err != nil {
		return err
	}
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Println("Open the following link in your browser, approve access, then paste")
	fmt.Println("the address you were redirected to (or just its code parameter):")
	fmt.Println()
	fmt.Println(authURL)
	fmt.Println()
	fmt.Print("Code: ")

	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	tok, err := cfg.Exchange(context.Background(), authCode(input))
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	encoded, err := calendar.EncodeToken(tok)
	if err != nil {
		return err
	}
	if err := keyring.SetOAuthToken(encoded); err != nil {
		return err
	}
	logger.Info("google calendar token stored")
	fmt.Println("✓ Google Calendar token stored in OS keyring")
	return nil
}

// authCode accepts either a bare code or the full redirect URL.
func authCode(input string) string {
	input = strings.TrimSpace(input)
	if u, err := url.Parse(input); err == nil && u.Query().Get("code") != "" {
		return u.Query().Get("code")
	}
	return input
}

type CalendarLogoutCmd struct{}

func (c *CalendarLogoutCmd) Run(ctx *Context) error {
	if err := keyring.DeleteOAuthToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no Google Calendar token stored")
		}
		return err
	}
	fmt.Println("✓ Google Calendar token removed")
	return nil
}

type CalendarListCmd struct {
	Limit int `help:"Maximum number of events." default:"10"`
}

func (c *CalendarListCmd) Run(ctx *Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	loc, err := ctx.Location(settings)
	if err != nil {
		return err
	}
	bg := context.Background()
	backend, err := ctx.Calendar(bg, loc)
	if err != nil {
		return err
	}
	events, err := backend.ListUpcoming(bg, settings.Calendars, ctx.now().In(loc), c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	fmt.Println(calendar.FormatUpcoming(events, loc))
	return nil
}

// CalendarAddCmd writes straight to the store so the local backend has
// busy intervals to schedule around.
type CalendarAddCmd struct {
	Summary  string `arg:"" help:"Event title."`
	Date     string `arg:"" help:"Event date (YYYY-MM-DD)."`
	Time     string `help:"Start time. Omit for an all-day event."`
	Duration int    `help:"Duration in minutes." default:"60"`
	Repeat   string `help:"Repeat with a habit cadence: daily, weekdays, weekly, 3x per week or monthly."`
	Calendar string `help:"Calendar id." default:"primary"`
}

func (c *CalendarAddCmd) Run(ctx *Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	loc, err := ctx.Location(settings)
	if err != nil {
		return err
	}
	day, err := utils.ParseDateInLocation(c.Date, loc)
	if err != nil {
		return err
	}

	ev := models.CalendarEvent{
		CalendarID: c.Calendar,
		Summary:    c.Summary,
		TimeZone:   loc.String(),
	}
	if c.Time == "" {
		ev.AllDay = true
		ev.Start = day
		ev.End = day.AddDate(0, 0, 1)
	} else {
		at, ok := normalize.Parse(c.Time)
		if !ok {
			return fmt.Errorf("could not understand time %q", c.Time)
		}
		if c.Duration <= 0 {
			return fmt.Errorf("duration must be positive")
		}
		ev.Start = at.On(day, loc)
		ev.End = ev.Start.Add(time.Duration(c.Duration) * time.Minute)
	}
	if c.Repeat != "" {
		cadence, err := normalize.Cadence(c.Repeat)
		if err != nil {
			return err
		}
		ev.Recurrence = calendar.RuleFor(cadence)
	}

	ref, err := calendar.NewLocal(ctx.Store, loc).CreateEvent(context.Background(), ev)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s on %s (%s)\n", ev.Summary, ev.Start.Format(constants.DateFormat), ref)
	return nil
}
