package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
)

// Google talks to Google Calendar v3.
type Google struct {
	svc *gcal.Service
	loc *time.Location
}

// OAuthConfig builds the OAuth2 client config from a downloaded client
// credentials JSON file.
func OAuthConfig(credentialsJSON []byte) (*oauth2.Config, error) {
	cfg, err := google.ConfigFromJSON(credentialsJSON, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client credentials: %w", err)
	}
	return cfg, nil
}

// EncodeToken serializes a token for keyring storage.
func EncodeToken(tok *oauth2.Token) (string, error) {
	data, err := json.Marshal(tok)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeToken parses a token read back from the keyring.
func DecodeToken(s string) (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(s), &tok); err != nil {
		return nil, fmt.Errorf("failed to decode stored token: %w", err)
	}
	return &tok, nil
}

// NewGoogle creates a backend authorized by tok.
func NewGoogle(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, loc *time.Location) (*Google, error) {
	return NewGoogleWithOptions(ctx, loc, option.WithTokenSource(cfg.TokenSource(ctx, tok)))
}

// NewGoogleWithOptions creates a backend from raw client options.
func NewGoogleWithOptions(ctx context.Context, loc *time.Location, opts ...option.ClientOption) (*Google, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Google{svc: svc, loc: loc}, nil
}

func (g *Google) ListBusyIntervals(ctx context.Context, period models.Period, calendars []string) ([]models.BusyInterval, error) {
	var busy []models.BusyInterval
	for _, calID := range calendarsOrDefault(calendars) {
		pageToken := ""
		for {
			call := g.svc.Events.List(calID).
				TimeMin(period.Start.Format(time.RFC3339)).
				TimeMax(period.End.Format(time.RFC3339)).
				SingleEvents(true).
				OrderBy("startTime").
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			events, err := call.Do()
			if err != nil {
				return nil, fmt.Errorf("failed to list events for %s: %w", calID, err)
			}
			for _, item := range events.Items {
				ev, ok := g.fromAPI(calID, item)
				if !ok {
					continue
				}
				busy = append(busy, models.BusyInterval{
					Start:         ev.Start,
					End:           ev.End,
					AllDay:        ev.AllDay,
					Summary:       ev.Summary,
					CalendarLabel: calID,
				})
			}
			if events.NextPageToken == "" {
				break
			}
			pageToken = events.NextPageToken
		}
	}
	logger.Debug("Listed busy intervals", "backend", "google", "count", len(busy))
	return busy, nil
}

func (g *Google) CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error) {
	tz := ev.TimeZone
	if tz == "" {
		tz = g.loc.String()
	}
	body := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: tz},
	}
	if ev.AllDay {
		body.Start = &gcal.EventDateTime{Date: ev.Start.Format(constants.DateFormat)}
		body.End = &gcal.EventDateTime{Date: ev.End.Format(constants.DateFormat)}
	}
	rule, err := RRule(ev.Recurrence)
	if err != nil {
		return "", err
	}
	if rule != "" {
		body.Recurrence = []string{rule}
	}

	calID := ev.CalendarID
	if calID == "" {
		calID = constants.DefaultCalendarID
	}
	created, err := g.svc.Events.Insert(calID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	return created.Id, nil
}

func (g *Google) ListUpcoming(ctx context.Context, calendars []string, from time.Time, limit int) ([]models.CalendarEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultUpcomingEvents
	}
	var out []models.CalendarEvent
	for _, calID := range calendarsOrDefault(calendars) {
		events, err := g.svc.Events.List(calID).
			TimeMin(from.Format(time.RFC3339)).
			MaxResults(int64(limit)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events for %s: %w", calID, err)
		}
		for _, item := range events.Items {
			if ev, ok := g.fromAPI(calID, item); ok {
				out = append(out, ev)
			}
		}
	}
	return sortAndLimit(out, limit), nil
}

func (g *Google) fromAPI(calID string, item *gcal.Event) (models.CalendarEvent, bool) {
	if item == nil || item.Status == "cancelled" || item.Start == nil || item.End == nil {
		return models.CalendarEvent{}, false
	}
	ev := models.CalendarEvent{
		ID:          item.Id,
		CalendarID:  calID,
		Summary:     item.Summary,
		Description: item.Description,
		TimeZone:    item.Start.TimeZone,
	}
	if len(item.Recurrence) > 0 {
		ev.Recurrence = item.Recurrence[0]
	}

	if item.Start.DateTime == "" {
		start, err := time.ParseInLocation(constants.DateFormat, item.Start.Date, g.loc)
		if err != nil {
			logger.Warn("Skipping event with bad date", "id", item.Id, "error", err)
			return models.CalendarEvent{}, false
		}
		end, err := time.ParseInLocation(constants.DateFormat, item.End.Date, g.loc)
		if err != nil {
			end = start.AddDate(0, 0, 1)
		}
		ev.Start, ev.End, ev.AllDay = start, end, true
		return ev, true
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		logger.Warn("Skipping event with bad start", "id", item.Id, "error", err)
		return models.CalendarEvent{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		logger.Warn("Skipping event with bad end", "id", item.Id, "error", err)
		return models.CalendarEvent{}, false
	}
	ev.Start, ev.End = start.In(g.loc), end.In(g.loc)
	return ev, true
}

func calendarsOrDefault(calendars []string) []string {
	if len(calendars) == 0 {
		return []string{constants.DefaultCalendarID}
	}
	return calendars
}
