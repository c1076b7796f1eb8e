// Package tools provides the assistant's built-in tool implementations:
// calendar management and web search. Each tool wraps an external service
// behind a small interface so tests can substitute fakes.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
)

// CalendarEvent is a single calendar entry.
type CalendarEvent struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// CalendarService is the calendar backend used by the calendar tools.
type CalendarService interface {
	CreateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error)
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]CalendarEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

const googleCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleCalendarClient implements CalendarService against the Google
// Calendar v3 REST API using a bearer token.
type GoogleCalendarClient struct {
	baseURL    string
	calendarID string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

// NewGoogleCalendarClient creates a client for one calendar. calendarID is
// usually "primary" or the calendar's email address.
func NewGoogleCalendarClient(calendarID, token string, logger logging.Logger) *GoogleCalendarClient {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &GoogleCalendarClient{
		baseURL:    googleCalendarBaseURL,
		calendarID: calendarID,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *GoogleCalendarClient) WithBaseURL(baseURL string) *GoogleCalendarClient {
	c.baseURL = baseURL
	return c
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
}

type googleEvent struct {
	ID          string          `json:"id,omitempty"`
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
}

type googleEventList struct {
	Items []googleEvent `json:"items"`
}

// CreateEvent inserts an event into the calendar.
func (c *GoogleCalendarClient) CreateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error) {
	body := googleEvent{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       googleEventTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         googleEventTime{DateTime: event.End.Format(time.RFC3339)},
	}

	var created googleEvent
	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))
	if err := c.do(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return CalendarEvent{}, fmt.Errorf("creating calendar event: %w", err)
	}

	event.ID = created.ID
	c.logger.Debug("calendar event created", "id", created.ID, "summary", event.Summary)
	return event, nil
}

// ListEvents returns single events in [timeMin, timeMax) ordered by start time.
func (c *GoogleCalendarClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]CalendarEvent, error) {
	query := url.Values{}
	query.Set("timeMin", timeMin.Format(time.RFC3339))
	query.Set("timeMax", timeMax.Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(c.calendarID), query.Encode())
	var list googleEventList
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}

	events := make([]CalendarEvent, 0, len(list.Items))
	for _, item := range list.Items {
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		end, _ := time.Parse(time.RFC3339, item.End.DateTime)
		events = append(events, CalendarEvent{
			ID:          item.ID,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

// DeleteEvent removes an event by id.
func (c *GoogleCalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(eventID))
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("deleting calendar event: %w", err)
	}
	return nil
}

func (c *GoogleCalendarClient) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
