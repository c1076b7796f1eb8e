package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCalendar is an in-memory CalendarService.
type fakeCalendar struct {
	events  []CalendarEvent
	nextID  int
	deleted []string
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error) {
	f.nextID++
	event.ID = fmt.Sprintf("ev%d", f.nextID)
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeCalendar) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]CalendarEvent, error) {
	var out []CalendarEvent
	for _, ev := range f.events {
		if !ev.Start.Before(timeMin) && ev.Start.Before(timeMax) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

func TestCreateCalendarEventTool(t *testing.T) {
	cal := &fakeCalendar{}
	createTool := NewCreateCalendarEventTool(cal)

	result, err := createTool.Call(context.Background(), map[string]any{
		"summary":    "Dentist",
		"start_time": "2026-09-01T10:00:00Z",
		"end_time":   "2026-09-01T11:00:00Z",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "Event created: Dentist")
	require.Len(t, cal.events, 1)
	assert.Equal(t, "Dentist", cal.events[0].Summary)
}

func TestCreateCalendarEventTool_RejectsBadTimes(t *testing.T) {
	cal := &fakeCalendar{}
	createTool := NewCreateCalendarEventTool(cal)

	_, err := createTool.Call(context.Background(), map[string]any{
		"summary":    "Dentist",
		"start_time": "tomorrow at ten",
		"end_time":   "2026-09-01T11:00:00Z",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFC3339")

	_, err = createTool.Call(context.Background(), map[string]any{
		"summary":    "Dentist",
		"start_time": "2026-09-01T11:00:00Z",
		"end_time":   "2026-09-01T10:00:00Z",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_time must be after start_time")
	assert.Empty(t, cal.events)
}

func TestGetCalendarEventsTool(t *testing.T) {
	cal := &fakeCalendar{}
	start := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	cal.events = append(cal.events, CalendarEvent{
		ID: "ev1", Summary: "Team sync",
		Start: start, End: start.Add(time.Hour),
	})

	listTool := NewGetCalendarEventsTool(cal)
	result, err := listTool.Call(context.Background(), map[string]any{
		"time_min": "2026-09-01T00:00:00Z",
		"time_max": "2026-09-02T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "Team sync")
}

func TestGetCalendarEventsTool_EmptyRange(t *testing.T) {
	listTool := NewGetCalendarEventsTool(&fakeCalendar{})
	result, err := listTool.Call(context.Background(), map[string]any{
		"time_min": "2026-09-01T00:00:00Z",
		"time_max": "2026-09-02T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "No events found in that time range.", result)
}

func TestDeleteCalendarEventTool(t *testing.T) {
	cal := &fakeCalendar{}
	start := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	cal.events = append(cal.events, CalendarEvent{
		ID: "ev1", Summary: "Team sync",
		Start: start, End: start.Add(time.Hour),
	})

	deleteTool := NewDeleteCalendarEventTool(cal)
	result, err := deleteTool.Call(context.Background(), map[string]any{
		"start_time": "2026-09-01T15:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "Event deleted successfully", result)
	assert.Equal(t, []string{"ev1"}, cal.deleted)
}

func TestDeleteCalendarEventTool_NoMatch(t *testing.T) {
	deleteTool := NewDeleteCalendarEventTool(&fakeCalendar{})
	result, err := deleteTool.Call(context.Background(), map[string]any{
		"start_time": "2026-09-01T15:00:00Z",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "No event found")
}

func TestGoogleCalendarClient_CreateAndList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodPost:
			var ev googleEvent
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
			ev.ID = "created1"
			json.NewEncoder(w).Encode(ev)
		case http.MethodGet:
			assert.NotEmpty(t, r.URL.Query().Get("timeMin"))
			json.NewEncoder(w).Encode(googleEventList{Items: []googleEvent{{
				ID:      "ev1",
				Summary: "Team sync",
				Start:   googleEventTime{DateTime: "2026-09-01T15:00:00Z"},
				End:     googleEventTime{DateTime: "2026-09-01T16:00:00Z"},
			}}})
		}
	}))
	defer srv.Close()

	client := NewGoogleCalendarClient("primary", "token123", nil).WithBaseURL(srv.URL)
	ctx := context.Background()

	created, err := client.CreateEvent(ctx, CalendarEvent{
		Summary: "Dentist",
		Start:   time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "created1", created.ID)

	events, err := client.ListEvents(ctx,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Team sync", events[0].Summary)
}

func TestGoogleCalendarClient_SurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewGoogleCalendarClient("primary", "bad", nil).WithBaseURL(srv.URL)
	_, err := client.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWebSearchTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "key123", req.APIKey)
		assert.Equal(t, "latest go release", req.Query)
		json.NewEncoder(w).Encode(tavilyResponse{Results: []SearchResult{
			{Title: "Go 1.24 released", URL: "https://go.dev/blog", Content: "Go 1.24 is out."},
		}})
	}))
	defer srv.Close()

	client := NewTavilyClient("key123", nil).WithBaseURL(srv.URL)
	searchTool := NewWebSearchTool(client)

	result, err := searchTool.Call(context.Background(), map[string]any{"query": "latest go release"})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "Go 1.24 released")
	assert.Contains(t, result.(string), "https://go.dev/blog")
}

func TestWebSearchTool_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tavilyResponse{})
	}))
	defer srv.Close()

	searchTool := NewWebSearchTool(NewTavilyClient("key", nil).WithBaseURL(srv.URL))
	result, err := searchTool.Call(context.Background(), map[string]any{"query": "nothing"})
	require.NoError(t, err)
	assert.Equal(t, "No results found.", result)
}
