package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/tool"
)

func parseRFC3339(args map[string]any, field string) (time.Time, error) {
	raw, _ := args[field].(string)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp, got %q", field, raw)
	}
	return t, nil
}

// NewCreateCalendarEventTool exposes event creation to the model.
func NewCreateCalendarEventTool(svc CalendarService) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"create_calendar_event",
		"Create a calendar event with a title, start time and end time. Times must be RFC3339 timestamps.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":     map[string]any{"type": "string", "description": "Event title"},
				"description": map[string]any{"type": "string", "description": "Optional event details"},
				"start_time":  map[string]any{"type": "string", "description": "Event start, RFC3339"},
				"end_time":    map[string]any{"type": "string", "description": "Event end, RFC3339"},
			},
			"required": []string{"summary", "start_time", "end_time"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			start, err := parseRFC3339(args, "start_time")
			if err != nil {
				return nil, err
			}
			end, err := parseRFC3339(args, "end_time")
			if err != nil {
				return nil, err
			}
			if !end.After(start) {
				return nil, fmt.Errorf("end_time must be after start_time")
			}

			summary, _ := args["summary"].(string)
			description, _ := args["description"].(string)
			event, err := svc.CreateEvent(ctx, CalendarEvent{
				Summary:     summary,
				Description: description,
				Start:       start,
				End:         end,
			})
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("Event created: %s from %s to %s",
				event.Summary, start.Format(time.RFC3339), end.Format(time.RFC3339)), nil
		})
}

// NewGetCalendarEventsTool exposes event listing to the model.
func NewGetCalendarEventsTool(svc CalendarService) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"get_calendar_events",
		"List calendar events between two RFC3339 timestamps.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"time_min": map[string]any{"type": "string", "description": "Window start, RFC3339"},
				"time_max": map[string]any{"type": "string", "description": "Window end, RFC3339"},
			},
			"required": []string{"time_min", "time_max"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			timeMin, err := parseRFC3339(args, "time_min")
			if err != nil {
				return nil, err
			}
			timeMax, err := parseRFC3339(args, "time_max")
			if err != nil {
				return nil, err
			}

			events, err := svc.ListEvents(ctx, timeMin, timeMax)
			if err != nil {
				return nil, err
			}
			if len(events) == 0 {
				return "No events found in that time range.", nil
			}

			var b strings.Builder
			for i, ev := range events {
				if i > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "- %s: %s to %s",
					ev.Summary, ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339))
				if ev.Description != "" {
					fmt.Fprintf(&b, " (%s)", ev.Description)
				}
			}
			return b.String(), nil
		})
}

// NewDeleteCalendarEventTool exposes event deletion to the model. The event
// is identified by its exact start time rather than an id, since the model
// only ever sees human-readable listings.
func NewDeleteCalendarEventTool(svc CalendarService) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"delete_calendar_event",
		"Delete the calendar event that starts at the given RFC3339 timestamp.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_time": map[string]any{"type": "string", "description": "Exact event start, RFC3339"},
			},
			"required": []string{"start_time"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			start, err := parseRFC3339(args, "start_time")
			if err != nil {
				return nil, err
			}

			// Search a one-minute window around the requested start.
			events, err := svc.ListEvents(ctx, start.Add(-time.Minute), start.Add(time.Minute))
			if err != nil {
				return nil, err
			}
			for _, ev := range events {
				if ev.Start.Equal(start) {
					if err := svc.DeleteEvent(ctx, ev.ID); err != nil {
						return nil, err
					}
					return "Event deleted successfully", nil
				}
			}
			return fmt.Sprintf("No event found starting at %s", start.Format(time.RFC3339)), nil
		})
}
