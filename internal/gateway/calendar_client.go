package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

const graphTimeLayout = "2006-01-02T15:04:05.9999999"

type CalendarClient struct {
	graph *GraphClient
}

func NewCalendarClient(cfg *config.Config, logger *slog.Logger) *CalendarClient {
	return &CalendarClient{graph: NewGraphClient(cfg, logger, "graph_calendar")}
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type meetingTimeSuggestion struct {
	Confidence      float64 `json:"confidence"`
	MeetingTimeSlot struct {
		Start graphDateTime `json:"start"`
		End   graphDateTime `json:"end"`
	} `json:"meetingTimeSlot"`
	AttendeeAvailability []struct {
		Attendee struct {
			EmailAddress struct {
				Address string `json:"address"`
			} `json:"emailAddress"`
		} `json:"attendee"`
		Availability string `json:"availability"`
	} `json:"attendeeAvailability"`
}

func attendeePayload(attendees []string) []map[string]any {
	result := make([]map[string]any, 0, len(attendees))

	for _, email := range attendees {
		result = append(result, map[string]any{
			"emailAddress": map[string]any{"address": email},
			"type":         "Required",
		})
	}

	return result
}

// FindMeetingTimes возвращает ранжированные кандидатные слоты. Порядок ответа
// Graph сохраняется: дальше по нему идёт перебор без повторного ранжирования.
func (c *CalendarClient) FindMeetingTimes(
	ctx context.Context,
	attendees []string,
	windowStart, windowEnd time.Time,
	duration int,
) ([]models.TimeSlot, error) {
	body := map[string]any{
		"attendees": attendeePayload(attendees),
		"timeConstraint": map[string]any{
			"timeslots": []map[string]any{
				{
					"start": graphDateTime{DateTime: windowStart.UTC().Format(graphTimeLayout), TimeZone: "UTC"},
					"end":   graphDateTime{DateTime: windowEnd.UTC().Format(graphTimeLayout), TimeZone: "UTC"},
				},
			},
		},
		"meetingDuration":   fmt.Sprintf("PT%dM", duration),
		"returnSuggestionReasons": true,
	}

	var result struct {
		MeetingTimeSuggestions []meetingTimeSuggestion `json:"meetingTimeSuggestions"`
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(c.graph.url("/me/findMeetingTimes"))
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске слотов для встречи: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	slots := make([]models.TimeSlot, 0, len(result.MeetingTimeSuggestions))

	for _, s := range result.MeetingTimeSuggestions {
		start, err := parseGraphTime(s.MeetingTimeSlot.Start)
		if err != nil {
			return nil, err
		}

		end, err := parseGraphTime(s.MeetingTimeSlot.End)
		if err != nil {
			return nil, err
		}

		availability := make(map[string]string, len(s.AttendeeAvailability))
		for _, a := range s.AttendeeAvailability {
			availability[a.Attendee.EmailAddress.Address] = a.Availability
		}

		slots = append(slots, models.TimeSlot{
			Start:                start,
			End:                  end,
			Confidence:           s.Confidence,
			AttendeeAvailability: availability,
		})
	}

	return slots, nil
}

func parseGraphTime(dt graphDateTime) (time.Time, error) {
	loc := time.UTC

	if dt.TimeZone != "" && dt.TimeZone != "UTC" {
		parsed, err := time.LoadLocation(dt.TimeZone)
		if err == nil {
			loc = parsed
		}
	}

	t, err := time.ParseInLocation(graphTimeLayout, dt.DateTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка при разборе времени %q: %w", dt.DateTime, err)
	}

	return t, nil
}

func (c *CalendarClient) CreateEvent(
	ctx context.Context,
	subject string,
	slot models.TimeSlot,
	attendees []string,
	body string,
) (string, error) {
	payload := map[string]any{
		"subject": subject,
		"body": map[string]any{
			"contentType": "HTML",
			"content":     body,
		},
		"start":     graphDateTime{DateTime: slot.Start.UTC().Format(graphTimeLayout), TimeZone: "UTC"},
		"end":       graphDateTime{DateTime: slot.End.UTC().Format(graphTimeLayout), TimeZone: "UTC"},
		"attendees": attendeePayload(attendees),
	}

	var created struct {
		ID string `json:"id"`
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&created).
		Post(c.graph.url("/me/events"))
	if err != nil {
		return "", fmt.Errorf("ошибка при создании события в календаре: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	return created.ID, nil
}
