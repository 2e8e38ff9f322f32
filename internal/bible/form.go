package bible

import (
	"bytes"
	"encoding/json"
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"milk2meat/internal/markdown"
	"milk2meat/internal/models"
	"strings"
)

var (
	errTimelineObject = errors.New("Timeline data must be a JSON object")
	errTimelineEvents = errors.New("Timeline events must be a list")
	errTimelineEvent  = errors.New("Each event must be an object")
	errTimelineFields = errors.New("Each event must have 'date' and 'description' fields")
	errTimelineJSON   = errors.New("Invalid JSON format")
)

const timelineEventsKey = "events"

// BookForm carries the editable introduction of a book. Timeline is either a JSON object
// or a string holding one.
type BookForm struct {
	TitleAndAuthor           string          `json:"title_and_author"`
	DateAndOccasion          string          `json:"date_and_occasion"`
	CharacteristicsAndThemes string          `json:"characteristics_and_themes"`
	ChristInBook             string          `json:"christ_in_book"`
	Outline                  string          `json:"outline"`
	Timeline                 json.RawMessage `json:"timeline"`
}

func (f *BookForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.TitleAndAuthor, markdown.Valid),
		validation.Field(&f.DateAndOccasion, markdown.Valid),
		validation.Field(&f.CharacteristicsAndThemes, markdown.Valid),
		validation.Field(&f.ChristInBook, markdown.Valid),
		validation.Field(&f.Outline, markdown.Valid),
		validation.Field(&f.Timeline, validation.By(func(value any) error {
			_, err := ParseTimeline(value.(json.RawMessage))
			return err
		})),
	)
}

// ApplyTo copies the validated form onto book.
func (f *BookForm) ApplyTo(book *models.Book) error {
	timeline, err := ParseTimeline(f.Timeline)
	if err != nil {
		return err
	}

	book.TitleAndAuthor = f.TitleAndAuthor
	book.DateAndOccasion = f.DateAndOccasion
	book.CharacteristicsAndThemes = f.CharacteristicsAndThemes
	book.ChristInBook = f.ChristInBook
	book.Outline = f.Outline
	book.Timeline = timeline
	return nil
}

// ParseTimeline accepts {"events": [{"date": ..., "description": ...}]} either as an object
// or encoded in a JSON string. Empty input is an empty timeline.
func ParseTimeline(raw json.RawMessage) (models.Timeline, error) {
	empty := models.Timeline{Events: []models.TimelineEvent{}}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return empty, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return empty, errTimelineJSON
		}
		if len(strings.TrimSpace(encoded)) == 0 {
			return empty, nil
		}
		raw = json.RawMessage(encoded)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return empty, errTimelineJSON
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return empty, errTimelineObject
	}

	events, ok := object[timelineEventsKey].([]any)
	if !ok {
		return empty, errTimelineEvents
	}

	timeline := models.Timeline{Events: make([]models.TimelineEvent, 0, len(events))}
	for _, e := range events {
		event, ok := e.(map[string]any)
		if !ok {
			return empty, errTimelineEvent
		}

		date, hasDate := event["date"]
		description, hasDescription := event["description"]
		if !hasDate || !hasDescription {
			return empty, errTimelineFields
		}

		timeline.Events = append(timeline.Events, models.TimelineEvent{
			Date:        stringify(date),
			Description: stringify(description),
		})
	}

	return timeline, nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	b, _ := json.Marshal(v)
	return string(b)
}
