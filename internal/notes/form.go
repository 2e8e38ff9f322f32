package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"milk2meat/internal/markdown"
	"milk2meat/internal/utils"
	"mime/multipart"
	"strings"
)

const (
	maxTitleLength        = 200
	maxNoteTypeNameLength = 50
	maxTagLength          = 100
)

var (
	errReferencedBooksNotList = errors.New("Referenced books data must be a list")
	errReferencedBooksJSON    = errors.New("Invalid JSON format for referenced books")
	errInvalidChoice          = errors.New("Select a valid choice. That choice is not one of the available choices.")
)

// NoteForm is the multipart form submitted when a note is created or edited.
type NoteForm struct {
	Title               string                `form:"title" json:"title"`
	Content             string                `form:"content" json:"content"`
	NoteType            string                `form:"note_type" json:"note_type"`
	TagsInput           string                `form:"tags_input" json:"tags_input"`
	ReferencedBooksJSON string                `form:"referenced_books_json" json:"referenced_books_json"`
	DeleteUpload        string                `form:"delete_upload" json:"delete_upload"`
	Upload              *multipart.FileHeader `form:"upload" json:"upload"`

	// filled by Validate
	uploadContentType string
}

// Prepare trims the text inputs.
func (f *NoteForm) Prepare() {
	f.Title = strings.TrimSpace(f.Title)
	f.NoteType = strings.TrimSpace(f.NoteType)
}

// Validate checks every field. The content must render as Markdown and an upload must
// pass uploads.
func (f *NoteForm) Validate(uploads UploadValidator) error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&f.Content, markdown.Valid),
		validation.Field(&f.NoteType, validation.By(func(value any) error {
			_, err := parseNoteTypeId(value.(string))
			return err
		})),
		validation.Field(&f.TagsInput, validation.By(func(value any) error {
			for _, tag := range ParseTags(value.(string)) {
				if len([]rune(tag)) > maxTagLength {
					return fmt.Errorf("Tag %q is longer than %d characters", tag, maxTagLength)
				}
			}
			return nil
		})),
		validation.Field(&f.ReferencedBooksJSON, validation.By(func(value any) error {
			_, err := ParseReferencedBooks(value.(string))
			return err
		})),
		validation.Field(&f.Upload, validation.By(func(value any) error {
			fh, _ := value.(*multipart.FileHeader)
			if fh == nil {
				return nil
			}
			contentType, err := uploads.Validate(fh)
			f.uploadContentType = contentType
			return err
		})),
	)
}

func (f *NoteForm) NoteTypeId() *uint {
	id, _ := parseNoteTypeId(f.NoteType)
	return id
}

func (f *NoteForm) Tags() []string {
	return ParseTags(f.TagsInput)
}

func (f *NoteForm) BookIds() []uint {
	ids, _ := ParseReferencedBooks(f.ReferencedBooksJSON)
	return ids
}

// WantsUploadDeleted reports whether the existing attachment should be removed.
func (f *NoteForm) WantsUploadDeleted() bool {
	switch strings.ToLower(strings.TrimSpace(f.DeleteUpload)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func parseNoteTypeId(raw string) (*uint, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	id, ok := utils.ParseId(raw)
	if !ok {
		return nil, errInvalidChoice
	}
	return &id, nil
}

// ParseTags splits a comma separated tag list. Names are trimmed, empty names dropped
// and duplicates (ignoring case) removed; the first spelling wins.
func ParseTags(input string) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})

	for _, raw := range strings.Split(input, ",") {
		tag := strings.TrimSpace(raw)
		if len(tag) == 0 {
			continue
		}

		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}

	return tags
}

// ParseReferencedBooks reads the ids out of a JSON array like [{"id": 1, "title": "Genesis"}].
// Entries without an id are skipped.
func ParseReferencedBooks(raw string) ([]uint, error) {
	if len(strings.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, errReferencedBooksJSON
	}

	entries, ok := decoded.([]any)
	if !ok {
		return nil, errReferencedBooksNotList
	}

	ids := make([]uint, 0, len(entries))
	seen := make(map[uint]struct{}, len(entries))
	for _, entry := range entries {
		book, ok := entry.(map[string]any)
		if !ok {
			return nil, errReferencedBooksNotList
		}

		id, ok := bookId(book["id"])
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

func bookId(v any) (uint, bool) {
	switch id := v.(type) {
	case float64:
		if id <= 0 || id != float64(uint(id)) {
			return 0, false
		}
		return uint(id), true
	case string:
		return utils.ParseId(id)
	}
	return 0, false
}

// NoteTypeForm creates a note type.
type NoteTypeForm struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
}

func (f *NoteTypeForm) Prepare() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
}

func (f *NoteTypeForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required, validation.RuneLength(1, maxNoteTypeNameLength)),
	)
}
