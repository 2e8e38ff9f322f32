package notes

import (
	"context"
	"errors"
	"fmt"
	"github.com/samborkent/uuidv7"
	"gorm.io/gorm"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/models"
	"milk2meat/internal/slug"
	"milk2meat/internal/storage"
)

// DefaultMaxSaveAttempts bounds how often a save is retried after losing the slug race.
const DefaultMaxSaveAttempts = 3

// ErrUnknownNoteType is returned when a form references a note type that does not exist.
var ErrUnknownNoteType = errors.New("unknown note type")

// NoteService persists notes together with their slug, associations and attachment.
type NoteService struct {
	*environment.Env
	Slugs           *slug.Generator
	Storage         storage.FileStorage
	Housekeeper     TagHousekeeper
	MaxSaveAttempts int
}

func NewNoteService(env *environment.Env, fileStorage storage.FileStorage) *NoteService {
	if fileStorage == nil {
		fileStorage = &storage.NullStorage{}
	}

	return &NoteService{
		Env:             env,
		Slugs:           slug.NewGenerator(env),
		Storage:         fileStorage,
		Housekeeper:     &DefaultTagHousekeeper{Env: env},
		MaxSaveAttempts: DefaultMaxSaveAttempts,
	}
}

// Save applies the slug rule and writes note with its tags and referenced books.
// persistedTitle is the title currently stored (empty for new notes). When another save
// of the same owner claimed the slug in the meantime the slug is regenerated and the
// write retried.
func (s *NoteService) Save(ctx context.Context, note *models.Note, persistedTitle string, isNew bool) error {
	maxAttempts := s.MaxSaveAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxSaveAttempts
	}

	excludeNoteId := ""
	if !isNew {
		excludeNoteId = note.ID
	}

	force := false
	for attempt := 1; ; attempt++ {
		if force || slug.NeedsRecompute(note.Slug, persistedTitle, note.Title, isNew) {
			generated, err := s.Slugs.Unique(ctx, note.Title, note.OwnerID, excludeNoteId)
			if err != nil {
				return fmt.Errorf("generating slug: %w", err)
			}
			note.Slug = generated
		}

		err := s.SaveNote(ctx, note, isNew)
		if err == nil {
			return nil
		}

		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= maxAttempts {
			return err
		}

		s.LogWarnf(logging.GetLogTypeNotes(note.ID), "slug %q was taken concurrently, retrying (%d/%d)", note.Slug, attempt, maxAttempts)
		force = true
	}
}

// SaveForm copies a validated form onto note, stores a new attachment and saves the note.
// An attachment replaced or removed by the form is deleted from storage after the save.
func (s *NoteService) SaveForm(ctx context.Context, note *models.Note, form *NoteForm, isNew bool) error {
	persistedTitle := note.Title
	if isNew {
		persistedTitle = ""
	}

	note.Title = form.Title
	note.Content = form.Content

	if err := s.applyNoteType(ctx, note, form.NoteTypeId()); err != nil {
		return err
	}

	tags := make([]models.Tag, 0)
	if err := s.FindOrCreateTags(ctx, form.Tags(), &tags); err != nil {
		return fmt.Errorf("resolving tags: %w", err)
	}
	note.Tags = tags

	books := make([]models.Book, 0)
	if err := s.FindBooksByIds(ctx, form.BookIds(), &books); err != nil {
		return fmt.Errorf("resolving referenced books: %w", err)
	}
	note.ReferencedBooks = books

	previousUpload := note.Upload
	storedUpload := ""

	if form.Upload != nil {
		if len(note.ID) == 0 {
			note.ID = uuidv7.New().String()
		}

		key, err := s.storeUpload(ctx, note, form)
		if err != nil {
			return err
		}
		storedUpload = key
		note.Upload = key
	} else if form.WantsUploadDeleted() {
		note.Upload = ""
	}

	if err := s.Save(ctx, note, persistedTitle, isNew); err != nil {
		if len(storedUpload) > 0 {
			s.deleteUpload(ctx, note.ID, storedUpload)
		}
		note.Upload = previousUpload
		return err
	}

	if len(previousUpload) > 0 && previousUpload != note.Upload {
		s.deleteUpload(ctx, note.ID, previousUpload)
	}

	if !isNew {
		s.cleanupTags(ctx)
	}

	return nil
}

// Delete removes the note, its attachment and the tags only it used.
func (s *NoteService) Delete(ctx context.Context, note *models.Note) error {
	if err := s.DeleteNote(ctx, note); err != nil {
		return err
	}

	if note.HasUpload() {
		s.deleteUpload(ctx, note.ID, note.Upload)
	}

	s.cleanupTags(ctx)
	return nil
}

// FileURL returns a presigned URL for the note's attachment.
func (s *NoteService) FileURL(ctx context.Context, note *models.Note) (string, error) {
	return s.Storage.PresignedURL(ctx, note.Upload)
}

func (s *NoteService) applyNoteType(ctx context.Context, note *models.Note, noteTypeId *uint) error {
	if noteTypeId == nil {
		note.NoteTypeID = nil
		note.NoteType = nil
		return nil
	}

	var noteType models.NoteType
	err := s.FindNoteTypeById(ctx, *noteTypeId, &noteType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnknownNoteType
	}
	if err != nil {
		return fmt.Errorf("resolving note type: %w", err)
	}

	note.NoteTypeID = noteTypeId
	note.NoteType = &noteType
	return nil
}

func (s *NoteService) storeUpload(ctx context.Context, note *models.Note, form *NoteForm) (string, error) {
	file, err := form.Upload.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer file.Close()

	key := storage.NoteUploadPath(note.OwnerID, note.ID, form.Upload.Filename)
	if err = s.Storage.Upload(ctx, key, file, form.Upload.Size, form.uploadContentType); err != nil {
		return "", fmt.Errorf("storing upload: %w", err)
	}

	s.LogInfof(logging.GetLogTypeStorage(), "stored %s (%d bytes)", key, form.Upload.Size)
	return key, nil
}

func (s *NoteService) deleteUpload(ctx context.Context, noteId, key string) {
	if err := s.Storage.Delete(ctx, key); err != nil {
		s.LogErrorf(logging.GetLogTypeStorage(), "could not delete %s of note %s: %v", key, noteId, err)
	}
}

func (s *NoteService) cleanupTags(ctx context.Context) {
	if s.Housekeeper == nil {
		return
	}
	if err := s.Housekeeper.DeleteOrphanedTags(ctx); err != nil {
		s.LogError(logging.GetLogTypeHousekeeping(), err.Error())
	}
}
