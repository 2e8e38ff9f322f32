package database

import (
	"context"
	"milk2meat/internal/models"
)

// NullRepository is a no-op implementation of the Repository interface.
// Useful for testing or default wiring when no database operations are required.
type NullRepository struct{}

// ensure NullRepository implements Repository
var _ Repository = &NullRepository{}

func (n *NullRepository) FindUserLoginCredentials(ctx context.Context, email string, user *models.User) error {
	return nil
}

func (n *NullRepository) FindUserById(ctx context.Context, id uint, user *models.User) error {
	return nil
}

func (n *NullRepository) FindFirstSuperuser(ctx context.Context, user *models.User) error {
	return nil
}

func (n *NullRepository) CreateUser(ctx context.Context, user *models.User) error {
	return nil
}

func (n *NullRepository) FindAllBooks(ctx context.Context, books *[]models.Book) error {
	return nil
}

func (n *NullRepository) FindBookById(ctx context.Context, id uint, book *models.Book) error {
	return nil
}

func (n *NullRepository) FindBooksByIds(ctx context.Context, ids []uint, books *[]models.Book) error {
	return nil
}

func (n *NullRepository) CountBooks(ctx context.Context, count *int64) error {
	return nil
}

func (n *NullRepository) CreateBooks(ctx context.Context, books []models.Book) error {
	return nil
}

func (n *NullRepository) UpdateBook(ctx context.Context, book *models.Book) error {
	return nil
}

func (n *NullRepository) FindAllNoteTypes(ctx context.Context, noteTypes *[]models.NoteType) error {
	return nil
}

func (n *NullRepository) FindNoteTypeById(ctx context.Context, id uint, noteType *models.NoteType) error {
	return nil
}

func (n *NullRepository) FindNoteTypeByName(ctx context.Context, name string, noteType *models.NoteType) error {
	return nil
}

func (n *NullRepository) CreateNoteType(ctx context.Context, noteType *models.NoteType) error {
	return nil
}

func (n *NullRepository) FindOrCreateTags(ctx context.Context, names []string, tags *[]models.Tag) error {
	return nil
}

func (n *NullRepository) FindTagCountsByOwner(ctx context.Context, ownerId uint, tagCounts *[]TagCount) error {
	return nil
}

func (n *NullRepository) FindOrphanedTagIds(ctx context.Context, tagIds *[]uint) error {
	return nil
}

func (n *NullRepository) DeleteTagsByIds(ctx context.Context, tagIds []uint) error {
	return nil
}

func (n *NullRepository) FindNotes(ctx context.Context, ownerId uint, filter NoteFilter, offset, limit int, notes *[]models.Note) error {
	return nil
}

func (n *NullRepository) CountNotes(ctx context.Context, ownerId uint, filter NoteFilter, count *int64) error {
	return nil
}

func (n *NullRepository) FindNoteById(ctx context.Context, id string, note *models.Note) error {
	return nil
}

func (n *NullRepository) SlugExists(ctx context.Context, ownerId uint, slug string, excludeNoteId string) (bool, error) {
	return false, nil
}

func (n *NullRepository) SaveNote(ctx context.Context, note *models.Note, isNew bool) error {
	return nil
}

func (n *NullRepository) DeleteNote(ctx context.Context, note *models.Note) error {
	return nil
}

func (n *NullRepository) FindSearchMatches(ctx context.Context, target SearchTarget, ownerId uint, term string, limit int, rows *[]map[string]any) error {
	return nil
}

func (n *NullRepository) CountSearchMatches(ctx context.Context, target SearchTarget, ownerId uint, term string, count *int64) error {
	return nil
}
