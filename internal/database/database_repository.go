package database

import (
	"context"
	"gorm.io/gorm"
	"milk2meat/internal/models"
	"strings"
)

// Repository defines data access methods for users, Bible books, notes and their
// note types and tags, plus the generic lookups used by the search index.
//
// @Summary Interface for milk2meat data storage operations
type Repository interface {

	// FindUserLoginCredentials fetches the user record with the specified email.
	//
	// Param email path string true "Email (lower-cased)"
	FindUserLoginCredentials(ctx context.Context, email string, user *models.User) error

	FindUserById(ctx context.Context, id uint, user *models.User) error

	// FindFirstSuperuser fetches the superuser with the lowest id.
	FindFirstSuperuser(ctx context.Context, user *models.User) error

	CreateUser(ctx context.Context, user *models.User) error

	// FindAllBooks retrieves all books ordered by their canonical number.
	FindAllBooks(ctx context.Context, books *[]models.Book) error

	FindBookById(ctx context.Context, id uint, book *models.Book) error

	// FindBooksByIds retrieves the books with the given IDs; unknown IDs are ignored.
	//
	// Param ids body []uint true "Book IDs"
	FindBooksByIds(ctx context.Context, ids []uint, books *[]models.Book) error

	CountBooks(ctx context.Context, count *int64) error

	CreateBooks(ctx context.Context, books []models.Book) error

	// UpdateBook persists the editable introduction fields and the timeline of book.
	UpdateBook(ctx context.Context, book *models.Book) error

	FindAllNoteTypes(ctx context.Context, noteTypes *[]models.NoteType) error

	FindNoteTypeById(ctx context.Context, id uint, noteType *models.NoteType) error

	// FindNoteTypeByName looks a note type up by name, ignoring case.
	FindNoteTypeByName(ctx context.Context, name string, noteType *models.NoteType) error

	CreateNoteType(ctx context.Context, noteType *models.NoteType) error

	// FindOrCreateTags resolves every name to a tag, creating missing ones. Names are matched ignoring case.
	//
	// Param names body []string true "Tag names"
	FindOrCreateTags(ctx context.Context, names []string, tags *[]models.Tag) error

	// FindTagCountsByOwner counts, per tag, the notes of ownerId carrying it.
	FindTagCountsByOwner(ctx context.Context, ownerId uint, tagCounts *[]TagCount) error

	// FindOrphanedTagIds fetches the IDs of tags no note references.
	FindOrphanedTagIds(ctx context.Context, tagIds *[]uint) error

	DeleteTagsByIds(ctx context.Context, tagIds []uint) error

	// FindNotes retrieves one page of the owner's notes matching filter, newest first.
	FindNotes(ctx context.Context, ownerId uint, filter NoteFilter, offset, limit int, notes *[]models.Note) error

	CountNotes(ctx context.Context, ownerId uint, filter NoteFilter, count *int64) error

	// FindNoteById fetches a note with its note type, tags and referenced books.
	FindNoteById(ctx context.Context, id string, note *models.Note) error

	// SlugExists reports whether another note of ownerId (not excludeNoteId) uses slug.
	SlugExists(ctx context.Context, ownerId uint, slug string, excludeNoteId string) (bool, error)

	// SaveNote creates or updates note and replaces its tag and book associations in one transaction.
	SaveNote(ctx context.Context, note *models.Note, isNew bool) error

	DeleteNote(ctx context.Context, note *models.Note) error

	// FindSearchMatches retrieves up to limit rows of target containing term in any searched field.
	FindSearchMatches(ctx context.Context, target SearchTarget, ownerId uint, term string, limit int, rows *[]map[string]any) error

	CountSearchMatches(ctx context.Context, target SearchTarget, ownerId uint, term string, count *int64) error
}

// NoteFilter narrows note listings. Zero values do not filter.
type NoteFilter struct {
	// NoteType is a note type name, compared ignoring case
	NoteType string
	BookId   uint
	// Tag is a tag name, compared ignoring case
	Tag string
	// Query matches title, content or tag names as a substring
	Query string
	// OrderBy is a trusted ORDER BY expression; empty means newest first
	OrderBy string
}

// TagCount is a tag with the number of notes of one owner carrying it.
type TagCount struct {
	Id    uint   `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// SearchTarget describes a searchable table.
type SearchTarget struct {
	Table string
	// Fields are searched with ILIKE
	Fields []string
	// Stored are returned alongside the matches without being searched
	Stored []string
	// OwnerColumn restricts matches to one owner; empty for shared entities
	OwnerColumn string
}

// Columns returns the selected columns: id, the searched fields and the stored fields.
func (s SearchTarget) Columns() []string {
	columns := make([]string, 0, 1+len(s.Fields)+len(s.Stored))
	columns = append(columns, "id")
	columns = append(columns, s.Fields...)
	columns = append(columns, s.Stored...)
	return columns
}

// OwnedBy restricts a notes query to the notes of ownerId.
func OwnedBy(ownerId uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("notes.owner_id = ?", ownerId)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards in term so it matches literally.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func containsPattern(term string) string {
	return "%" + EscapeLike(term) + "%"
}

// GormRepository provides a GORM-based implementation of the Repository interface.
type GormRepository struct {
	*gorm.DB
}

// ensure GormRepository implements Repository
var _ Repository = &GormRepository{}
