package notes_test

import (
	"bytes"
	"context"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"io"
	"milk2meat/internal/constants"
	"milk2meat/internal/database"
	"milk2meat/internal/environment"
	"milk2meat/internal/markdown"
	"milk2meat/internal/models"
	"milk2meat/internal/notes"
	"milk2meat/internal/storage"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const (
	ownerId    = uint(7)
	strangerId = uint(8)
	noteId     = "0190a6c2-7f3e-7c2a-9d41-5b8e2f1a3c4d"
	newNoteId  = "0190a6c3-1111-7aaa-8bbb-000000000001"
)

type mockRepository struct {
	database.NullRepository
	notes     map[string]models.Note
	noteTypes map[uint]models.NoteType
	books     []models.Book
	tagCounts []database.TagCount
	// takenSlugs are used by other notes of the owner
	takenSlugs map[string]bool
	// saveErrs are returned by consecutive SaveNote calls
	saveErrs     []error
	saved        []models.Note
	deleted      []string
	orphanedTags []uint
	deletedTags  []uint
	createdTypes []models.NoteType
	lastFilter   database.NoteFilter
	users        []models.User
	err          error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		notes: map[string]models.Note{
			noteId: {
				ID:       noteId,
				Title:    "Walking by Faith",
				Slug:     "walking-by-faith",
				Content:  "# Walking by Faith\n\n> Hebrews 11:1",
				OwnerID:  ownerId,
				Upload:   "notes/7/" + noteId + "/outline.pdf",
				Tags:     []models.Tag{{Model: models.Model{ID: 1}, Name: "faith"}},
				NoteType: &models.NoteType{Model: models.Model{ID: 1}, Name: "Bible Study"},
			},
		},
		noteTypes: map[uint]models.NoteType{
			1: {Model: models.Model{ID: 1}, Name: "Bible Study"},
			2: {Model: models.Model{ID: 2}, Name: "Sermon Notes"},
		},
		books: []models.Book{
			{Model: models.Model{ID: 1}, Title: "Genesis", Number: 1},
			{Model: models.Model{ID: 58}, Title: "Hebrews", Number: 58},
		},
		tagCounts: []database.TagCount{
			{Id: 2, Name: "grace", Count: 4},
			{Id: 1, Name: "Faith", Count: 2},
		},
		takenSlugs: map[string]bool{},
	}
}

func (m *mockRepository) FindNoteById(_ context.Context, id string, note *models.Note) error {
	if m.err != nil {
		return m.err
	}
	n, ok := m.notes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	*note = n
	return nil
}

func (m *mockRepository) FindNotes(_ context.Context, ownerId uint, filter database.NoteFilter, offset, limit int, notes *[]models.Note) error {
	if m.err != nil {
		return m.err
	}
	m.lastFilter = filter
	for _, n := range m.notes {
		if n.OwnerID == ownerId {
			*notes = append(*notes, n)
		}
	}
	return nil
}

func (m *mockRepository) CountNotes(_ context.Context, ownerId uint, _ database.NoteFilter, count *int64) error {
	if m.err != nil {
		return m.err
	}
	for _, n := range m.notes {
		if n.OwnerID == ownerId {
			*count++
		}
	}
	return nil
}

func (m *mockRepository) FindAllBooks(_ context.Context, books *[]models.Book) error {
	*books = append(*books, m.books...)
	return nil
}

func (m *mockRepository) FindFirstSuperuser(_ context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.IsSuperuser {
			*user = u
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockRepository) CreateUser(_ context.Context, user *models.User) error {
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, *user)
	return nil
}

func (m *mockRepository) CountBooks(_ context.Context, count *int64) error {
	*count = int64(len(m.books))
	return nil
}

func (m *mockRepository) SlugExists(_ context.Context, _ uint, slug string, _ string) (bool, error) {
	return m.takenSlugs[slug], nil
}

func (m *mockRepository) SaveNote(_ context.Context, note *models.Note, _ bool) error {
	if len(m.saveErrs) > 0 {
		err := m.saveErrs[0]
		m.saveErrs = m.saveErrs[1:]
		if err != nil {
			// the concurrent writer now owns the slug
			m.takenSlugs[note.Slug] = true
			return err
		}
	}
	if len(note.ID) == 0 {
		note.ID = newNoteId
	}
	m.saved = append(m.saved, *note)
	m.notes[note.ID] = *note
	return nil
}

func (m *mockRepository) DeleteNote(_ context.Context, note *models.Note) error {
	m.deleted = append(m.deleted, note.ID)
	delete(m.notes, note.ID)
	return nil
}

func (m *mockRepository) FindNoteTypeById(_ context.Context, id uint, noteType *models.NoteType) error {
	nt, ok := m.noteTypes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	*noteType = nt
	return nil
}

func (m *mockRepository) FindNoteTypeByName(_ context.Context, name string, noteType *models.NoteType) error {
	for _, nt := range m.noteTypes {
		if strings.EqualFold(nt.Name, name) {
			*noteType = nt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockRepository) CreateNoteType(_ context.Context, noteType *models.NoteType) error {
	noteType.ID = uint(len(m.noteTypes) + 1)
	m.noteTypes[noteType.ID] = *noteType
	m.createdTypes = append(m.createdTypes, *noteType)
	return nil
}

func (m *mockRepository) FindAllNoteTypes(_ context.Context, noteTypes *[]models.NoteType) error {
	for _, id := range []uint{1, 2, 3} {
		if nt, ok := m.noteTypes[id]; ok {
			*noteTypes = append(*noteTypes, nt)
		}
	}
	return nil
}

func (m *mockRepository) FindOrCreateTags(_ context.Context, names []string, tags *[]models.Tag) error {
	for i, name := range names {
		*tags = append(*tags, models.Tag{Model: models.Model{ID: uint(i + 10)}, Name: name})
	}
	return nil
}

func (m *mockRepository) FindBooksByIds(_ context.Context, ids []uint, books *[]models.Book) error {
	for _, id := range ids {
		for _, b := range m.books {
			if b.ID == id {
				*books = append(*books, b)
			}
		}
	}
	return nil
}

func (m *mockRepository) FindTagCountsByOwner(_ context.Context, _ uint, tagCounts *[]database.TagCount) error {
	*tagCounts = append(*tagCounts, m.tagCounts...)
	return nil
}

func (m *mockRepository) FindOrphanedTagIds(_ context.Context, tagIds *[]uint) error {
	*tagIds = append(*tagIds, m.orphanedTags...)
	return nil
}

func (m *mockRepository) DeleteTagsByIds(_ context.Context, tagIds []uint) error {
	m.deletedTags = append(m.deletedTags, tagIds...)
	return nil
}

type mockStorage struct {
	uploaded   map[string]string
	deleted    []string
	presignErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{uploaded: map[string]string{}}
}

func (m *mockStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	m.uploaded[key] = contentType
	return nil
}

func (m *mockStorage) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockStorage) PresignedURL(_ context.Context, key string) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://files.example.com/" + key + "?X-Amz-Expires=300", nil
}

var _ storage.FileStorage = &mockStorage{}

func newMockController(repo database.Repository, fileStorage storage.FileStorage) *notes.Controller {
	env := environment.Null()
	env.Repository = repo

	return &notes.Controller{
		Env:         env,
		NoteService: notes.NewNoteService(env, fileStorage),
		Renderer:    markdown.NewRenderer(),
		Uploads:     &notes.MimeUploadValidator{MaxSize: 10 * 1024 * 1024},
	}
}

// newContext returns a test context authenticated as userId.
func newContext(userId uint, req *http.Request, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	c.Set(constants.ContextUserId, userId)
	return c, w
}

type formFile struct {
	name    string
	content []byte
}

// multipartRequest encodes fields (and an optional upload) as multipart/form-data.
func multipartRequest(t *testing.T, target string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile("upload", file.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err = part.Write(file.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
