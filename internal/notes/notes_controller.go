package notes

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"milk2meat/internal/api"
	"milk2meat/internal/database"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/markdown"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/models"
	"milk2meat/internal/storage"
	"milk2meat/internal/utils"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"
)

const (
	// PageSize is the number of notes listed per page
	PageSize = 12

	dashboardRecentNotes = 5
	dashboardTopTags     = 10
)

// Api defines the HTTP endpoints for notes and note types.
//
// @Summary Notes API
type Api interface {
	ListNotes(c *gin.Context)
	GetNote(c *gin.Context)
	CreateNote(c *gin.Context)
	UpdateNote(c *gin.Context)
	DeleteNote(c *gin.Context)
	GetNoteFile(c *gin.Context)
	ListNoteTypes(c *gin.Context)
	CreateNoteType(c *gin.Context)
	Dashboard(c *gin.Context)
}

// Controller handles note operations of the authenticated user.
type Controller struct {
	*environment.Env
	*NoteService
	Renderer *markdown.Renderer
	Uploads  UploadValidator
}

// ensure Controller implements Api
var _ Api = &Controller{}

// NoteSummary is a note as shown in listings.
type NoteSummary struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	NoteType  string    `json:"noteType,omitempty"`
	Tags      []string  `json:"tags"`
	HasUpload bool      `json:"hasUpload"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	DetailUrl string    `json:"detailUrl"`
}

// NoteDetail is a single note with its rendered content.
type NoteDetail struct {
	models.Note
	ContentHtml   string `json:"contentHtml"`
	UploadName    string `json:"uploadName,omitempty"`
	UploadIsImage bool   `json:"uploadIsImage"`
	FileUrl       string `json:"fileUrl,omitempty"`
	EditUrl       string `json:"editUrl"`
}

// NoteFilters echoes the filters applied to a listing.
type NoteFilters struct {
	Type  string `json:"type"`
	Book  uint   `json:"book,omitempty"`
	Tag   string `json:"tag"`
	Query string `json:"q"`
	Sort  string `json:"sort,omitempty"`
}

type NoteListResponse struct {
	Notes          api.Page[NoteSummary] `json:"notes"`
	Tags           []database.TagCount   `json:"tags"`
	NoteTypes      []models.NoteType     `json:"noteTypes"`
	CurrentFilters NoteFilters           `json:"currentFilters"`
}

type DashboardResponse struct {
	NoteCount   int64               `json:"noteCount"`
	RecentNotes []NoteSummary       `json:"recentNotes"`
	BookCount   int64               `json:"bookCount"`
	TopTags     []database.TagCount `json:"topTags"`
}

func DetailUrl(noteId string) string {
	return "/notes/" + noteId
}

func EditUrl(noteId string) string {
	return "/notes/" + noteId + "/edit"
}

func NewNoteSummary(n models.Note) NoteSummary {
	summary := NoteSummary{
		Id:        n.ID,
		Title:     n.Title,
		Slug:      n.Slug,
		Tags:      n.TagNames(),
		HasUpload: n.HasUpload(),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		DetailUrl: DetailUrl(n.ID),
	}
	if n.NoteType != nil {
		summary.NoteType = n.NoteType.Name
	}
	return summary
}

func toSummaries(notes []models.Note) []NoteSummary {
	summaries := make([]NoteSummary, 0, len(notes))
	for _, n := range notes {
		summaries = append(summaries, NewNoteSummary(n))
	}
	return summaries
}

var sortableColumns = map[string]struct{}{
	"title":      {},
	"created_at": {},
	"updated_at": {},
}

// parseSort turns "-updatedAt" or "title" into an ORDER BY clause over an allow-listed column.
func parseSort(raw string) (string, []api.Order) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}

	direction := api.ASC
	if strings.HasPrefix(raw, "-") {
		direction = api.DESC
		raw = raw[1:]
	}

	column := utils.ToSnakeCase(raw)
	if _, ok := sortableColumns[column]; !ok {
		return "", nil
	}

	orderBy := fmt.Sprintf("notes.%s %s", column, direction)
	return orderBy, []api.Order{{Property: raw, Direction: direction}}
}

// ListNotes returns one page of the caller's notes.
//
// @ID listNotes
// @Summary List notes
// @Tags notes
// @Router /notes [get]
// @Param type query string false "Note type name"
// @Param book query int false "Referenced book id"
// @Param tag query string false "Tag name"
// @Param q query string false "Substring of title, content or a tag"
// @Param page query int false "1-based page"
// @Param sort query string false "title, createdAt or updatedAt, prefixed with - for descending"
// @Success 200 {object} NoteListResponse
// @Failure 500 {object} api.RestJsonErrorResponse
func (nc *Controller) ListNotes(c *gin.Context) {
	ctx := c.Request.Context()
	userId, _ := middlewares.CurrentUserId(c)

	filters := NoteFilters{
		Type:  strings.TrimSpace(c.Query("type")),
		Tag:   strings.TrimSpace(c.Query("tag")),
		Query: strings.TrimSpace(c.Query("q")),
		Sort:  strings.TrimSpace(c.Query("sort")),
	}
	if bookId, ok := utils.ParseId(c.Query("book")); ok {
		filters.Book = bookId
	}

	orderBy, orders := parseSort(filters.Sort)
	filter := database.NoteFilter{
		NoteType: filters.Type,
		BookId:   filters.Book,
		Tag:      filters.Tag,
		Query:    filters.Query,
		OrderBy:  orderBy,
	}

	pageable := api.NewPageable(c.Query("page"), PageSize)
	pageable.Sort = api.NewSort(orders)

	var total int64
	if err := nc.CountNotes(ctx, userId, filter, &total); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error counting notes: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading notes"))
		return
	}

	notes := make([]models.Note, 0, PageSize)
	if err := nc.FindNotes(ctx, userId, filter, pageable.Offset(), pageable.PageSize, &notes); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error reading notes: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading notes"))
		return
	}

	tagCounts := make([]database.TagCount, 0)
	if err := nc.FindTagCountsByOwner(ctx, userId, &tagCounts); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error reading tags: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading tags"))
		return
	}
	slices.SortFunc(tagCounts, func(a, b database.TagCount) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	noteTypes := make([]models.NoteType, 0)
	if err := nc.FindAllNoteTypes(ctx, &noteTypes); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error reading note types: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading note types"))
		return
	}

	c.JSON(http.StatusOK, NoteListResponse{
		Notes:          api.NewPage(toSummaries(notes), pageable, int(total)),
		Tags:           tagCounts,
		NoteTypes:      noteTypes,
		CurrentFilters: filters,
	})
}

// GetNote returns a note with its rendered content and a link to its attachment.
//
// @ID getNote
// @Summary Get a note
// @Tags notes
// @Router /notes/{id} [get]
// @Param id path string true "Note id"
// @Success 200 {object} NoteDetail
// @Failure 403 {object} api.RestJsonErrorResponse
// @Failure 404 {object} api.RestJsonErrorResponse
func (nc *Controller) GetNote(c *gin.Context) {
	ctx := c.Request.Context()

	note, ok := nc.ownedNote(c, false)
	if !ok {
		return
	}

	contentHtml, err := nc.Renderer.Render(note.Content)
	if err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(note.ID), "error rendering note: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error rendering note"))
		return
	}

	detail := NoteDetail{
		Note:          *note,
		ContentHtml:   contentHtml,
		UploadName:    note.UploadName(),
		UploadIsImage: note.UploadIsImage(),
		EditUrl:       EditUrl(note.ID),
	}

	userId, _ := middlewares.CurrentUserId(c)
	if note.HasUpload() && storage.UserCanAccessFile(note.Upload, userId) {
		fileUrl, err := nc.FileURL(ctx, note)
		if err != nil {
			nc.LogWarnf(logging.GetLogTypeStorage(), "could not sign %s: %v", note.Upload, err)
		}
		detail.FileUrl = fileUrl
	}

	c.JSON(http.StatusOK, detail)
}

// CreateNote saves a new note from a multipart form.
//
// @ID createNote
// @Summary Create a note
// @Tags notes
// @Router /api/notes/create [post]
// @Accept multipart/form-data
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
func (nc *Controller) CreateNote(c *gin.Context) {
	userId, _ := middlewares.CurrentUserId(c)
	note := &models.Note{OwnerID: userId}
	nc.saveNote(c, note, true)
}

// UpdateNote saves changes to an existing note of the caller.
//
// @ID updateNote
// @Summary Update a note
// @Tags notes
// @Router /api/notes/{id}/update [post]
// @Param id path string true "Note id"
// @Accept multipart/form-data
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]any
// @Failure 404 {object} map[string]any
func (nc *Controller) UpdateNote(c *gin.Context) {
	note, ok := nc.ownedNote(c, true)
	if !ok {
		return
	}
	nc.saveNote(c, note, false)
}

func (nc *Controller) saveNote(c *gin.Context, note *models.Note, isNew bool) {
	ctx := c.Request.Context()

	var form NoteForm
	if err := c.ShouldBind(&form); err != nil {
		nc.LogWarnf(logging.GetLogTypeNotes(note.ID), "error binding note form: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(api.FieldErrors{"__all__": "Invalid form data"}))
		return
	}

	form.Prepare()
	if err := form.Validate(nc.Uploads); err != nil {
		fieldErrors, ok := api.NewFieldErrors(err)
		if !ok {
			nc.LogErrorf(logging.GetLogTypeNotes(note.ID), "error validating note form: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewFormFailureResponse("Server error"))
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(fieldErrors))
		return
	}

	err := nc.SaveForm(ctx, note, &form, isNew)
	switch {
	case errors.Is(err, ErrUnknownNoteType):
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(api.FieldErrors{"note_type": errInvalidChoice.Error()}))
		return
	case errors.Is(err, storage.ErrStorageDisabled):
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(api.FieldErrors{"upload": "File uploads are not available"}))
		return
	case err != nil:
		nc.LogErrorf(logging.GetLogTypeNotes(note.ID), "error saving note: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewFormFailureResponse("Server error"))
		return
	}

	nc.LogInfof(logging.GetLogTypeNotes(note.ID), "saved note %q (new: %t)", note.Slug, isNew)

	c.JSON(http.StatusOK, api.NewFormSuccessResponse(gin.H{
		"is_new": isNew,
		"note": gin.H{
			"id":         note.ID,
			"title":      note.Title,
			"slug":       note.Slug,
			"detail_url": DetailUrl(note.ID),
			"edit_url":   EditUrl(note.ID),
		},
		"message": "Note saved successfully.",
	}))
}

// DeleteNote deletes a note of the caller together with its attachment.
//
// @ID deleteNote
// @Summary Delete a note
// @Tags notes
// @Router /notes/{id}/delete [post]
// @Param id path string true "Note id"
// @Success 200 {object} api.RestJsonResponse
// @Failure 403 {object} api.RestJsonErrorResponse
// @Failure 404 {object} api.RestJsonErrorResponse
func (nc *Controller) DeleteNote(c *gin.Context) {
	ctx := c.Request.Context()

	note, ok := nc.ownedNote(c, false)
	if !ok {
		return
	}

	if err := nc.Delete(ctx, note); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(note.ID), "error deleting note: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error deleting note"))
		return
	}

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, fmt.Sprintf("Note '%s' has been deleted.", note.Title), gin.H{"id": note.ID}))
}

// GetNoteFile returns a short-lived URL of the note's attachment.
//
// @ID getNoteFile
// @Summary Get a presigned URL for a note attachment
// @Tags notes
// @Router /notes/{id}/file [get]
// @Param id path string true "Note id"
// @Success 200 {object} map[string]string
// @Failure 403 {object} api.RestJsonErrorResponse
// @Failure 404 {object} api.RestJsonErrorResponse
// @Failure 500 {object} api.RestJsonErrorResponse
func (nc *Controller) GetNoteFile(c *gin.Context) {
	ctx := c.Request.Context()

	note, ok := nc.ownedNote(c, false)
	if !ok {
		return
	}

	if !note.HasUpload() {
		c.AbortWithStatusJSON(http.StatusNotFound, api.NewErrorResponse("This note has no attached file"))
		return
	}

	userId, _ := middlewares.CurrentUserId(c)
	if !storage.UserCanAccessFile(note.Upload, userId) {
		nc.LogWarnf(logging.GetLogTypeStorage(), "user %d tried to access %s", userId, note.Upload)
		c.AbortWithStatusJSON(http.StatusForbidden, api.NewErrorResponse("You don't have permission to access this file"))
		return
	}

	fileUrl, err := nc.FileURL(ctx, note)
	if err != nil {
		nc.LogErrorf(logging.GetLogTypeStorage(), "error signing %s: %v", note.Upload, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Server error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": fileUrl})
}

// ListNoteTypes returns every note type ordered by name.
//
// @ID listNoteTypes
// @Summary List note types
// @Tags notes
// @Router /note-types [get]
// @Success 200 {array} models.NoteType
func (nc *Controller) ListNoteTypes(c *gin.Context) {
	noteTypes := make([]models.NoteType, 0)
	if err := nc.FindAllNoteTypes(c.Request.Context(), &noteTypes); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error reading note types: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading note types"))
		return
	}

	c.JSON(http.StatusOK, noteTypes)
}

// CreateNoteType adds a note type; names are unique ignoring case.
//
// @ID createNoteType
// @Summary Create a note type
// @Tags notes
// @Router /api/note-types/create [post]
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
func (nc *Controller) CreateNoteType(c *gin.Context) {
	ctx := c.Request.Context()

	var form NoteTypeForm
	if err := c.ShouldBind(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(api.FieldErrors{"__all__": "Invalid form data"}))
		return
	}

	form.Prepare()
	if err := form.Validate(); err != nil {
		fieldErrors, _ := api.NewFieldErrors(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(fieldErrors))
		return
	}

	duplicate := api.NewFormErrorResponse(api.FieldErrors{"name": "A note type with this name already exists."})

	var existing models.NoteType
	err := nc.FindNoteTypeByName(ctx, form.Name, &existing)
	if err == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, duplicate)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error reading note type: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewFormFailureResponse("Server error"))
		return
	}

	noteType := models.NoteType{Name: form.Name, Description: form.Description}
	err = nc.Env.CreateNoteType(ctx, &noteType)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		c.AbortWithStatusJSON(http.StatusBadRequest, duplicate)
		return
	}
	if err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error creating note type: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewFormFailureResponse("Server error"))
		return
	}

	c.JSON(http.StatusOK, api.NewFormSuccessResponse(gin.H{"id": noteType.ID, "name": noteType.Name}))
}

// Dashboard summarizes the caller's notes.
//
// @ID dashboard
// @Summary Dashboard
// @Tags notes
// @Router /dashboard [get]
// @Success 200 {object} DashboardResponse
func (nc *Controller) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	userId, _ := middlewares.CurrentUserId(c)

	response := DashboardResponse{TopTags: make([]database.TagCount, 0)}

	if err := nc.CountNotes(ctx, userId, database.NoteFilter{}, &response.NoteCount); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error counting notes: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading dashboard"))
		return
	}

	recent := make([]models.Note, 0, dashboardRecentNotes)
	if err := nc.FindNotes(ctx, userId, database.NoteFilter{}, 0, dashboardRecentNotes, &recent); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error reading recent notes: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading dashboard"))
		return
	}
	response.RecentNotes = toSummaries(recent)

	if err := nc.CountBooks(ctx, &response.BookCount); err != nil {
		nc.LogErrorf(logging.GetLogTypeBible(), "error counting books: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading dashboard"))
		return
	}

	if err := nc.FindTagCountsByOwner(ctx, userId, &response.TopTags); err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(), "error reading tags: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading dashboard"))
		return
	}
	if len(response.TopTags) > dashboardTopTags {
		response.TopTags = response.TopTags[:dashboardTopTags]
	}

	c.JSON(http.StatusOK, response)
}

var noteIdPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ownedNote loads the note named by the id path parameter and checks it belongs to the caller.
// form selects the {success:false, error} body used by the form endpoints.
func (nc *Controller) ownedNote(c *gin.Context, form bool) (*models.Note, bool) {
	fail := func(status int, message string) {
		if form {
			c.AbortWithStatusJSON(status, api.NewFormFailureResponse(message))
			return
		}
		c.AbortWithStatusJSON(status, api.NewErrorResponse(message))
	}

	noteId := c.Param("id")
	if !noteIdPattern.MatchString(noteId) {
		fail(http.StatusNotFound, "Note not found")
		return nil, false
	}

	var note models.Note
	err := nc.FindNoteById(c.Request.Context(), noteId, &note)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(http.StatusNotFound, "Note not found")
		return nil, false
	}
	if err != nil {
		nc.LogErrorf(logging.GetLogTypeNotes(noteId), "error reading note: %v", err)
		fail(http.StatusInternalServerError, "Server error")
		return nil, false
	}

	userId, _ := middlewares.CurrentUserId(c)
	if !note.IsOwnedBy(userId) {
		fail(http.StatusForbidden, "You don't have permission to access this note")
		return nil, false
	}

	return &note, true
}
