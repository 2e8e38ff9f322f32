package bible

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"io"
	"milk2meat/internal/api"
	"milk2meat/internal/database"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/markdown"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/models"
	"milk2meat/internal/notes"
	"milk2meat/internal/utils"
	"net/http"
)

// maxBookNotes bounds the notes listed on a book page
const maxBookNotes = 100

// Api defines the HTTP endpoints for the books of the Bible.
//
// @Summary Bible API
type Api interface {
	ListBooks(c *gin.Context)
	GetBook(c *gin.Context)
	UpdateBook(c *gin.Context)
}

type Controller struct {
	*environment.Env
	Renderer *markdown.Renderer
}

// ensure Controller implements Api
var _ Api = &Controller{}

type BookListResponse struct {
	OldTestament []models.Book `json:"oldTestament"`
	NewTestament []models.Book `json:"newTestament"`
}

// BookDetail is a book with its introduction rendered to HTML. Empty fields have no HTML.
type BookDetail struct {
	models.Book
	TitleAndAuthorHtml           string                 `json:"titleAndAuthorHtml,omitempty"`
	DateAndOccasionHtml          string                 `json:"dateAndOccasionHtml,omitempty"`
	CharacteristicsAndThemesHtml string                 `json:"characteristicsAndThemesHtml,omitempty"`
	ChristInBookHtml             string                 `json:"christInBookHtml,omitempty"`
	OutlineHtml                  string                 `json:"outlineHtml,omitempty"`
	Notes                        []notes.NoteSummary    `json:"notes"`
	TimelineEvents               []models.TimelineEvent `json:"timelineEvents"`
	EditUrl                      string                 `json:"editUrl"`
}

func DetailUrl(bookId uint) string {
	return fmt.Sprintf("/books/%d", bookId)
}

// ListBooks returns all books split by testament.
//
// @ID listBooks
// @Summary List the books of the Bible
// @Tags bible
// @Router /books [get]
// @Success 200 {object} BookListResponse
// @Failure 500 {object} api.RestJsonErrorResponse
func (bc *Controller) ListBooks(c *gin.Context) {
	books := make([]models.Book, 0, 66)
	if err := bc.FindAllBooks(c.Request.Context(), &books); err != nil {
		bc.LogErrorf(logging.GetLogTypeBible(), "error reading books: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading books"))
		return
	}

	response := BookListResponse{
		OldTestament: make([]models.Book, 0, 39),
		NewTestament: make([]models.Book, 0, 27),
	}
	for _, b := range books {
		switch b.Testament {
		case models.OldTestament:
			response.OldTestament = append(response.OldTestament, b)
		case models.NewTestament:
			response.NewTestament = append(response.NewTestament, b)
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetBook returns a book with its rendered introduction and the caller's notes referencing it.
//
// @ID getBook
// @Summary Get a book of the Bible
// @Tags bible
// @Router /books/{id} [get]
// @Param id path int true "Book id"
// @Success 200 {object} BookDetail
// @Failure 404 {object} api.RestJsonErrorResponse
func (bc *Controller) GetBook(c *gin.Context) {
	ctx := c.Request.Context()

	book, ok := bc.findBook(c, false)
	if !ok {
		return
	}

	detail := BookDetail{Book: *book, EditUrl: DetailUrl(book.ID) + "/edit", TimelineEvents: book.Timeline.Events}
	if detail.TimelineEvents == nil {
		detail.TimelineEvents = []models.TimelineEvent{}
	}

	fields := []struct {
		source string
		target *string
	}{
		{book.TitleAndAuthor, &detail.TitleAndAuthorHtml},
		{book.DateAndOccasion, &detail.DateAndOccasionHtml},
		{book.CharacteristicsAndThemes, &detail.CharacteristicsAndThemesHtml},
		{book.ChristInBook, &detail.ChristInBookHtml},
		{book.Outline, &detail.OutlineHtml},
	}
	for _, f := range fields {
		html, err := bc.Renderer.Render(f.source)
		if err != nil {
			bc.LogErrorf(logging.GetLogTypeBible(), "error rendering %s: %v", book.Title, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error rendering book"))
			return
		}
		*f.target = html
	}

	userId, _ := middlewares.CurrentUserId(c)
	referencing := make([]models.Note, 0)
	if err := bc.FindNotes(ctx, userId, database.NoteFilter{BookId: book.ID}, 0, maxBookNotes, &referencing); err != nil {
		bc.LogErrorf(logging.GetLogTypeBible(), "error reading notes of %s: %v", book.Title, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading notes"))
		return
	}

	detail.Notes = make([]notes.NoteSummary, 0, len(referencing))
	for _, n := range referencing {
		detail.Notes = append(detail.Notes, notes.NewNoteSummary(n))
	}

	c.JSON(http.StatusOK, detail)
}

// UpdateBook saves the introduction and timeline of a book.
//
// @ID updateBook
// @Summary Update a book's introduction
// @Tags bible
// @Router /api/books/{id}/update [post]
// @Param id path int true "Book id"
// @Param book body BookForm true "Markdown fields and timeline"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
func (bc *Controller) UpdateBook(c *gin.Context) {
	ctx := c.Request.Context()

	book, ok := bc.findBook(c, true)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		bc.LogErrorf(logging.GetLogTypeBible(), "error reading request body: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormFailureResponse("error reading request body"))
		return
	}

	var form BookForm
	if err = json.Unmarshal(body, &form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(api.FieldErrors{"__all__": "Invalid JSON format"}))
		return
	}

	if err = form.Validate(); err != nil {
		fieldErrors, ok := api.NewFieldErrors(err)
		if !ok {
			bc.LogErrorf(logging.GetLogTypeBible(), "error validating book form: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewFormFailureResponse(err.Error()))
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(fieldErrors))
		return
	}

	if err = form.ApplyTo(book); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewFormErrorResponse(api.FieldErrors{"timeline": err.Error()}))
		return
	}

	if err = bc.Env.UpdateBook(ctx, book); err != nil {
		bc.LogErrorf(logging.GetLogTypeBible(), "error saving %s: %v", book.Title, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewFormFailureResponse(err.Error()))
		return
	}

	bc.LogInfof(logging.GetLogTypeBible(), "updated introduction of %s", book.Title)

	c.JSON(http.StatusOK, api.NewFormSuccessResponse(gin.H{
		"book": gin.H{
			"id":         book.ID,
			"title":      book.Title,
			"detail_url": DetailUrl(book.ID),
		},
		"message": fmt.Sprintf("%s saved successfully.", book.Title),
	}))
}

func (bc *Controller) findBook(c *gin.Context, form bool) (*models.Book, bool) {
	notFound := func() {
		if form {
			c.AbortWithStatusJSON(http.StatusNotFound, api.NewFormFailureResponse("Book not found"))
			return
		}
		c.AbortWithStatusJSON(http.StatusNotFound, api.NewErrorResponse("Book not found"))
	}

	bookId, ok := utils.ParseId(c.Param("id"))
	if !ok {
		notFound()
		return nil, false
	}

	var book models.Book
	err := bc.FindBookById(c.Request.Context(), bookId, &book)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound()
		return nil, false
	}
	if err != nil {
		bc.LogErrorf(logging.GetLogTypeBible(), "error reading book %d: %v", bookId, err)
		if form {
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewFormFailureResponse(err.Error()))
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading book"))
		}
		return nil, false
	}

	return &book, true
}
