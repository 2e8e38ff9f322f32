package controllers

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/api"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/markdown"
	"net/http"
	"sync"
)

type MarkdownApi interface {
	GetHighlightStyleSheet(c *gin.Context)
	PreviewMarkdown(c *gin.Context)
}

// MarkdownController serves the highlight CSS and renders editor previews.
type MarkdownController struct {
	*environment.Env
	Renderer *markdown.Renderer
	Style    string

	styleSheetOnce sync.Once
	styleSheet     string
	styleSheetErr  error
}

// ensure MarkdownController implements MarkdownApi
var _ MarkdownApi = &MarkdownController{}

type PreviewRequest struct {
	Content string `json:"content"`
}

// GetHighlightStyleSheet returns the CSS for the code highlight classes.
//
// @ID getHighlightStyleSheet
// @Summary Code highlight style sheet
// @Tags markdown
// @Router /markdown/highlight.css [get]
// @Success 200 {string} string "text/css"
// @Failure 500 {object} api.RestJsonErrorResponse
func (mc *MarkdownController) GetHighlightStyleSheet(c *gin.Context) {
	mc.styleSheetOnce.Do(func() {
		style := mc.Style
		if len(style) == 0 {
			style = markdown.DefaultHighlightStyle
		}
		mc.styleSheet, mc.styleSheetErr = markdown.StyleSheet(style)
	})

	if mc.styleSheetErr != nil {
		mc.LogError(logging.GetLogType("markdown"), mc.styleSheetErr)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error building style sheet"))
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(mc.styleSheet))
}

// PreviewMarkdown renders the posted Markdown the same way saved notes are rendered.
//
// @ID previewMarkdown
// @Summary Render a Markdown preview
// @Tags markdown
// @Router /api/markdown/preview [post]
// @Param request body PreviewRequest true "Markdown source"
// @Success 200 {object} map[string]string
// @Failure 400 {object} api.RestJsonErrorResponse
func (mc *MarkdownController) PreviewMarkdown(c *gin.Context) {
	var request PreviewRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponsef("invalid request body: %s", err))
		return
	}

	html, err := mc.Renderer.Render(request.Content)
	if err != nil {
		mc.LogWarnf(logging.GetLogType("markdown"), "preview rendering failed: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": html})
}
