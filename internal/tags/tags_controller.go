package tags

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/api"
	"milk2meat/internal/database"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/middlewares"
	"net/http"
)

type Api interface {
	ListTags(c *gin.Context)
	SuggestTags(c *gin.Context)
}

type Controller struct {
	*environment.Env
	TagService
}

// ensure Controller implements Api
var _ Api = &Controller{}

type TagListResponse struct {
	Tags     []database.TagCount `json:"tags"`
	ByLetter []LetterGroup       `json:"byLetter"`
	Cloud    []database.TagCount `json:"cloud"`
}

// ListTags returns the caller's tags with the number of notes using them.
//
// @ID listTags
// @Summary List tags
// @Tags tags
// @Router /tags [get]
// @Success 200 {object} TagListResponse
// @Failure 500 {object} api.RestJsonErrorResponse
func (tc *Controller) ListTags(c *gin.Context) {
	tags, ok := tc.ownerTags(c)
	if !ok {
		return
	}

	tc.SortByName(tags)

	c.JSON(http.StatusOK, TagListResponse{
		Tags:     tags,
		ByLetter: tc.GroupByLetter(tags),
		Cloud:    tc.Cloud(tags),
	})
}

// SuggestTags returns up to ten of the caller's tag names matching q.
//
// @ID suggestTags
// @Summary Suggest tags
// @Tags tags
// @Router /api/tags/suggest [get]
// @Param q query string true "Partial tag name"
// @Success 200 {object} map[string][]string
func (tc *Controller) SuggestTags(c *gin.Context) {
	tags, ok := tc.ownerTags(c)
	if !ok {
		return
	}

	// most used first so equally good matches favor them
	tags = tc.Cloud(tags)
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}

	c.JSON(http.StatusOK, gin.H{"tags": tc.Suggest(c.Query("q"), names)})
}

func (tc *Controller) ownerTags(c *gin.Context) ([]database.TagCount, bool) {
	userId, _ := middlewares.CurrentUserId(c)

	tags := make([]database.TagCount, 0)
	if err := tc.FindTagCountsByOwner(c.Request.Context(), userId, &tags); err != nil {
		tc.LogErrorf(logging.GetLogType("tags"), "error reading tags: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading tags"))
		return nil, false
	}
	return tags, true
}
