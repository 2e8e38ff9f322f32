package search

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/api"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/utils"
	"net/http"
	"strings"
)

const MaxPageSize = 50

type Api interface {
	Search(c *gin.Context)
}

type Controller struct {
	*environment.Env
	Index    *Index
	PageSize int
}

// ensure Controller implements Api
var _ Api = &Controller{}

// Search returns the caller's notes and the Bible books matching q, most similar first.
//
// @ID search
// @Summary Search notes and books
// @Tags search
// @Router /search [get]
// @Param q query string true "Search term"
// @Param page query int false "1-based page number"
// @Param size query int false "Page size"
// @Success 200 {object} api.Page[search.Result]
// @Failure 400 {object} api.RestJsonErrorResponse
// @Failure 500 {object} api.RestJsonErrorResponse
func (sc *Controller) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if len(term) <= 0 {
		msg := "did not perform search because no search term was present"
		sc.LogDebug(logging.GetLogTypeSearch(), msg)
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponse(msg))
		return
	}

	pageSize := utils.ParsePositiveInt(c.Query("size"), sc.PageSize)
	if pageSize <= 0 {
		pageSize = 10
	}
	pageSize = min(pageSize, MaxPageSize)

	userId, _ := middlewares.CurrentUserId(c)
	page, err := sc.Index.Search(c.Request.Context(), userId, term, api.NewPageable(c.Query("page"), pageSize))
	if err != nil {
		sc.LogErrorf(logging.GetLogTypeSearch(), "error searching for %q: %v", term, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("error reading search matches"))
		return
	}

	c.JSON(http.StatusOK, page)
}
