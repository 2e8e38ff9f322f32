package routes

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/auth"
	"milk2meat/internal/bible"
	"milk2meat/internal/constants"
	"milk2meat/internal/controllers"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/notes"
	"milk2meat/internal/search"
	"milk2meat/internal/session"
	"milk2meat/internal/tags"
)

func RegisterProtectedRoutes(r *gin.Engine, controllerRegistry map[int]any, signingKey string, store session.TokenStore) {

	authGroup := r.Group("")

	authGroup.Use(middlewares.AuthHandler(signingKey, store))
	{
		// auth
		authApi := controllerRegistry[constants.Auth].(auth.Api)
		authGroup.POST("/auth/refresh", authApi.RefreshToken)
		authGroup.POST("/auth/logout", authApi.Logout)
		authGroup.GET("/auth/me", authApi.Me)

		// notes
		notesApi := controllerRegistry[constants.Notes].(notes.Api)
		authGroup.GET("/dashboard", notesApi.Dashboard)
		authGroup.GET("/notes", notesApi.ListNotes)
		authGroup.GET("/notes/:id", notesApi.GetNote)
		authGroup.POST("/notes/:id/delete", notesApi.DeleteNote)
		authGroup.GET("/notes/:id/file", notesApi.GetNoteFile)
		authGroup.POST("/api/notes/create", notesApi.CreateNote)
		authGroup.POST("/api/notes/:id/update", notesApi.UpdateNote)
		authGroup.GET("/note-types", notesApi.ListNoteTypes)
		authGroup.POST("/api/note-types/create", notesApi.CreateNoteType)

		// bible
		bibleApi := controllerRegistry[constants.Bible].(bible.Api)
		authGroup.GET("/books", bibleApi.ListBooks)
		authGroup.GET("/books/:id", bibleApi.GetBook)
		authGroup.POST("/api/books/:id/update", bibleApi.UpdateBook)

		// tags
		tagsApi := controllerRegistry[constants.Tags].(tags.Api)
		authGroup.GET("/tags", tagsApi.ListTags)
		authGroup.GET("/api/tags/suggest", tagsApi.SuggestTags)

		// search
		searchApi := controllerRegistry[constants.Search].(search.Api)
		authGroup.GET("/search", searchApi.Search)

		// markdown
		markdownApi := controllerRegistry[constants.Markdown].(controllers.MarkdownApi)
		authGroup.POST("/api/markdown/preview", markdownApi.PreviewMarkdown)
	}
}
