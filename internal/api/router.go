package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/foldertags/internal/index"
	"github.com/starford/foldertags/internal/tagservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// prompts may be nil when prompts are answered by policy; the prompt
// routes then report an empty queue.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *tagservice.Service, idx index.NoteIndex, prompts PromptQueue, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, idx, prompts)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Folder tag assignments.
	r.Get("/folders", h.ListFolderTags)
	r.Get("/folders/*", h.GetFolderTags)
	r.Put("/folders/*", h.SetFolderTags)
	r.Post("/folders/*", h.ApplyToFolder)
	r.Delete("/folders/*", h.DeleteFolderTags)

	// Note tag operations.
	r.Get("/notes", h.ListNotesByTag)
	r.Post("/notes/apply/*", h.ApplyFolderTags)
	r.Post("/notes/strip/*", h.StripFolderTags)
	r.Post("/notes/replace/*", h.ReplaceTags)
	r.Post("/notes/merge/*", h.MergeTags)
	r.Get("/tags", h.TagCounts)

	// Codec operations on caller-supplied text.
	r.Post("/content/extract", h.ExtractContent)
	r.Post("/content/set", h.SetContent)
	r.Post("/content/add", h.AddContent)
	r.Post("/content/clear", h.ClearContent)

	// Prompts.
	r.Get("/prompts", h.ListPrompts)
	r.Post("/prompts/{id}", h.AnswerPrompt)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
