package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/foldertags/internal/index"
	"github.com/starford/foldertags/internal/prompt"
	"github.com/starford/foldertags/internal/tagservice"
	"github.com/starford/foldertags/internal/validate"
	"github.com/starford/foldertags/internal/vaultpath"
)

// PromptQueue is the pending-prompt surface the API answers through.
type PromptQueue interface {
	Pending() []prompt.Prompt
	Answer(id string, a prompt.Answer) error
}

// Handler holds API route handlers.
type Handler struct {
	svc     *tagservice.Service
	idx     index.NoteIndex
	prompts PromptQueue
}

// NewHandler creates a new Handler.
func NewHandler(svc *tagservice.Service, idx index.NoteIndex, prompts PromptQueue) *Handler {
	return &Handler{svc: svc, idx: idx, prompts: prompts}
}

// wildcardPath extracts the vault path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return vaultpath.Normalize(raw)
	}
	return vaultpath.Normalize(decoded)
}

// ListFolderTags handles GET /api/folders.
//
//	@Summary		List every folder with assigned tags
//	@Tags			folders
//	@Produce		json
//	@Success		200	{object}	FolderListResponse
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolderTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: h.svc.ListFolderTags()})
}

// GetFolderTags handles GET /api/folders/*.
//
//	@Summary		Get a folder's own and effective tags
//	@Tags			folders
//	@Produce		json
//	@Param			path	path		string	true	"Folder path"
//	@Success		200		{object}	FolderTagsResponse
//	@Security		BearerAuth
//	@Router			/folders/{path} [get]
func (h *Handler) GetFolderTags(w http.ResponseWriter, r *http.Request) {
	folder := wildcardPath(r)
	writeJSON(w, http.StatusOK, FolderTagsResponse{
		Path:      folder,
		Tags:      h.svc.GetFolderTags(folder),
		Effective: h.svc.GetFolderTagsWithInheritance(folder),
	})
}

// SetFolderTags handles PUT /api/folders/*.
//
//	@Summary		Assign tags to a folder
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Folder path"
//	@Param			body	body		FolderTagsRequest	true	"Tags to assign"
//	@Success		200		{object}	FolderTagsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{path} [put]
func (h *Handler) SetFolderTags(w http.ResponseWriter, r *http.Request) {
	folder := wildcardPath(r)
	if folder == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folder path is required"))
		return
	}
	var req FolderTagsRequest
	if !readJSON(w, r, &req) {
		return
	}
	tags, err := validate.Tags(req.Tags)
	if err != nil {
		writeError(w, "set folder tags", err)
		return
	}
	if err := h.svc.SetFolderTags(r.Context(), folder, tags); err != nil {
		writeError(w, "set folder tags", err)
		return
	}
	writeJSON(w, http.StatusOK, FolderTagsResponse{
		Path:      folder,
		Tags:      h.svc.GetFolderTags(folder),
		Effective: h.svc.GetFolderTagsWithInheritance(folder),
	})
}

// DeleteFolderTags handles DELETE /api/folders/*.
//
//	@Summary		Forget the tags of a folder and its descendants
//	@Tags			folders
//	@Param			path	path	string	true	"Folder path"
//	@Success		204		"Assignments removed"
//	@Security		BearerAuth
//	@Router			/folders/{path} [delete]
func (h *Handler) DeleteFolderTags(w http.ResponseWriter, r *http.Request) {
	folder := wildcardPath(r)
	if folder == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folder path is required"))
		return
	}
	if err := h.svc.DeleteFolder(r.Context(), folder); err != nil {
		writeError(w, "delete folder tags", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyToFolder handles POST /api/folders/*.
//
//	@Summary		Merge folder tags into every note below a folder
//	@Tags			folders
//	@Produce		json
//	@Param			path	path		string	true	"Folder path, empty for the whole vault"
//	@Success		200		{object}	FolderApplyResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{path} [post]
func (h *Handler) ApplyToFolder(w http.ResponseWriter, r *http.Request) {
	folder := wildcardPath(r)
	changed, err := h.svc.ApplyFolderTagsToFolder(r.Context(), folder)
	if err != nil {
		writeError(w, "apply folder tags", err)
		return
	}
	writeJSON(w, http.StatusOK, FolderApplyResponse{Path: folder, Changed: changed})
}

// ListNotesByTag handles GET /api/notes?tag=.
//
//	@Summary		List indexed notes carrying a tag
//	@Tags			notes
//	@Produce		json
//	@Param			tag		query		string	true	"Tag"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotesByTag(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tag := strings.TrimPrefix(q.Get("tag"), "#")
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'tag' is required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	notes, total, err := h.idx.ListByTag(tag, limit, offset)
	if err != nil {
		writeError(w, "list notes by tag", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}

// TagCounts handles GET /api/tags.
//
//	@Summary		List tags in use with their note counts
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	TagCountResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) TagCounts(w http.ResponseWriter, _ *http.Request) {
	counts, err := h.idx.TagCounts()
	if err != nil {
		writeError(w, "tag counts", err)
		return
	}
	writeJSON(w, http.StatusOK, TagCountResponse{Tags: counts})
}

// ApplyFolderTags handles POST /api/notes/apply/*.
//
//	@Summary		Merge the folder's effective tags into a note
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteTagsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/apply/{path} [post]
func (h *Handler) ApplyFolderTags(w http.ResponseWriter, r *http.Request) {
	h.noteOp(w, r, "apply folder tags", func(note string) ([]string, error) {
		return h.svc.ApplyFolderTagsToFile(r.Context(), note)
	})
}

// StripFolderTags handles POST /api/notes/strip/*.
//
//	@Summary		Remove the folder's effective tags from a note
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteTagsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/strip/{path} [post]
func (h *Handler) StripFolderTags(w http.ResponseWriter, r *http.Request) {
	h.noteOp(w, r, "strip folder tags", func(note string) ([]string, error) {
		return h.svc.RemoveTagsFromFile(r.Context(), note)
	})
}

// ReplaceTags handles POST /api/notes/replace/*.
//
//	@Summary		Overwrite a note's tag list
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Note path"
//	@Param			body	body		NoteTagsRequest	true	"Replacement tags"
//	@Success		200		{object}	NoteTagsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/replace/{path} [post]
func (h *Handler) ReplaceTags(w http.ResponseWriter, r *http.Request) {
	var req NoteTagsRequest
	if !readJSON(w, r, &req) {
		return
	}
	tags, err := validate.Tags(req.Tags)
	if err != nil {
		writeError(w, "replace tags", err)
		return
	}
	h.noteOp(w, r, "replace tags", func(note string) ([]string, error) {
		return h.svc.ReplaceAllTags(r.Context(), note, tags)
	})
}

// MergeTags handles POST /api/notes/merge/*.
//
//	@Summary		Swap one tag set for another, keeping manual tags
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Note path"
//	@Param			body	body		NoteTagsRequest	true	"Old and new tags"
//	@Success		200		{object}	NoteTagsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/merge/{path} [post]
func (h *Handler) MergeTags(w http.ResponseWriter, r *http.Request) {
	var req NoteTagsRequest
	if !readJSON(w, r, &req) {
		return
	}
	newTags, err := validate.Tags(req.NewTags)
	if err != nil {
		writeError(w, "merge tags", err)
		return
	}
	oldTags := validate.Normalize(req.OldTags)
	h.noteOp(w, r, "merge tags", func(note string) ([]string, error) {
		return h.svc.MergeTags(r.Context(), note, oldTags, newTags)
	})
}

func (h *Handler) noteOp(w http.ResponseWriter, r *http.Request, op string, fn func(note string) ([]string, error)) {
	note := wildcardPath(r)
	if note == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	tags, err := fn(note)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteTagsResponse{Path: note, Tags: tags})
}

// ExtractContent handles POST /api/content/extract.
//
//	@Summary		Extract the tags of a note body
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Note content"
//	@Success		200		{object}	ContentResponse
//	@Router			/content/extract [post]
func (h *Handler) ExtractContent(w http.ResponseWriter, r *http.Request) {
	h.contentOp(w, r, func(content string, _ []string) string { return content })
}

// SetContent handles POST /api/content/set.
//
//	@Summary		Replace the tag list of a note body
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Note content and tags"
//	@Success		200		{object}	ContentResponse
//	@Router			/content/set [post]
func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	h.contentOp(w, r, h.svc.UpdateTagsInContent)
}

// AddContent handles POST /api/content/add.
//
//	@Summary		Add tags to a note body
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Note content and tags"
//	@Success		200		{object}	ContentResponse
//	@Router			/content/add [post]
func (h *Handler) AddContent(w http.ResponseWriter, r *http.Request) {
	h.contentOp(w, r, h.svc.AddTagsToContent)
}

// ClearContent handles POST /api/content/clear.
//
//	@Summary		Remove the tag list of a note body
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Note content"
//	@Success		200		{object}	ContentResponse
//	@Router			/content/clear [post]
func (h *Handler) ClearContent(w http.ResponseWriter, r *http.Request) {
	h.contentOp(w, r, func(content string, _ []string) string {
		return h.svc.RemoveAllTagsFromContent(content)
	})
}

func (h *Handler) contentOp(w http.ResponseWriter, r *http.Request, fn func(content string, tags []string) string) {
	var req ContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	tags, err := validate.Tags(req.Tags)
	if err != nil {
		writeError(w, "content", err)
		return
	}
	out := fn(req.Content, tags)
	writeJSON(w, http.StatusOK, ContentResponse{Content: out, Tags: h.svc.ExtractTagsFromContent(out)})
}

// ListPrompts handles GET /api/prompts.
//
//	@Summary		List prompts waiting for an answer
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{array}	prompt.Prompt
//	@Security		BearerAuth
//	@Router			/prompts [get]
func (h *Handler) ListPrompts(w http.ResponseWriter, _ *http.Request) {
	if h.prompts == nil {
		writeJSON(w, http.StatusOK, []prompt.Prompt{})
		return
	}
	writeJSON(w, http.StatusOK, h.prompts.Pending())
}

// AnswerPrompt handles POST /api/prompts/{id}.
//
//	@Summary		Answer or dismiss a pending prompt
//	@Tags			prompts
//	@Accept			json
//	@Param			id		path	string			true	"Prompt ID"
//	@Param			body	body	prompt.Answer	true	"Answer"
//	@Success		204		"Answer delivered"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/prompts/{id} [post]
func (h *Handler) AnswerPrompt(w http.ResponseWriter, r *http.Request) {
	if h.prompts == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var a prompt.Answer
	if !readJSON(w, r, &a) {
		return
	}
	if err := h.prompts.Answer(chi.URLParam(r, "id"), a); err != nil {
		writeError(w, "answer prompt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get the tagging settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	models.Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Replace the tagging settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Settings	true	"Settings"
//	@Success		200		{object}	models.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	next := h.svc.Settings()
	if !readJSON(w, r, &next) {
		return
	}
	if next.ExcludedFolders == nil {
		next.ExcludedFolders = []string{}
	}
	if err := h.svc.UpdateSettings(r.Context(), next); err != nil {
		writeError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Settings())
}
