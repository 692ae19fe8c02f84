package api

import (
	"github.com/starford/foldertags/internal/index"
	"github.com/starford/foldertags/internal/tagservice"
)

// FolderTagsRequest is the request body for assigning folder tags.
type FolderTagsRequest struct {
	Tags []string `json:"tags" example:"work,q3" validate:"required"`
}

// FolderTagsResponse describes one folder's own and effective tags.
type FolderTagsResponse struct {
	Path      string   `json:"path" example:"Projects/Alpha" validate:"required"`
	Tags      []string `json:"tags" example:"alpha" validate:"required"`
	Effective []string `json:"effective" example:"alpha,projects" validate:"required"`
}

// FolderListResponse lists every tagged folder.
type FolderListResponse struct {
	Folders []tagservice.FolderTags `json:"folders" validate:"required"`
}

// FolderApplyResponse lists the notes rewritten by a folder-wide apply.
type FolderApplyResponse struct {
	Path    string   `json:"path" example:"Projects"`
	Changed []string `json:"changed" validate:"required"`
}

// NoteTagsRequest carries the tag lists of replace and merge operations.
type NoteTagsRequest struct {
	Tags    []string `json:"tags,omitempty" example:"work"`
	OldTags []string `json:"old_tags,omitempty" example:"projects"`
	NewTags []string `json:"new_tags,omitempty" example:"archive"`
}

// NoteTagsResponse returns a note's tags after an operation.
type NoteTagsResponse struct {
	Path string   `json:"path" example:"Projects/Alpha/plan.md" validate:"required"`
	Tags []string `json:"tags" example:"alpha,projects" validate:"required"`
}

// ContentRequest is the request body of the content endpoints.
type ContentRequest struct {
	Content string   `json:"content" example:"---\ntags: [a]\n---\nbody"`
	Tags    []string `json:"tags,omitempty" example:"b"`
}

// ContentResponse returns transformed content and the tags it carries.
type ContentResponse struct {
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags" validate:"required"`
}

// NoteListResponse wraps paginated notes-by-tag listings.
type NoteListResponse struct {
	Notes []index.NoteRow `json:"notes" validate:"required"`
	Total int             `json:"total" example:"42" validate:"required"`
}

// TagCountResponse lists tags in use.
type TagCountResponse struct {
	Tags []index.TagCount `json:"tags" validate:"required"`
}
