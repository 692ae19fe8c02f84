// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the folder tagging tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/foldertags/internal/apperr"
	"github.com/starford/foldertags/internal/index"
	"github.com/starford/foldertags/internal/tagservice"
	"github.com/starford/foldertags/internal/validate"
	"github.com/starford/foldertags/internal/vaultpath"
)

const contractURI = "foldertags://tagging-rules"

// Server wraps the MCP server with the tagging tools.
type Server struct {
	mcp *server.MCPServer
	svc *tagservice.Service
	idx index.NoteIndex
}

// New creates a new MCP server with all tagging tools registered.
func New(svc *tagservice.Service, idx index.NoteIndex) *Server {
	s := &Server{svc: svc, idx: idx}

	s.mcp = server.NewMCPServer(
		"FolderTags",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_folder_tags",
		mcp.WithDescription("Get a folder's own tags and the effective tags its notes inherit."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Folder path relative to the vault root (e.g. Projects/Alpha)")),
	), s.getFolderTags)

	s.mcp.AddTool(mcp.NewTool("set_folder_tags",
		mcp.WithDescription("Assign tags to a folder. Replaces the folder's previous tags; "+
			"an empty list clears them. Read the rules first via get_tagging_rules."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Folder path relative to the vault root")),
		mcp.WithString("tags", mcp.Required(), mcp.Description("Comma or space separated tags, e.g. \"work, q3\"")),
	), s.setFolderTags)

	s.mcp.AddTool(mcp.NewTool("apply_folder_tags",
		mcp.WithDescription("Merge the effective tags of the note's folder into the note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path (must end with .md)")),
	), s.applyFolderTags)

	s.mcp.AddTool(mcp.NewTool("remove_note_tags",
		mcp.WithDescription("Remove the effective folder tags from a note, keeping tags added by hand."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path (must end with .md)")),
	), s.removeNoteTags)

	s.mcp.AddTool(mcp.NewTool("extract_tags",
		mcp.WithDescription("Extract every tag from Markdown text: the front matter list and inline #tags."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown text")),
	), s.extractTags)

	s.mcp.AddTool(mcp.NewTool("list_notes_by_tag",
		mcp.WithDescription("List indexed notes carrying a tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag, with or without a leading #")),
	), s.listNotesByTag)

	s.mcp.AddTool(mcp.NewTool("get_tagging_rules",
		mcp.WithDescription("Returns the folder tagging rules: tag syntax, inheritance and note format."),
	), s.getTaggingRules)

	// Resource: tagging rules.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Folder Tagging Rules",
			mcp.WithResourceDescription("How folder tags are written, inherited and stored in notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type folderTagsResult struct {
	Path      string   `json:"path"`
	Tags      []string `json:"tags"`
	Effective []string `json:"effective"`
}

func (s *Server) folderResult(folder string) (*mcp.CallToolResult, error) {
	return jsonResult(folderTagsResult{
		Path:      folder,
		Tags:      s.svc.GetFolderTags(folder),
		Effective: s.svc.GetFolderTagsWithInheritance(folder),
	})
}

func (s *Server) getFolderTags(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.folderResult(vaultpath.Normalize(path))
}

func (s *Server) setFolderTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags, err := validate.Tags(validate.ParseList(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder := vaultpath.Normalize(path)
	if err := s.svc.SetFolderTags(ctx, folder, tags); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.folderResult(folder)
}

func (s *Server) applyFolderTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.noteOp(req, func(note string) ([]string, error) {
		return s.svc.ApplyFolderTagsToFile(ctx, note)
	})
}

func (s *Server) removeNoteTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.noteOp(req, func(note string) ([]string, error) {
		return s.svc.RemoveTagsFromFile(ctx, note)
	})
}

func (s *Server) noteOp(req mcp.CallToolRequest, fn func(note string) ([]string, error)) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note := vaultpath.Normalize(path)
	tags, err := fn(note)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", note)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"path": note, "tags": tags})
}

func (s *Server) extractTags(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := s.svc.ExtractTagsFromContent(content)
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	return mcp.NewToolResultText(strings.Join(tags, "\n")), nil
}

func (s *Server) listNotesByTag(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, _, err := s.idx.ListByTag(strings.TrimPrefix(strings.TrimSpace(tag), "#"), 200, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	paths := make([]string, 0, len(notes))
	for _, n := range notes {
		paths = append(paths, n.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getTaggingRules(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaggingRules), nil
}

func (s *Server) readRulesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     TaggingRules,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
