// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes arbor tree operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/noteservice"
)

const layoutURI = "arbor://layout"

// Server wraps the MCP server with arbor tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all arbor tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"arbor",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	pathArg := func(desc string) mcp.ToolOption {
		return mcp.WithString("path", mcp.Description(desc))
	}

	s.mcp.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Show the note outline below a note, in display order."),
		pathArg("Note path to start from, e.g. Projects/Arbor (empty for the root)"),
		mcp.WithNumber("depth", mcp.Description("Levels to descend; -1 for all (default -1)")),
	), s.getTree)

	s.mcp.AddTool(mcp.NewTool("create_child",
		mcp.WithDescription("Create a note as the last child of another note."),
		pathArg("Note path of the parent (empty for the root)"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the new note")),
	), s.createChild)

	s.mcp.AddTool(mcp.NewTool("create_sibling",
		mcp.WithDescription("Create a note directly after another note under the same parent."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path of the existing note")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the new note")),
	), s.createSibling)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Rename a note, keeping its position and its subtree."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path to rename")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
	), s.renameNote)

	s.mcp.AddTool(mcp.NewTool("move_note",
		mcp.WithDescription("Reorder a note among its siblings, promote it to its grandparent (out), "+
			"or wrap it into a new parent created in its place (in)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path to move")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Kind of move"),
			mcp.Enum(noteservice.MoveShift, noteservice.MoveTop, noteservice.MoveBottom,
				noteservice.MoveOut, noteservice.MoveIn)),
		mcp.WithNumber("delta", mcp.Description("Positions to shift by for kind=shift; negative moves up")),
		mcp.WithString("name", mcp.Description("Name of the new parent for kind=in")),
	), s.moveNote)

	s.mcp.AddTool(mcp.NewTool("duplicate_note",
		mcp.WithDescription("Copy a note and its subtree next to itself under a free name (name-1, name-2, ...)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path to duplicate")),
	), s.duplicateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Move a note and its subtree to the workspace trash."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path to delete")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("set_expanded",
		mcp.WithDescription("Record whether a note is shown expanded in tree views."),
		pathArg("Note path (empty for the root)"),
		mcp.WithBoolean("open", mcp.Required(), mcp.Description("true to expand, false to collapse")),
	), s.setExpanded)

	s.mcp.AddTool(mcp.NewTool("resolve_note",
		mcp.WithDescription("Find the note owning an absolute file path."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Absolute path of a note's .md file")),
	), s.resolveNote)

	s.mcp.AddTool(mcp.NewTool("get_active_note",
		mcp.WithDescription("Return the note last opened for editing."),
	), s.getActiveNote)

	s.mcp.AddTool(mcp.NewTool("check_workspace",
		mcp.WithDescription("Report inconsistencies such as content files without their children "+
			"directory or stale ordering entries."),
	), s.checkWorkspace)

	s.mcp.AddTool(mcp.NewTool("get_layout_contract",
		mcp.WithDescription("Returns how arbor lays notes out on disk. Read it before touching files directly."),
	), s.getLayoutContract)

	s.mcp.AddResource(
		mcp.NewResource(layoutURI, "Workspace Layout",
			mcp.WithResourceDescription("On-disk layout of an arbor workspace."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
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

// toolError turns a service error into a tool error result. Tool errors are
// reported in the result, not as protocol errors.
func toolError(err error) *mcp.CallToolResult {
	if apperr.IsInconsistent(err) {
		return mcp.NewToolResultError("inconsistent state, run check_workspace: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func boolArg(req mcp.CallToolRequest, key string) (bool, error) {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return false, fmt.Errorf("required argument %q not found", key)
	}
	return v, nil
}

func (s *Server) getTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.svc.Outline(ctx, req.GetString("path", ""), int(req.GetFloat("depth", -1)))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(out.String()), nil
}

func (s *Server) createChild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.CreateChild(ctx, req.GetString("path", ""), name)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", v.Path)), nil
}

func (s *Server) createSibling(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.CreateSibling(ctx, path, name)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", v.Path)), nil
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.Rename(ctx, path, name)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", path, v.Path)), nil
}

func (s *Server) moveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := noteservice.ParseMove(kind, int(req.GetFloat("delta", 0)), req.GetString("name", ""))
	if err != nil {
		return toolError(err), nil
	}
	v, err := s.svc.Move(ctx, path, m)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved: %s", v.Path)), nil
}

func (s *Server) duplicateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.Duplicate(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("duplicated: %s", v.Path)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Delete(ctx, path); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) setExpanded(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open, err := boolArg(req, "open")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.SetExpanded(ctx, req.GetString("path", ""), open)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(v)
}

func (s *Server) resolveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.Resolve(ctx, file)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(v)
}

func (s *Server) getActiveNote(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.Active(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultText("no active note"), nil
	}
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(v)
}

func (s *Server) checkWorkspace(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := s.svc.Check(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(issues) == 0 {
		return mcp.NewToolResultText("no issues found"), nil
	}
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.Kind + ": " + is.Path
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getLayoutContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LayoutContract), nil
}

func (s *Server) readLayoutResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      layoutURI,
			MIMEType: "text/markdown",
			Text:     LayoutContract,
		},
	}, nil
}
