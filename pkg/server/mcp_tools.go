package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/pastefind/pastefind/internal/models"
)

// registerMCPTools registers the identification tools with the MCP server.
func registerMCPTools(mcpSrv *mcpserver.MCPServer, s *Server) {
	s.registerIdentifyTrackTool(mcpSrv)
}

func (s *Server) registerIdentifyTrackTool(mcpSrv *mcpserver.MCPServer) {
	tool := mcp.NewTool("identify-track",
		mcp.WithDescription("Identify the music track playing in a media URL"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Link to a video or audio post (YouTube, TikTok, Instagram, ...)"),
		),
	)

	mcpSrv.AddTool(tool, s.handleIdentifyTrackTool)
}

// handleIdentifyTrackTool runs identify-track through the same worker pool as
// the HTTP surface, so MCP callers share the concurrency bound.
func (s *Server) handleIdentifyTrackTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		URL string `json:"url"`
	}

	if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	log.WithField("url", args.URL).Info("Executing identify-track via MCP")

	res, err := s.submit(ctx, &models.Request{SourceURL: args.URL})
	if err != nil {
		if ctx.Err() != nil {
			return mcp.NewToolResultError("request cancelled"), nil
		}
		return mcp.NewToolResultError("server is busy, try again later"), nil
	}
	if res.err != nil {
		log.WithError(res.err).Debug("identify-track finished without a match")
	}

	data, err := json.Marshal(res.resp)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func unmarshalArgs(arguments interface{}, v interface{}) error {
	data, err := json.Marshal(arguments)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
