package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme    = "historycourt://"
	jsonMIMEType = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "categories",
		Name:        "categories",
		Description: "Round categories in tie-break order with their detection hints",
		MIMEType:    jsonMIMEType,
	}, s.handleCategoriesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "type-map",
		Name:        "type-map",
		Description: "Host to site-type table and site-type to category table",
		MIMEType:    jsonMIMEType,
	}, s.handleTypeMapResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/tags",
		Name:        "session-tags",
		Description: "Per-category material available in an uploaded session",
		MIMEType:    jsonMIMEType,
	}, s.handleSessionTagsResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		}},
	}, nil
}

// handleCategoriesResource returns the taxonomy.
func (s *Server) handleCategoriesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.History.Categories())
}

// handleTypeMapResource returns the host type tables.
func (s *Server) handleTypeMapResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.History.TypeMap())
}

// handleSessionTagsResource returns the tag summary of a session.
func (s *Server) handleSessionTagsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	tags, err := s.ports.History.SessionTags(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("summarising session: %w", err)
	}
	return jsonResource(req.Params.URI, tags)
}

// extractSessionID extracts the session ID from a URI like historycourt://sessions/{sessionId}/tags.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/tags"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
