package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const plansURI = "rescue://plans"

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			plansURI,
			"Rescue Plans",
			mcplib.WithResourceDescription("Most recent rescue plans with their step results"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePlansResource,
	)
}

func (s *Server) handlePlansResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	text := `{"error":"rescue service not configured"}`
	if s.deps.Plans != nil {
		plans, err := s.deps.Plans.List(ctx, 0, "")
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(map[string]any{"plans": plans, "count": len(plans)})
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}
