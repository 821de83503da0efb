package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.generatePlanTool(),
		s.listPlansTool(),
		s.getPlanTool(),
		s.planActionTool("approve_rescue_plan", "Approve a pending rescue plan so it can be executed", s.approve),
		s.planActionTool("cancel_rescue_plan", "Cancel a pending or approved rescue plan", s.cancel),
		s.planActionTool("execute_rescue_plan", "Run the steps of an approved rescue plan in order; stops at the first failing step", s.execute),
	)
}

func (s *Server) generatePlanTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("generate_rescue_plan",
		mcplib.WithDescription("Classify a trigger event (e.g. \"ETH drop\", \"wallet compromised\") into a pending rescue plan"),
		mcplib.WithString("event",
			mcplib.Required(),
			mcplib.Description("Free-text description of what happened; at least 3 characters"),
		),
		mcplib.WithString("user",
			mcplib.Description("Owner of the plan; defaults to the configured user"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGenerate}
}

func (s *Server) listPlansTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_rescue_plans",
		mcplib.WithDescription("List the most recent rescue plans, oldest first"),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of plans (1-1000)")),
		mcplib.WithString("status",
			mcplib.Description("Only plans in this status"),
			mcplib.Enum("pending", "approved", "executing", "succeeded", "failed", "cancelled"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleList}
}

func (s *Server) getPlanTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_rescue_plan",
		mcplib.WithDescription("Get a rescue plan with its step results"),
		planIDParam(),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGet}
}

func (s *Server) planActionTool(name, desc string, fn func(context.Context, string) (rescue.Plan, error)) mcpserver.ServerTool {
	tool := mcplib.NewTool(name,
		mcplib.WithDescription(desc),
		planIDParam(),
	)
	return mcpserver.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
			if s.deps.Plans == nil {
				return mcplib.NewToolResultError("rescue service not configured"), nil
			}
			id, err := req.RequireString("plan_id")
			if err != nil || id == "" {
				return mcplib.NewToolResultError("plan_id is required"), nil
			}
			p, err := fn(ctx, id)
			if err != nil {
				return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("%s %s failed", name, id), err), nil
			}
			return jsonResult(p)
		},
	}
}

func planIDParam() mcplib.ToolOption {
	return mcplib.WithString("plan_id",
		mcplib.Required(),
		mcplib.Description("Plan id, e.g. plan_1"),
	)
}

func (s *Server) approve(ctx context.Context, id string) (rescue.Plan, error) {
	return s.deps.Plans.Approve(ctx, id)
}

func (s *Server) cancel(ctx context.Context, id string) (rescue.Plan, error) {
	return s.deps.Plans.Cancel(ctx, id)
}

func (s *Server) execute(ctx context.Context, id string) (rescue.Plan, error) {
	return s.deps.Plans.Execute(ctx, id)
}

func (s *Server) handleGenerate(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Plans == nil {
		return mcplib.NewToolResultError("rescue service not configured"), nil
	}
	event, err := req.RequireString("event")
	if err != nil {
		return mcplib.NewToolResultError("event is required"), nil
	}
	p, err := s.deps.Plans.Generate(ctx, event, req.GetString("user", ""))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to generate rescue plan", err), nil
	}
	return jsonResult(p)
}

func (s *Server) handleList(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Plans == nil {
		return mcplib.NewToolResultError("rescue service not configured"), nil
	}
	var status rescue.Status
	if raw := req.GetString("status", ""); raw != "" {
		st, ok := rescue.ParseStatus(strings.ToLower(strings.TrimSpace(raw)))
		if !ok {
			return mcplib.NewToolResultError(fmt.Sprintf("unknown status %q", raw)), nil
		}
		status = st
	}
	limit := req.GetInt("limit", 0)
	if limit < 0 || limit > 1000 {
		return mcplib.NewToolResultError("limit must be between 1 and 1000"), nil
	}
	plans, err := s.deps.Plans.List(ctx, limit, status)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list rescue plans", err), nil
	}
	if plans == nil {
		plans = []rescue.Plan{}
	}
	return jsonResult(plans)
}

func (s *Server) handleGet(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Plans == nil {
		return mcplib.NewToolResultError("rescue service not configured"), nil
	}
	id, err := req.RequireString("plan_id")
	if err != nil || id == "" {
		return mcplib.NewToolResultError("plan_id is required"), nil
	}
	p, err := s.deps.Plans.Get(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get plan %s", id), err), nil
	}
	return jsonResult(p)
}

func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
