package mcpserver

import (
	"context"
	"strings"

	"lane-games/internal/game"

	"github.com/mark3labs/mcp-go/mcp"
)

type submitCommandArgs struct {
	Code            string       `json:"code"`
	Command         game.Command `json:"command"`
	ExpectedVersion int64        `json:"expected_version"`
}

func (s *Server) registerPlayTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_command",
			mcp.WithDescription("Apply a game command (start, predict, record_outcome, set_score, set_match_score, advance, start_mystery_pot, submit_frame, finish, reset, add_player, remove_player) and return the new snapshot"),
			mcp.WithString("code", mcp.Required(), mcp.Description("Six character session code")),
			mcp.WithObject("command", mcp.Required(), mcp.Description("Command object with a type field and its arguments, e.g. {\"type\":\"set_score\",\"player_id\":1,\"game\":1,\"score\":180}")),
			mcp.WithNumber("expected_version", mcp.Description("Reject with stale_version unless the session is at this version; 0 applies to the latest")),
		),
		s.handleSubmitCommand,
	)
}

func (s *Server) handleSubmitCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args submitCommandArgs
	if err := request.BindArguments(&args); err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if strings.TrimSpace(args.Code) == "" || args.Command.Type == "" {
		return toolError("invalid_request", "code and command.type are required"), nil
	}
	sess, err := s.svc.Apply(ctx, args.Code, actorFrom(ctx), args.Command, args.ExpectedVersion)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(sess), nil
}
