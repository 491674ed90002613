package mcpserver

import (
	"context"

	"lane-games/internal/app/session"
	"lane-games/internal/game"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_modes",
			mcp.WithDescription("List game modes with their roster limits"),
		),
		s.handleListModes,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_session",
			mcp.WithDescription("Create a game session hosted by the caller and return it with its join code"),
			mcp.WithString("mode", mcp.Required(), mcp.Enum(modeNames()...), mcp.Description("Game mode")),
			mcp.WithString("per_game_stake", mcp.Description("Match Play per-game stake in dollars, default 5")),
			mcp.WithString("totals_stake", mcp.Description("Match Play totals stake in dollars, default 5")),
			mcp.WithString("entry_fee", mcp.Description("King of the Hill or Bracket entry fee in dollars")),
			mcp.WithString("per_game_prize", mcp.Description("King of the Hill per-game prize in dollars")),
			mcp.WithString("totals_prize", mcp.Description("King of the Hill totals prize in dollars")),
			mcp.WithString("tie_break", mcp.Enum(string(game.TieBreakReplay), string(game.TieBreakFirstListed), string(game.TieBreakRandom)), mcp.Description("Bracket tie rule, default replay")),
			mcp.WithBoolean("host_plays", mcp.Description("Seat the host as a player, default true")),
			mcp.WithString("host_name", mcp.Description("Display name for the host seat")),
			mcp.WithString("entitlement", mcp.Description("Grant token when session creation is gated")),
		),
		s.handleCreateSession,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_session",
			mcp.WithDescription("Join a session lobby by code. Joining twice is a no-op."),
			mcp.WithString("code", mcp.Required(), mcp.Description("Six character session code")),
			mcp.WithString("name", mcp.Description("Display name, defaults to the caller's")),
		),
		s.handleJoinSession,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_session",
			mcp.WithDescription("Fetch the current session snapshot"),
			mcp.WithString("code", mcp.Required(), mcp.Description("Six character session code")),
		),
		s.handleGetSession,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_settlement",
			mcp.WithDescription("Compute who pays whom for the session's current balances"),
			mcp.WithString("code", mcp.Required(), mcp.Description("Six character session code")),
		),
		s.handleGetSettlement,
	)
}

func (s *Server) handleListModes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := make([]map[string]any, 0, len(game.Modes()))
	for _, m := range game.Modes() {
		eng, err := game.EngineFor(m)
		if err != nil {
			return mapDomainError(err), nil
		}
		items = append(items, map[string]any{
			"mode":        m,
			"min_players": eng.MinPlayers(),
			"max_players": eng.MaxPlayers(),
		})
	}
	return toolResult(map[string]any{"items": items}), nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := request.RequireString("mode")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	cfg, err := configFromArgs(request.GetArguments())
	if err != nil {
		return mapDomainError(err), nil
	}
	hostPlays := request.GetBool("host_plays", true)
	sess, err := s.svc.Create(ctx, actorFrom(ctx), session.CreateRequest{
		Mode:        mode,
		Config:      cfg,
		HostPlays:   &hostPlays,
		HostName:    request.GetString("host_name", ""),
		Entitlement: request.GetString("entitlement", ""),
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(sess), nil
}

func (s *Server) handleJoinSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	actor := actorFrom(ctx)
	sess, err := s.svc.Join(ctx, code, actor, request.GetString("name", actor.DisplayName))
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(sess), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	sess, err := s.svc.Get(ctx, code)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(sess), nil
}

func (s *Server) handleGetSettlement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	out, err := s.svc.Settlement(ctx, code)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(out), nil
}
