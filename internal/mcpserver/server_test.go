package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"

	"lane-games/internal/app/session"
	"lane-games/internal/identity"
	"lane-games/internal/store"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestMCP(t *testing.T) string {
	t.Helper()
	st := store.NewMemory()
	t.Cleanup(st.Close)
	srv := New(session.NewService(st), identity.NewRoles([]string{"ops"}, nil))
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return httpSrv.URL + "/mcp"
}

func TestMCPServerToolsAndMatchPlayFlow(t *testing.T) {
	endpoint := newTestMCP(t)
	hostClient := newMCPClient(t, endpoint, "host", "Hank")
	guestClient := newMCPClient(t, endpoint, "guest", "Gina")

	tools := mustListTools(t, hostClient)
	assertToolNames(t, tools,
		"list_modes",
		"create_session",
		"join_session",
		"get_session",
		"get_settlement",
		"submit_command",
	)

	modes := mapFromStructured(t, mustCallTool(t, hostClient, "list_modes", map[string]any{}))
	if items, _ := modes["items"].([]any); len(items) != 5 {
		t.Fatalf("expected 5 modes, got %v", modes)
	}

	created := mustCallTool(t, hostClient, "create_session", map[string]any{
		"mode":           "match_play",
		"per_game_stake": "$2.50",
		"totals_stake":   "10",
	})
	if created.IsError {
		t.Fatalf("create_session error: %v", created.StructuredContent)
	}
	sess := mapFromStructured(t, created)
	code := asString(sess["code"])
	if len(code) != session.CodeLength {
		t.Fatalf("unexpected code %q", code)
	}
	cfg, _ := sess["config"].(map[string]any)
	if asFloat64(cfg["per_game_stake_cents"]) != 250 || asFloat64(cfg["totals_stake_cents"]) != 1000 {
		t.Fatalf("stakes not parsed: %v", cfg)
	}

	joined := mustCallTool(t, guestClient, "join_session", map[string]any{"code": code})
	if joined.IsError {
		t.Fatalf("join_session error: %v", joined.StructuredContent)
	}
	players, _ := mapFromStructured(t, joined)["players"].([]any)
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %v", players)
	}

	assertToolErrorCode(t, mustCallTool(t, guestClient, "submit_command", map[string]any{
		"code":    code,
		"command": map[string]any{"type": "start"},
	}), "unauthorized")

	assertToolErrorCode(t, mustCallTool(t, hostClient, "submit_command", map[string]any{
		"code":             code,
		"command":          map[string]any{"type": "start"},
		"expected_version": 1,
	}), "stale_version")

	started := mustCallTool(t, hostClient, "submit_command", map[string]any{
		"code":             code,
		"command":          map[string]any{"type": "start"},
		"expected_version": 2,
	})
	if started.IsError {
		t.Fatalf("start error: %v", started.StructuredContent)
	}

	hostID := playerIDAt(t, players, 0)
	guestID := playerIDAt(t, players, 1)
	for g := 1; g <= 3; g++ {
		if res := mustCallTool(t, hostClient, "submit_command", map[string]any{
			"code":    code,
			"command": map[string]any{"type": "set_score", "player_id": hostID, "game": g, "score": 200},
		}); res.IsError {
			t.Fatalf("host score game %d: %v", g, res.StructuredContent)
		}
		if res := mustCallTool(t, guestClient, "submit_command", map[string]any{
			"code":    code,
			"command": map[string]any{"type": "set_score", "player_id": guestID, "game": g, "score": 150},
		}); res.IsError {
			t.Fatalf("guest score game %d: %v", g, res.StructuredContent)
		}
	}

	assertToolErrorCode(t, mustCallTool(t, guestClient, "submit_command", map[string]any{
		"code":    code,
		"command": map[string]any{"type": "set_score", "player_id": hostID, "game": 1, "score": 0},
	}), "unauthorized")

	settlement := mapFromStructured(t, mustCallTool(t, guestClient, "get_settlement", map[string]any{"code": code}))
	payments, _ := settlement["payments"].([]any)
	if len(payments) != 1 {
		t.Fatalf("expected one payment, got %v", settlement)
	}
	p, _ := payments[0].(map[string]any)
	// Host sweeps three games at $2.50 and the totals at $10.
	if asFloat64(p["amount_cents"]) != 1750 {
		t.Fatalf("unexpected payment %v", p)
	}

	got := mapFromStructured(t, mustCallTool(t, guestClient, "get_session", map[string]any{"code": code}))
	if asString(got["status"]) != "complete" {
		t.Fatalf("expected complete session, got %v", got["status"])
	}
}

func TestMCPToolErrors(t *testing.T) {
	endpoint := newTestMCP(t)
	anon := newMCPClient(t, endpoint, "", "")
	c := newMCPClient(t, endpoint, "host", "Hank")

	assertToolErrorCode(t, mustCallTool(t, anon, "create_session", map[string]any{"mode": "bracket"}), "identity_required")
	assertToolErrorCode(t, mustCallTool(t, c, "create_session", map[string]any{"mode": "bracket", "entry_fee": "1.005"}), "invalid_input")
	assertToolErrorCode(t, mustCallTool(t, c, "get_session", map[string]any{"code": "NOPE00"}), "session_not_found")
	assertToolErrorCode(t, mustCallTool(t, c, "submit_command", map[string]any{"code": "ABC123"}), "invalid_request")
}

func newMCPClient(t *testing.T, endpoint, uid, name string) *client.Client {
	t.Helper()
	ctx := context.Background()
	headers := map[string]string{}
	if uid != "" {
		headers[identity.HeaderUserID] = uid
		headers[identity.HeaderUserName] = name
	}
	trans, err := transport.NewStreamableHTTP(endpoint, transport.WithHTTPHeaders(headers))
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if err := trans.Start(ctx); err != nil {
		t.Fatalf("transport start: %v", err)
	}
	c := client.NewClient(trans)
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { _ = trans.Close() })
	return c
}

func mustListTools(t *testing.T, c *client.Client) []mcp.Tool {
	t.Helper()
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	return res.Tools
}

func assertToolNames(t *testing.T, tools []mcp.Tool, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(tools))
	for _, tool := range tools {
		got = append(got, tool.Name)
	}
	sort.Strings(got)
	sort.Strings(expected)
	if len(got) != len(expected) {
		t.Fatalf("tool count mismatch got=%v expected=%v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("tool list mismatch got=%v expected=%v", got, expected)
		}
	}
}

func mustCallTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func assertToolErrorCode(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected tool error %q, got success: %v", want, res.StructuredContent)
	}
	payload := mapFromStructured(t, res)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("error payload missing 'error': %v", payload)
	}
	if got := asString(errObj["code"]); got != want {
		t.Fatalf("error code=%q want=%q payload=%v", got, want, payload)
	}
}

func playerIDAt(t *testing.T, players []any, i int) int64 {
	t.Helper()
	p, ok := players[i].(map[string]any)
	if !ok {
		t.Fatalf("player %d malformed: %v", i, players[i])
	}
	return int64(asFloat64(p["id"]))
}

func mapFromStructured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat64(v any) float64 {
	f, _ := v.(float64)
	return f
}
