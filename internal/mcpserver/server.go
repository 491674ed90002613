package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"lane-games/internal/app/session"
	"lane-games/internal/identity"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	svc   *session.Service
	roles *identity.Roles

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(svc *session.Service, roles *identity.Roles) *Server {
	mcpSrv := server.NewMCPServer(
		"lane-games",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		svc:       svc,
		roles:     roles,
		mcpServer: mcpSrv,
	}
	s.httpServer = server.NewStreamableHTTPServer(mcpSrv,
		server.WithStateLess(true),
		server.WithDisableStreaming(true),
		server.WithHTTPContextFunc(s.attachIdentity),
	)
	s.registerSessionTools()
	s.registerPlayTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

// attachIdentity carries the caller into tool handlers. An identity already
// on the request (admin routes) wins over the proxy headers.
func (s *Server) attachIdentity(ctx context.Context, r *http.Request) context.Context {
	if id, ok := identity.FromContext(r.Context()); ok && id.Known() {
		return identity.WithIdentity(ctx, id)
	}
	return identity.WithIdentity(ctx, s.roles.FromHeaders(r.Header))
}

func actorFrom(ctx context.Context) identity.Identity {
	id, _ := identity.FromContext(ctx)
	return id
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"session://{code}",
			"session_snapshot",
			mcp.WithTemplateDescription("Current snapshot of a game session by code"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			code := strings.TrimPrefix(raw, "session://")
			if code == raw || code == "" {
				return nil, session.ErrSessionNotFound
			}
			sess, err := s.svc.Get(ctx, code)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(sess)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
