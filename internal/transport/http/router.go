package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lane-games/internal/app/session"
	"lane-games/internal/config"
	"lane-games/internal/identity"
	"lane-games/internal/mcpserver"
	"lane-games/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(svc *session.Service, cfg config.ServerConfig, roles *identity.Roles) *chi.Mux {
	sessionHandlers := NewSessionHandlers(svc, cfg.PublicBaseURL)
	adminHandlers := NewAdminHandlers(svc)
	mcpSrv := mcpserver.New(svc, roles)
	wsSrv := ws.NewServer(svc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(IdentityMiddleware(roles))
		r.Use(APILogMiddleware())

		r.Post("/sessions", sessionHandlers.Create())
		r.Post("/join", sessionHandlers.Join())
		r.Route("/sessions/{code}", func(r chi.Router) {
			r.Get("/", sessionHandlers.Get())
			r.Post("/join", sessionHandlers.Join())
			r.Post("/commands", sessionHandlers.Command())
			r.Get("/settlement", sessionHandlers.Settlement())
			r.Get("/events", sessionHandlers.Events())
			r.Get("/ws", wsSrv.HandleWS)
			r.Get("/invite", sessionHandlers.Invite())
			r.Get("/invite.png", sessionHandlers.InviteQR())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Delete("/sessions/{code}", adminHandlers.DeleteSession())
			r.Post("/grants", adminHandlers.IssueGrant())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})

	staticDir := filepath.Join("web", "static")
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	} else {
		log.Debug().Str("path", staticDir).Msg("static directory not found; skipping catch-all static route")
	}
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
