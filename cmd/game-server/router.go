package main

import (
	"lane-games/internal/app/session"
	"lane-games/internal/config"
	"lane-games/internal/identity"
	httptransport "lane-games/internal/transport/http"

	"github.com/go-chi/chi/v5"
)

func newRouter(svc *session.Service, cfg config.ServerConfig, roles *identity.Roles) *chi.Mux {
	return httptransport.NewRouter(svc, cfg, roles)
}

func logRoutes(r chi.Router) {
	httptransport.LogRoutes(r)
}
