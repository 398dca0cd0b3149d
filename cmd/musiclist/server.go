package main

import (
	"net/http"

	"musiclist/internal/app/favorites"
	"musiclist/internal/app/feed"
	"musiclist/internal/app/lists"
	"musiclist/internal/app/songs"
	"musiclist/internal/app/users"
	"musiclist/internal/auth"
	"musiclist/internal/config"
	"musiclist/internal/httpapi"
)

type app struct {
	services httpapi.Services
	routes   http.Handler
}

func newServices(cfg *config.Config, st backend) httpapi.Services {
	return httpapi.Services{
		Users:     users.New(st, auth.NewBcryptHasher(cfg.Security.BcryptCost)),
		Songs:     songs.New(st),
		Lists:     lists.New(st),
		Feed:      feed.New(st),
		Favorites: favorites.New(st),
	}
}

func newHTTPHandler(cfg *config.Config, st backend) app {
	svc := newServices(cfg, st)
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	srv := httpapi.New(svc, tokens, httpapi.Config{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		PageSize:       cfg.PageSize,
		Health:         st.Ping,
	})
	return app{services: svc, routes: srv.Routes()}
}
