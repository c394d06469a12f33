package main

import (
	"context"
	"net/http"
	"time"

	"bida-server/internal/app/room"
	"bida-server/internal/config"
	"bida-server/internal/identity"
	"bida-server/internal/logging"
	"bida-server/internal/store"
	"bida-server/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(app.Log)
	cfg := app.Server

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	verifier := newVerifier(cfg)
	hub := ws.NewHub()
	svc := room.NewService(st, hub)
	r := newRouter(st, svc, hub, verifier)
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

// newVerifier builds the user-token gate from configured key material.
// Without a secret, Bearer tokens are simply never valid; guest tokens
// still work.
func newVerifier(cfg config.ServerConfig) *identity.Verifier {
	keys := map[string][]byte{}
	if cfg.TokenSecret != "" {
		keys[cfg.TokenKeyID] = []byte(cfg.TokenSecret)
	}
	return identity.NewVerifier(keys)
}
