package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"bida-server/internal/app/room"
	"bida-server/internal/identity"
	"bida-server/internal/store"
	"bida-server/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func newRouter(st *store.Store, svc *room.Service, hub *ws.Hub, verifier *identity.Verifier) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Use(bodyCaptureMiddleware())
		r.Use(identityMiddleware(verifier))

		r.Post("/guest-token", guestTokenHandler())

		r.Get("/rooms", listRoomsHandler(svc))
		r.Post("/rooms", createRoomHandler(svc))
		r.Get("/rooms/{room_id}", roomDetailHandler(svc))
		r.Post("/rooms/{room_id}/score", scoreHandler(svc))
		r.Post("/rooms/{room_id}/undo", undoHandler(svc))
		r.Post("/rooms/{room_id}/finish", finishHandler(svc))
		r.Post("/rooms/{room_id}/start", startHandler(svc))
		r.Post("/rooms/{room_id}/reset", resetHandler(svc))
		r.Post("/rooms/{room_id}/players/{player_id}/claim", claimHandler(svc))
		r.Post("/rooms/{room_id}/players/{player_id}/draw", drawHandler(svc))
		r.Post("/rooms/{room_id}/players/{player_id}/discard", discardHandler(svc))
	})

	r.Get("/ws", hub.HandleWS)
	return r
}

func logRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
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
