package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bida-server/internal/app/room"
	"bida-server/internal/game"
	"bida-server/internal/identity"
	"bida-server/internal/store"

	"github.com/go-chi/chi/v5"
)

func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

// guestTokenHandler mints an opaque token a browser keeps for the session.
// No storage: the token only means anything once a slot is claimed with it.
func guestTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"guest_token": identity.NewGuestToken()})
	}
}

func listRoomsHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListRooms(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"items": items})
	}
}

func createRoomHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name           string   `json:"name"`
			PIN            string   `json:"pin"`
			Type           string   `json:"type"`
			PlayerNames    []string `json:"player_names"`
			ValBall3       *int     `json:"val_ball3"`
			ValBall6       *int     `json:"val_ball6"`
			ValBall9       *int     `json:"val_ball9"`
			CardsPerPlayer int      `json:"cards_per_player"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := svc.CreateRoom(r.Context(), room.CreateRoomParams{
			Name:           body.Name,
			PIN:            body.PIN,
			Type:           store.RoomType(body.Type),
			PlayerNames:    body.PlayerNames,
			ValBall3:       body.ValBall3,
			ValBall6:       body.ValBall6,
			ValBall9:       body.ValBall9,
			CardsPerPlayer: body.CardsPerPlayer,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func roomDetailHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		snap, err := svc.RoomDetail(r.Context(), roomID, r.URL.Query().Get("pin"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func scoreHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		var body struct {
			PIN             string           `json:"pin"`
			CurrentPlayerID int64            `json:"current_player_id"`
			LoserIDs        []int64          `json:"loser_ids"`
			Events          []game.BallEvent `json:"events"`
			WinnerID        int64            `json:"winner_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := svc.ApplyScore(r.Context(), roomID, room.ScoreParams{
			PIN:             body.PIN,
			CurrentPlayerID: body.CurrentPlayerID,
			LoserIDs:        body.LoserIDs,
			Events:          body.Events,
			WinnerID:        body.WinnerID,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func undoHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		var body struct {
			PIN       string `json:"pin"`
			HistoryID int64  `json:"history_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := svc.UndoScore(r.Context(), roomID, body.HistoryID, body.PIN)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func finishHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		pin, ok := pinBody(w, r)
		if !ok {
			return
		}
		snap, err := svc.FinishRoom(r.Context(), roomID, pin)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func startHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		pin, ok := pinBody(w, r)
		if !ok {
			return
		}
		snap, err := svc.StartGame(r.Context(), roomID, pin)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func resetHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		pin, ok := pinBody(w, r)
		if !ok {
			return
		}
		snap, err := svc.ResetGame(r.Context(), roomID, pin, callerIdentity(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func claimHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		playerID, ok := pathID(w, r, "player_id")
		if !ok {
			return
		}
		var body struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := svc.ClaimPlayer(r.Context(), roomID, playerID, callerIdentity(r), body.Username)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func drawHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		playerID, ok := pathID(w, r, "player_id")
		if !ok {
			return
		}
		snap, err := svc.DrawCard(r.Context(), roomID, playerID, callerIdentity(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func discardHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := pathID(w, r, "room_id")
		if !ok {
			return
		}
		playerID, ok := pathID(w, r, "player_id")
		if !ok {
			return
		}
		var body struct {
			Rank int `json:"rank"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := svc.DiscardCard(r.Context(), roomID, playerID, callerIdentity(r), body.Rank)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		writeHTTPError(w, http.StatusBadRequest, "invalid_request")
		return 0, false
	}
	return id, true
}

func pinBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeHTTPError(w, http.StatusBadRequest, "invalid_json")
		return "", false
	}
	return body.PIN, true
}
