package room

import (
	"encoding/json"
	"time"

	"bida-server/internal/game"
	"bida-server/internal/store"
)

// Snapshot is the full post-operation view of a room, returned to the
// caller and broadcast (sanitized) to subscribers.
type Snapshot struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Type           store.RoomType `json:"type"`
	PIN            string         `json:"pin,omitempty"`
	Finished       bool           `json:"finished"`
	ValBall3       int            `json:"val_ball3"`
	ValBall6       int            `json:"val_ball6"`
	ValBall9       int            `json:"val_ball9"`
	CardsPerPlayer int            `json:"cards_per_player"`
	DeckSize       int            `json:"deck_size"`
	Players        []PlayerView   `json:"players"`
	History        []HistoryView  `json:"history"`
	IsViewer       bool           `json:"is_viewer"`
	ReadOnly       bool           `json:"read_only"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ForBroadcast strips the PIN for fan-out to unauthenticated subscribers.
func (sn Snapshot) ForBroadcast() Snapshot {
	out := sn
	out.PIN = ""
	out.IsViewer = true
	out.ReadOnly = true
	return out
}

type PlayerView struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Score   int         `json:"score"`
	Claimed bool        `json:"claimed"`
	Hand    []game.Card `json:"hand,omitempty"`
}

type HistoryView struct {
	ID        int64           `json:"id"`
	Content   string          `json:"content"`
	RawLog    json.RawMessage `json:"raw_log"`
	CreatedAt time.Time       `json:"created_at"`
}

type RoomListItem struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Type      store.RoomType `json:"type"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type CreateRoomParams struct {
	Name           string
	PIN            string
	Type           store.RoomType
	PlayerNames    []string
	ValBall3       *int
	ValBall6       *int
	ValBall9       *int
	CardsPerPlayer int
}

type ScoreParams struct {
	PIN string

	// POINT_TARGET
	CurrentPlayerID int64
	LoserIDs        []int64
	Events          []game.BallEvent

	// ONE_VS_ONE
	WinnerID int64
}

func buildSnapshot(r *store.Room, players []store.Player, history []store.HistoryEntry) *Snapshot {
	pvs := make([]PlayerView, 0, len(players))
	for _, p := range players {
		pvs = append(pvs, PlayerView{
			ID:      p.ID,
			Name:    p.Name,
			Score:   p.Score,
			Claimed: p.Claimed(),
			Hand:    p.Hand,
		})
	}
	hvs := make([]HistoryView, 0, len(history))
	for _, h := range history {
		hvs = append(hvs, HistoryView{
			ID:        h.ID,
			Content:   h.Content,
			RawLog:    json.RawMessage(h.RawLog),
			CreatedAt: h.CreatedAt,
		})
	}
	return &Snapshot{
		ID:             r.ID,
		Name:           r.Name,
		Type:           r.Type,
		PIN:            r.PIN,
		Finished:       r.Finished,
		ValBall3:       r.ValBall3,
		ValBall6:       r.ValBall6,
		ValBall9:       r.ValBall9,
		CardsPerPlayer: r.CardsPerPlayer,
		DeckSize:       len(r.Deck),
		Players:        pvs,
		History:        hvs,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
