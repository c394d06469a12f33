package store

import (
	"time"

	"bida-server/internal/game"
)

type RoomType string

const (
	RoomPointTarget RoomType = "POINT_TARGET"
	RoomOneVsOne    RoomType = "ONE_VS_ONE"
	RoomCardDraw    RoomType = "CARD_DRAW"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomPointTarget, RoomOneVsOne, RoomCardDraw:
		return true
	}
	return false
}

type Room struct {
	ID             int64
	Name           string
	Type           RoomType
	PIN            string
	Finished       bool
	ValBall3       int
	ValBall6       int
	ValBall9       int
	CardsPerPlayer int
	Deck           game.Deck // nil outside CARD_DRAW rooms
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *Room) Coefficients() game.Coefficients {
	return game.Coefficients{Ball3: r.ValBall3, Ball6: r.ValBall6, Ball9: r.ValBall9}
}

type Player struct {
	ID         int64
	RoomID     int64
	Name       string
	Score      int
	Hand       []game.Card
	UserID     *string
	GuestToken *string
}

func (p *Player) Claimed() bool {
	return p.UserID != nil || p.GuestToken != nil
}

type HistoryEntry struct {
	ID        int64
	RoomID    int64
	Content   string
	RawLog    []byte
	CreatedAt time.Time
}

type RoomListItem struct {
	ID        int64
	Name      string
	Type      RoomType
	UpdatedAt time.Time
}
