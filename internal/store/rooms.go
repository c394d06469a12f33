package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"bida-server/internal/game"
)

// HistoryCap bounds the rolling history log per room.
const HistoryCap = 50

const roomCols = `id, name, type, pin, finished, val_ball3, val_ball6, val_ball9, cards_per_player, deck, created_at, updated_at`

const playerCols = `id, room_id, name, score, hand, user_id, guest_token`

// CreateRoom inserts a room and its player slots in one transaction and
// returns the new room id.
func (s *Store) CreateRoom(ctx context.Context, r Room, playerNames []string) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	deck, err := deckParam(r.Deck)
	if err != nil {
		return 0, err
	}
	var roomID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO rooms (name, type, pin, val_ball3, val_ball6, val_ball9, cards_per_player, deck)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		r.Name, r.Type, r.PIN, r.ValBall3, r.ValBall6, r.ValBall9, r.CardsPerPlayer, deck,
	).Scan(&roomID)
	if err != nil {
		return 0, err
	}
	for _, name := range playerNames {
		if _, err := tx.Exec(ctx,
			`INSERT INTO players (room_id, name) VALUES ($1,$2)`, roomID, name); err != nil {
			return 0, err
		}
	}
	return roomID, tx.Commit(ctx)
}

// ListRooms returns unfinished rooms, most recently updated first. PINs are
// never part of the listing.
func (s *Store) ListRooms(ctx context.Context) ([]RoomListItem, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, type, updated_at FROM rooms WHERE NOT finished ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RoomListItem{}
	for rows.Next() {
		var it RoomListItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Type, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) GetRoom(ctx context.Context, roomID int64) (*Room, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1`, roomID)
	return scanRoom(row)
}

// GetRoomPlayers returns the room's players in slot (id) order.
func (s *Store) GetRoomPlayers(ctx context.Context, roomID int64) ([]Player, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+playerCols+` FROM players WHERE room_id = $1 ORDER BY id ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlayers(rows)
}

// GetRoomHistory returns the newest entries first, capped at HistoryCap.
func (s *Store) GetRoomHistory(ctx context.Context, roomID int64) ([]HistoryEntry, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, room_id, content, raw_log, created_at FROM history
		 WHERE room_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, roomID, HistoryCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	var deck []byte
	err := row.Scan(&r.ID, &r.Name, &r.Type, &r.PIN, &r.Finished,
		&r.ValBall3, &r.ValBall6, &r.ValBall9, &r.CardsPerPlayer, &deck,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if deck != nil {
		if err := json.Unmarshal(deck, &r.Deck); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func collectPlayers(rows pgx.Rows) ([]Player, error) {
	out := []Player{}
	for rows.Next() {
		var p Player
		var hand []byte
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Name, &p.Score, &hand, &p.UserID, &p.GuestToken); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(hand, &p.Hand); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func collectHistory(rows pgx.Rows) ([]HistoryEntry, error) {
	out := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.RoomID, &h.Content, &h.RawLog, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func deckParam(d game.Deck) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func handParam(hand []game.Card) ([]byte, error) {
	if hand == nil {
		hand = []game.Card{}
	}
	return json.Marshal(hand)
}
