package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"bida-server/internal/game"
)

// RoomTx is a single transaction over one room. BeginRoom locks the room row
// for the duration, so mutations on the same room serialize; different rooms
// proceed independently. Either every write in the transaction lands on
// Commit or none do.
type RoomTx struct {
	tx   pgx.Tx
	room *Room
}

// BeginRoom opens a transaction and loads the room under a row lock. A
// waiter blocked on the lock resumes against the committed row, so two
// mutations on one room never read the same pre-mutation state. Returns
// ErrNotFound (with the tx rolled back) for unknown rooms.
func (s *Store) BeginRoom(ctx context.Context, roomID int64) (*RoomTx, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1 FOR UPDATE`, roomID)
	room, err := scanRoom(row)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	return &RoomTx{tx: tx, room: room}, nil
}

// Room returns the locked row as loaded, updated in place by the setters
// below.
func (t *RoomTx) Room() *Room { return t.room }

func (t *RoomTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *RoomTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (t *RoomTx) Players(ctx context.Context) ([]Player, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+playerCols+` FROM players WHERE room_id = $1 ORDER BY id ASC`, t.room.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlayers(rows)
}

func (t *RoomTx) GetPlayer(ctx context.Context, playerID int64) (*Player, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+playerCols+` FROM players WHERE id = $1 AND room_id = $2`, playerID, t.room.ID)
	var p Player
	var hand []byte
	err := row.Scan(&p.ID, &p.RoomID, &p.Name, &p.Score, &hand, &p.UserID, &p.GuestToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(hand, &p.Hand); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddScore applies one signed score delta to a player of this room.
func (t *RoomTx) AddScore(ctx context.Context, playerID int64, delta int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE players SET score = score + $1 WHERE id = $2 AND room_id = $3`,
		delta, playerID, t.room.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *RoomTx) SetHand(ctx context.Context, playerID int64, hand []game.Card) error {
	b, err := handParam(hand)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE players SET hand = $1 WHERE id = $2 AND room_id = $3`, b, playerID, t.room.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimPlayer attaches an owning identity to a slot. Exactly one of userID
// and guestToken must be non-nil; the other column is cleared so a slot
// never carries both.
func (t *RoomTx) ClaimPlayer(ctx context.Context, playerID int64, name string, userID, guestToken *string) error {
	var err error
	if name != "" {
		_, err = t.tx.Exec(ctx,
			`UPDATE players SET name = $1, user_id = $2, guest_token = $3 WHERE id = $4 AND room_id = $5`,
			name, userID, guestToken, playerID, t.room.ID)
	} else {
		_, err = t.tx.Exec(ctx,
			`UPDATE players SET user_id = $1, guest_token = $2 WHERE id = $3 AND room_id = $4`,
			userID, guestToken, playerID, t.room.ID)
	}
	return err
}

// ResetPlayers zeroes every score and empties every hand in the room.
func (t *RoomTx) ResetPlayers(ctx context.Context) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE players SET score = 0, hand = '[]' WHERE room_id = $1`, t.room.ID)
	return err
}

func (t *RoomTx) SetDeck(ctx context.Context, deck game.Deck) error {
	b, err := deckParam(deck)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `UPDATE rooms SET deck = $1 WHERE id = $2`, b, t.room.ID)
	if err != nil {
		return err
	}
	t.room.Deck = deck
	return nil
}

// SetFinished flips the terminal flag; there is no way back.
func (t *RoomTx) SetFinished(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `UPDATE rooms SET finished = TRUE WHERE id = $1`, t.room.ID)
	if err != nil {
		return err
	}
	t.room.Finished = true
	return nil
}

// Touch bumps updated_at so listings order by recent activity.
func (t *RoomTx) Touch(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `UPDATE rooms SET updated_at = now() WHERE id = $1`, t.room.ID)
	return err
}

// InsertHistory appends an entry and trims the room's log back to
// HistoryCap, all inside this transaction.
func (t *RoomTx) InsertHistory(ctx context.Context, content string, rawLog []byte) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO history (room_id, content, raw_log) VALUES ($1,$2,$3) RETURNING id`,
		t.room.ID, content, rawLog).Scan(&id)
	if err != nil {
		return 0, err
	}
	_, err = t.tx.Exec(ctx,
		`DELETE FROM history WHERE room_id = $1 AND id NOT IN (
			SELECT id FROM history WHERE room_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2
		)`, t.room.ID, HistoryCap)
	return id, err
}

func (t *RoomTx) GetHistory(ctx context.Context, historyID int64) (*HistoryEntry, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT id, room_id, content, raw_log, created_at FROM history WHERE id = $1 AND room_id = $2`,
		historyID, t.room.ID)
	var h HistoryEntry
	if err := row.Scan(&h.ID, &h.RoomID, &h.Content, &h.RawLog, &h.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (t *RoomTx) DeleteHistory(ctx context.Context, historyID int64) error {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM history WHERE id = $1 AND room_id = $2`, historyID, t.room.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *RoomTx) History(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, room_id, content, raw_log, created_at FROM history
		 WHERE room_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, t.room.ID, HistoryCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}
