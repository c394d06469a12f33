package room

import (
	"context"
	"errors"
	"sort"

	"bida-server/internal/game"
	"bida-server/internal/store"
)

// ApplyScore dispatches a scoring submission by room mode, applies the
// deltas and the history entry in one transaction, and broadcasts the
// fresh snapshot.
func (s *Service) ApplyScore(ctx context.Context, roomID int64, p ScoreParams) (*Snapshot, error) {
	tx, err := s.beginAuthorized(ctx, roomID, p.PIN)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	players, err := tx.Players(ctx)
	if err != nil {
		return nil, err
	}
	byID := map[int64]bool{}
	for _, pl := range players {
		byID[pl.ID] = true
	}

	var content string
	var rev game.Reversal

	switch tx.Room().Type {
	case store.RoomPointTarget:
		if p.CurrentPlayerID == 0 || len(p.LoserIDs) == 0 {
			return nil, ErrInvalidRequest
		}
		if !byID[p.CurrentPlayerID] {
			return nil, ErrPlayerNotFound
		}
		for _, id := range p.LoserIDs {
			if !byID[id] || id == p.CurrentPlayerID {
				return nil, ErrPlayerNotFound
			}
		}
		perLoser, total, ok := game.PointTargetScore(tx.Room().Coefficients(), p.Events, len(p.LoserIDs))
		if !ok {
			return nil, ErrInvalidRequest
		}
		if err := tx.AddScore(ctx, p.CurrentPlayerID, total); err != nil {
			return nil, err
		}
		for _, id := range p.LoserIDs {
			if err := tx.AddScore(ctx, id, -perLoser); err != nil {
				return nil, err
			}
		}
		content = "Balls pocketed"
		rev = game.PointTargetDelta{
			CurrentPlayerID: p.CurrentPlayerID,
			LoserIDs:        p.LoserIDs,
			PointsPerLoser:  perLoser,
			TotalEarned:     total,
			Events:          p.Events,
		}

	case store.RoomOneVsOne:
		if p.WinnerID == 0 {
			return nil, ErrInvalidRequest
		}
		if !byID[p.WinnerID] {
			return nil, ErrPlayerNotFound
		}
		if err := tx.AddScore(ctx, p.WinnerID, 1); err != nil {
			return nil, err
		}
		content = "Game won"
		rev = game.OneVsOneDelta{WinnerID: p.WinnerID}

	default:
		return nil, ErrInvalidRequest
	}

	rawLog, err := game.MarshalReversal(rev)
	if err != nil {
		return nil, err
	}
	if _, err := tx.InsertHistory(ctx, content, rawLog); err != nil {
		return nil, err
	}
	if err := tx.Touch(ctx); err != nil {
		return nil, err
	}
	snap, err := s.snapshotTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.publish(roomID, EventRoomUpdated, snap)
	return snap, nil
}

// UndoScore inverts exactly one history entry's recorded deltas and removes
// the entry. Nothing is recomputed: the entry carries everything its
// inverse needs, so later coefficient changes cannot corrupt an undo.
func (s *Service) UndoScore(ctx context.Context, roomID, historyID int64, pin string) (*Snapshot, error) {
	tx, err := s.beginAuthorized(ctx, roomID, pin)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := tx.GetHistory(ctx, historyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}
	rev, err := game.UnmarshalReversal(entry.RawLog)
	if err != nil {
		return nil, ErrNotUndoable
	}
	inv, ok := rev.(game.Invertible)
	if !ok {
		return nil, ErrNotUndoable
	}
	for _, d := range inv.Inverse() {
		if err := tx.AddScore(ctx, d.PlayerID, d.Delta); err != nil {
			return nil, err
		}
	}
	if err := tx.DeleteHistory(ctx, historyID); err != nil {
		return nil, err
	}
	if err := tx.Touch(ctx); err != nil {
		return nil, err
	}
	snap, err := s.snapshotTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.publish(roomID, EventRoomUpdated, snap)
	return snap, nil
}

// FinishRoom flips the terminal flag and returns the final standings,
// highest score first. The room is permanently read-only afterwards.
func (s *Service) FinishRoom(ctx context.Context, roomID int64, pin string) (*Snapshot, error) {
	tx, err := s.beginAuthorized(ctx, roomID, pin)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := tx.SetFinished(ctx); err != nil {
		return nil, err
	}
	if err := tx.Touch(ctx); err != nil {
		return nil, err
	}
	snap, err := s.snapshotTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	sort.SliceStable(snap.Players, func(i, j int) bool {
		return snap.Players[i].Score > snap.Players[j].Score
	})
	s.publish(roomID, EventRoomFinished, snap)
	return snap, nil
}
