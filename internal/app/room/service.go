package room

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"bida-server/internal/game"
	"bida-server/internal/identity"
	"bida-server/internal/store"
)

// Broadcast event names, one per terminal outcome.
const (
	EventRoomUpdated  = "room_updated"
	EventRoomFinished = "room_finished"
)

// Broadcaster pushes a payload to every subscriber of a room channel.
// Delivery is fire-and-forget and happens outside the mutation transaction.
type Broadcaster interface {
	Publish(roomID int64, event string, payload any)
}

// Service is the authorization and orchestration point for every
// state-changing room operation. All collaborators are injected; nothing
// here reaches for ambient state.
type Service struct {
	st  *store.Store
	hub Broadcaster
}

func NewService(st *store.Store, hub Broadcaster) *Service {
	return &Service{st: st, hub: hub}
}

// beginMutation opens the room transaction and applies the checks shared by
// every mutating operation: the room must exist and must not be finished.
// The finished check runs before anything else, PIN included.
func (s *Service) beginMutation(ctx context.Context, roomID int64) (*store.RoomTx, error) {
	tx, err := s.st.BeginRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if tx.Room().Finished {
		tx.Rollback(ctx)
		return nil, ErrRoomFinished
	}
	return tx, nil
}

// beginAuthorized additionally enforces the PIN contract.
func (s *Service) beginAuthorized(ctx context.Context, roomID int64, pin string) (*store.RoomTx, error) {
	tx, err := s.beginMutation(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if tx.Room().PIN != pin {
		tx.Rollback(ctx)
		return nil, ErrInvalidPIN
	}
	return tx, nil
}

// snapshotTx reads the post-mutation view from inside the same transaction,
// so a concurrent mutation can never leak into the response.
func (s *Service) snapshotTx(ctx context.Context, tx *store.RoomTx) (*Snapshot, error) {
	players, err := tx.Players(ctx)
	if err != nil {
		return nil, err
	}
	history, err := tx.History(ctx)
	if err != nil {
		return nil, err
	}
	return buildSnapshot(tx.Room(), players, history), nil
}

func (s *Service) publish(roomID int64, event string, snap *Snapshot) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(roomID, event, snap.ForBroadcast())
}

// CreateRoom validates the configuration, creates the room with its player
// slots, and for the card variant shuffles the initial deck.
func (s *Service) CreateRoom(ctx context.Context, p CreateRoomParams) (*Snapshot, error) {
	names := make([]string, 0, len(p.PlayerNames))
	for _, n := range p.PlayerNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	switch {
	case p.Name == "" || p.PIN == "":
		return nil, ErrInvalidRequest
	case !p.Type.Valid():
		return nil, ErrInvalidRequest
	case len(names) < 2:
		return nil, ErrInvalidRequest
	case p.Type == store.RoomOneVsOne && len(names) != 2:
		return nil, ErrInvalidRequest
	}

	r := store.Room{
		Name: p.Name,
		PIN:  p.PIN,
		Type: p.Type,
	}
	if p.Type == store.RoomPointTarget {
		r.ValBall3 = coeffOrDefault(p.ValBall3, 1)
		r.ValBall6 = coeffOrDefault(p.ValBall6, 2)
		r.ValBall9 = coeffOrDefault(p.ValBall9, 3)
	}
	if p.Type == store.RoomCardDraw {
		if p.CardsPerPlayer < 1 || p.CardsPerPlayer*len(names) > game.DeckSize {
			return nil, ErrInvalidRequest
		}
		r.CardsPerPlayer = p.CardsPerPlayer
		r.Deck = game.NewShuffledDeck()
	}

	roomID, err := s.st.CreateRoom(ctx, r, names)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("room_id", roomID).Str("type", string(p.Type)).Msg("room created")
	return s.detailAuthorized(ctx, roomID)
}

// ListRooms returns the open-room listing for the lobby. PINs never appear.
func (s *Service) ListRooms(ctx context.Context) ([]RoomListItem, error) {
	items, err := s.st.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoomListItem, 0, len(items))
	for _, it := range items {
		out = append(out, RoomListItem{
			ID:        it.ID,
			Name:      it.Name,
			Type:      it.Type,
			UpdatedAt: it.UpdatedAt,
		})
	}
	return out, nil
}

// RoomDetail is the read-only fetch. Three-way branch: finished rooms and
// PIN-less requests get a view-mode snapshot with the PIN stripped; a
// matching PIN gets the full record; a wrong PIN is rejected.
func (s *Service) RoomDetail(ctx context.Context, roomID int64, pin string) (*Snapshot, error) {
	snap, r, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if r.Finished || pin == "" {
		snap.PIN = ""
		snap.IsViewer = true
		snap.ReadOnly = true
		return snap, nil
	}
	if r.PIN != pin {
		return nil, ErrInvalidPIN
	}
	return snap, nil
}

func (s *Service) detailAuthorized(ctx context.Context, roomID int64) (*Snapshot, error) {
	snap, _, err := s.load(ctx, roomID)
	return snap, err
}

func (s *Service) load(ctx context.Context, roomID int64) (*Snapshot, *store.Room, error) {
	r, err := s.st.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, err
	}
	players, err := s.st.GetRoomPlayers(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.st.GetRoomHistory(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	return buildSnapshot(r, players, history), r, nil
}

// ClaimPlayer attaches the calling identity to an unclaimed slot. One
// identity holds at most one slot per room, and a claimed slot stays
// claimed for the session.
func (s *Service) ClaimPlayer(ctx context.Context, roomID, playerID int64, ident identity.Identity, username string) (*Snapshot, error) {
	if ident.IsAnonymous() {
		return nil, ErrInvalidRequest
	}
	tx, err := s.beginMutation(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	players, err := tx.Players(ctx)
	if err != nil {
		return nil, err
	}
	var target *store.Player
	for i := range players {
		p := &players[i]
		if p.ID == playerID {
			target = p
			continue
		}
		if ident.Matches(p.UserID, p.GuestToken) {
			return nil, ErrIdentityHasSlot
		}
	}
	if target == nil {
		return nil, ErrPlayerNotInRoom
	}
	if target.Claimed() {
		if ident.Matches(target.UserID, target.GuestToken) {
			return nil, ErrIdentityHasSlot
		}
		return nil, ErrSlotTaken
	}

	var userID, guestToken *string
	if id, ok := ident.UserID(); ok {
		userID = &id
	}
	if tok, ok := ident.GuestToken(); ok {
		guestToken = &tok
	}
	if err := tx.ClaimPlayer(ctx, playerID, strings.TrimSpace(username), userID, guestToken); err != nil {
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
	snap.PIN = ""
	s.publish(roomID, EventRoomUpdated, snap)
	return snap, nil
}

func coeffOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
