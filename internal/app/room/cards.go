package room

import (
	"context"
	"errors"
	"fmt"

	"bida-server/internal/game"
	"bida-server/internal/identity"
	"bida-server/internal/store"
)

// StartGame shuffles a fresh deck and deals cardsPerPlayer cards to every
// slot in id order. All slots must be claimed and the deal must fit in 52
// cards.
func (s *Service) StartGame(ctx context.Context, roomID int64, pin string) (*Snapshot, error) {
	tx, err := s.beginAuthorized(ctx, roomID, pin)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	r := tx.Room()
	if r.Type != store.RoomCardDraw {
		return nil, ErrInvalidRequest
	}
	players, err := tx.Players(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if !p.Claimed() {
			return nil, ErrInvalidRequest
		}
	}
	if r.CardsPerPlayer < 1 || r.CardsPerPlayer*len(players) > game.DeckSize {
		return nil, ErrInvalidRequest
	}

	deck := game.NewShuffledDeck()
	for _, p := range players {
		hand := make([]game.Card, 0, r.CardsPerPlayer)
		for i := 0; i < r.CardsPerPlayer; i++ {
			c, _ := deck.Draw()
			c.FaceUp = true
			hand = append(hand, c)
		}
		if err := tx.SetHand(ctx, p.ID, hand); err != nil {
			return nil, err
		}
	}
	if err := tx.SetDeck(ctx, deck); err != nil {
		return nil, err
	}
	rawLog, err := game.MarshalReversal(game.Start{
		CardsPerPlayer: r.CardsPerPlayer,
		PlayerCount:    len(players),
	})
	if err != nil {
		return nil, err
	}
	if _, err := tx.InsertHistory(ctx, "Game started", rawLog); err != nil {
		return nil, err
	}
	return s.finishMutation(ctx, tx, roomID, EventRoomUpdated)
}

// DrawCard pops the front card of the deck into the caller's own hand,
// face-up. Draws are high-frequency and deliberately leave no history.
func (s *Service) DrawCard(ctx context.Context, roomID, playerID int64, ident identity.Identity) (*Snapshot, error) {
	if ident.IsAnonymous() {
		return nil, ErrUnauthorized
	}
	tx, err := s.beginMutation(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	r := tx.Room()
	if r.Type != store.RoomCardDraw {
		return nil, ErrInvalidRequest
	}
	if len(r.Deck) == 0 {
		return nil, ErrOutOfCards
	}
	p, err := s.ownedPlayer(ctx, tx, playerID, ident)
	if err != nil {
		return nil, err
	}

	deck := r.Deck
	card, _ := deck.Draw()
	card.FaceUp = true
	if err := tx.SetHand(ctx, p.ID, append(p.Hand, card)); err != nil {
		return nil, err
	}
	if err := tx.SetDeck(ctx, deck); err != nil {
		return nil, err
	}
	snap, err := s.finishMutation(ctx, tx, roomID, EventRoomUpdated)
	if err != nil {
		return nil, err
	}
	snap.PIN = ""
	return snap, nil
}

// DiscardCard removes every card of the given rank from the caller's hand
// ("all balls of this value pocketed") and records an audit entry. The
// entry is not undoable.
func (s *Service) DiscardCard(ctx context.Context, roomID, playerID int64, ident identity.Identity, rank int) (*Snapshot, error) {
	if ident.IsAnonymous() {
		return nil, ErrUnauthorized
	}
	if rank < 1 || rank > 13 {
		return nil, ErrInvalidRequest
	}
	tx, err := s.beginMutation(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if tx.Room().Type != store.RoomCardDraw {
		return nil, ErrInvalidRequest
	}
	p, err := s.ownedPlayer(ctx, tx, playerID, ident)
	if err != nil {
		return nil, err
	}

	var kept, removed []game.Card
	for _, c := range p.Hand {
		if c.Rank == rank {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	if len(removed) == 0 {
		return nil, ErrInvalidRequest
	}
	if err := tx.SetHand(ctx, p.ID, kept); err != nil {
		return nil, err
	}
	rawLog, err := game.MarshalReversal(game.Discard{
		PlayerID: p.ID,
		Cards:    removed,
		Actor:    ident.Audit(),
	})
	if err != nil {
		return nil, err
	}
	content := fmt.Sprintf("Discarded %d card(s) of rank %d", len(removed), rank)
	if _, err := tx.InsertHistory(ctx, content, rawLog); err != nil {
		return nil, err
	}
	snap, err := s.finishMutation(ctx, tx, roomID, EventRoomUpdated)
	if err != nil {
		return nil, err
	}
	snap.PIN = ""
	return snap, nil
}

// ResetGame clears every hand and score and shuffles a fresh deck. The
// history log itself is kept; only its rolling cap bounds it.
func (s *Service) ResetGame(ctx context.Context, roomID int64, pin string, ident identity.Identity) (*Snapshot, error) {
	tx, err := s.beginAuthorized(ctx, roomID, pin)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if tx.Room().Type != store.RoomCardDraw {
		return nil, ErrInvalidRequest
	}
	if err := tx.ResetPlayers(ctx); err != nil {
		return nil, err
	}
	if err := tx.SetDeck(ctx, game.NewShuffledDeck()); err != nil {
		return nil, err
	}
	rawLog, err := game.MarshalReversal(game.Reset{Actor: ident.Audit()})
	if err != nil {
		return nil, err
	}
	if _, err := tx.InsertHistory(ctx, "Game reset", rawLog); err != nil {
		return nil, err
	}
	return s.finishMutation(ctx, tx, roomID, EventRoomUpdated)
}

// ownedPlayer loads a player of this room and checks the caller owns the
// slot.
func (s *Service) ownedPlayer(ctx context.Context, tx *store.RoomTx, playerID int64, ident identity.Identity) (*store.Player, error) {
	p, err := tx.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if !ident.Matches(p.UserID, p.GuestToken) {
		return nil, ErrNotSlotOwner
	}
	return p, nil
}

// finishMutation bumps the room timestamp, reads the snapshot inside the
// transaction, commits, and broadcasts.
func (s *Service) finishMutation(ctx context.Context, tx *store.RoomTx, roomID int64, event string) (*Snapshot, error) {
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
	s.publish(roomID, event, snap)
	return snap, nil
}
