package room

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bida-server/internal/game"
	"bida-server/internal/identity"
	"bida-server/internal/store"
)

func createCardRoom(t *testing.T, svc *Service, cardsPerPlayer int, names ...string) *Snapshot {
	t.Helper()
	snap, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		Name:           "card night",
		PIN:            "7777",
		Type:           store.RoomCardDraw,
		PlayerNames:    names,
		CardsPerPlayer: cardsPerPlayer,
	})
	if err != nil {
		t.Fatalf("create card room: %v", err)
	}
	return snap
}

func claimAll(t *testing.T, svc *Service, snap *Snapshot) []identity.Identity {
	t.Helper()
	idents := make([]identity.Identity, 0, len(snap.Players))
	for _, p := range snap.Players {
		ident := identity.Guest(identity.NewGuestToken())
		if _, err := svc.ClaimPlayer(context.Background(), snap.ID, p.ID, ident, ""); err != nil {
			t.Fatalf("claim slot %d: %v", p.ID, err)
		}
		idents = append(idents, ident)
	}
	return idents
}

func TestStartGameDealsHands(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	snap := createCardRoom(t, svc, 5, "An", "Binh", "Chi")

	// Unclaimed slots block the deal.
	if _, err := svc.StartGame(context.Background(), snap.ID, "7777"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("start with unclaimed slots err = %v, want ErrInvalidRequest", err)
	}

	claimAll(t, svc, snap)
	if _, err := svc.StartGame(context.Background(), snap.ID, "0000"); !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("wrong pin err = %v, want ErrInvalidPIN", err)
	}

	got, err := svc.StartGame(context.Background(), snap.ID, "7777")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got.DeckSize != game.DeckSize-3*5 {
		t.Fatalf("deck size = %d, want %d", got.DeckSize, game.DeckSize-3*5)
	}
	seen := map[game.Card]bool{}
	for _, p := range got.Players {
		if len(p.Hand) != 5 {
			t.Fatalf("player %d hand = %d cards, want 5", p.ID, len(p.Hand))
		}
		for _, c := range p.Hand {
			if !c.FaceUp {
				t.Fatalf("dealt card %v not face-up", c)
			}
			key := game.Card{Rank: c.Rank, Suit: c.Suit}
			if seen[key] {
				t.Fatalf("card %v dealt twice", c)
			}
			seen[key] = true
		}
	}
	if len(got.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(got.History))
	}

	// The deal is recorded for audit but cannot be undone.
	if _, err := svc.UndoScore(context.Background(), snap.ID, got.History[0].ID, "7777"); !errors.Is(err, ErrNotUndoable) {
		t.Fatalf("undo start err = %v, want ErrNotUndoable", err)
	}
}

func TestStartGameWrongMode(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	snap := createPointRoom(t, svc, "An", "Binh")
	if _, err := svc.StartGame(context.Background(), snap.ID, "4321"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestDrawCard(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	snap := createCardRoom(t, svc, 2, "An", "Binh")
	idents := claimAll(t, svc, snap)
	started, err := svc.StartGame(context.Background(), snap.ID, "7777")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	first := started.Players[0].ID

	if _, err := svc.DrawCard(context.Background(), snap.ID, first, identity.Anonymous()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous draw err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.DrawCard(context.Background(), snap.ID, first, idents[1]); !errors.Is(err, ErrNotSlotOwner) {
		t.Fatalf("other identity draw err = %v, want ErrNotSlotOwner", err)
	}
	if _, err := svc.DrawCard(context.Background(), snap.ID, 99999, idents[0]); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("unknown slot draw err = %v, want ErrPlayerNotFound", err)
	}

	got, err := svc.DrawCard(context.Background(), snap.ID, first, idents[0])
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if got.PIN != "" {
		t.Fatal("draw response leaks pin")
	}
	if got.DeckSize != started.DeckSize-1 {
		t.Fatalf("deck size = %d, want %d", got.DeckSize, started.DeckSize-1)
	}
	for _, p := range got.Players {
		if p.ID == first {
			if len(p.Hand) != 3 {
				t.Fatalf("hand = %d cards after draw, want 3", len(p.Hand))
			}
			if drawn := p.Hand[len(p.Hand)-1]; !drawn.FaceUp {
				t.Fatalf("drawn card %v not face-up", drawn)
			}
		}
	}
	// Draws leave no history.
	if len(got.History) != len(started.History) {
		t.Fatalf("history grew on draw: %d -> %d", len(started.History), len(got.History))
	}

	// Cards move, they never appear or vanish.
	inHands := 0
	for _, p := range got.Players {
		inHands += len(p.Hand)
	}
	if inHands+got.DeckSize != game.DeckSize {
		t.Fatalf("cards in play = %d, want %d", inHands+got.DeckSize, game.DeckSize)
	}
}

func TestDrawCardEmptyDeck(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	// 2 players x 26 cards drains the deck at the deal.
	snap := createCardRoom(t, svc, 26, "An", "Binh")
	idents := claimAll(t, svc, snap)
	started, err := svc.StartGame(context.Background(), snap.ID, "7777")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.DeckSize != 0 {
		t.Fatalf("deck size = %d after full deal, want 0", started.DeckSize)
	}

	first := started.Players[0].ID
	if _, err := svc.DrawCard(context.Background(), snap.ID, first, idents[0]); !errors.Is(err, ErrOutOfCards) {
		t.Fatalf("err = %v, want ErrOutOfCards", err)
	}
	// The empty deck is reported before ownership is even checked.
	if _, err := svc.DrawCard(context.Background(), snap.ID, first, idents[1]); !errors.Is(err, ErrOutOfCards) {
		t.Fatalf("non-owner err = %v, want ErrOutOfCards", err)
	}
}

func TestDiscardCard(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	// The full deck in one hand makes every rank present exactly four times.
	snap := createCardRoom(t, svc, 26, "An", "Binh")
	idents := claimAll(t, svc, snap)
	started, err := svc.StartGame(context.Background(), snap.ID, "7777")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	first := started.Players[0].ID
	var rank int
	for _, p := range started.Players {
		if p.ID == first {
			rank = p.Hand[0].Rank
		}
	}

	if _, err := svc.DiscardCard(context.Background(), snap.ID, first, identity.Anonymous(), rank); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous discard err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.DiscardCard(context.Background(), snap.ID, first, idents[1], rank); !errors.Is(err, ErrNotSlotOwner) {
		t.Fatalf("other identity discard err = %v, want ErrNotSlotOwner", err)
	}
	if _, err := svc.DiscardCard(context.Background(), snap.ID, first, idents[0], 99); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("bad rank err = %v, want ErrInvalidRequest", err)
	}

	got, err := svc.DiscardCard(context.Background(), snap.ID, first, idents[0], rank)
	if err != nil {
		t.Fatalf("discard: %v", err)
	}
	removed := 0
	for _, p := range got.Players {
		if p.ID == first {
			removed = 26 - len(p.Hand)
			for _, c := range p.Hand {
				if c.Rank == rank {
					t.Fatalf("card of rank %d survived discard", rank)
				}
			}
		}
	}
	if removed < 1 {
		t.Fatal("discard removed nothing")
	}
	if len(got.History) != len(started.History)+1 {
		t.Fatalf("history length = %d, want %d", len(got.History), len(started.History)+1)
	}
	// History is served to anonymous viewers; the actor field must never
	// carry a usable credential.
	if tok, _ := idents[0].GuestToken(); strings.Contains(string(got.History[0].RawLog), tok) {
		t.Fatal("discard entry leaks the guest token")
	}

	// Discarding a rank no longer held is rejected.
	if _, err := svc.DiscardCard(context.Background(), snap.ID, first, idents[0], rank); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("repeat discard err = %v, want ErrInvalidRequest", err)
	}
	// Audit entries for discards are not undoable.
	if _, err := svc.UndoScore(context.Background(), snap.ID, got.History[0].ID, "7777"); !errors.Is(err, ErrNotUndoable) {
		t.Fatalf("undo discard err = %v, want ErrNotUndoable", err)
	}
}

func TestResetGame(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	snap := createCardRoom(t, svc, 3, "An", "Binh")
	idents := claimAll(t, svc, snap)
	if _, err := svc.StartGame(context.Background(), snap.ID, "7777"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.DrawCard(context.Background(), snap.ID, snap.Players[0].ID, idents[0]); err != nil {
		t.Fatalf("draw: %v", err)
	}

	got, err := svc.ResetGame(context.Background(), snap.ID, "7777", idents[0])
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got.DeckSize != game.DeckSize {
		t.Fatalf("deck size = %d after reset, want %d", got.DeckSize, game.DeckSize)
	}
	for _, p := range got.Players {
		if len(p.Hand) != 0 || p.Score != 0 {
			t.Fatalf("player %d not reset: hand %d score %d", p.ID, len(p.Hand), p.Score)
		}
		if !p.Claimed {
			t.Fatal("reset dropped a claim")
		}
	}
	// The reset itself lands in the log but cannot be undone.
	if _, err := svc.UndoScore(context.Background(), snap.ID, got.History[0].ID, "7777"); !errors.Is(err, ErrNotUndoable) {
		t.Fatalf("undo reset err = %v, want ErrNotUndoable", err)
	}
	if tok, _ := idents[0].GuestToken(); strings.Contains(string(got.History[0].RawLog), tok) {
		t.Fatal("reset entry leaks the guest token")
	}

	if _, err := svc.ResetGame(context.Background(), snap.ID, "0000", idents[0]); !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("wrong pin err = %v, want ErrInvalidPIN", err)
	}
}
