package game

import (
	"fmt"
	"math/rand"
	"time"
)

type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

var suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Card ranks run 1 (ace) through 13 (king). A card drawn into a hand is
// marked face-up; deck cards are always face-down.
type Card struct {
	Rank   int  `json:"rank"`
	Suit   Suit `json:"suit"`
	FaceUp bool `json:"face_up,omitempty"`
}

func (c Card) String() string {
	r := map[int]string{
		1: "A", 2: "2", 3: "3", 4: "4", 5: "5", 6: "6", 7: "7",
		8: "8", 9: "9", 10: "T", 11: "J", 12: "Q", 13: "K",
	}[c.Rank]
	if r == "" {
		r = fmt.Sprintf("?%d", c.Rank)
	}
	return r + string(c.Suit)
}

// Deck is the ordered sequence of cards remaining to be drawn. Cards leave
// from the front.
type Deck []Card

const DeckSize = 52

func NewDeck() Deck {
	cards := make(Deck, 0, DeckSize)
	for _, s := range suits {
		for r := 1; r <= 13; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return cards
}

// NewShuffledDeck returns a fresh 52-card deck in uniformly random order.
func NewShuffledDeck() Deck {
	d := NewDeck()
	d.Shuffle()
	return d
}

func (d Deck) Shuffle() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}

// Draw pops the front card. ok is false on an empty deck.
func (d *Deck) Draw() (Card, bool) {
	if len(*d) == 0 {
		return Card{}, false
	}
	c := (*d)[0]
	*d = (*d)[1:]
	return c, true
}
