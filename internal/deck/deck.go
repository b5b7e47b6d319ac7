// Package deck provides card-source implementations for the round engine:
// a locally shuffled standard deck, a fixed-order deck for deterministic
// play, and a client for a remote shuffled-deck service.
package deck

import (
	"errors"
	"math/rand"
	"time"

	"github.com/cardsmith/blackjack-be/internal/game"
)

// ErrExhausted is returned by a card source once every card in its
// fixed-order sequence has been dealt.
var ErrExhausted = errors.New("deck exhausted")

// Deck is an in-memory sequence of cards dealt front to back.
type Deck struct {
	cards []game.Card
	next  int
}

// New creates a standard 52-card deck in canonical order. Call Shuffle
// before dealing real rounds.
func New() *Deck {
	suits := []game.Suit{game.Spades, game.Hearts, game.Diamonds, game.Clubs}
	ranks := []game.Rank{
		game.Ace, game.Two, game.Three, game.Four, game.Five, game.Six,
		game.Seven, game.Eight, game.Nine, game.Ten, game.Jack, game.Queen, game.King,
	}

	d := &Deck{cards: make([]game.Card, 0, len(suits)*len(ranks))}
	for _, suit := range suits {
		for _, rank := range ranks {
			d.cards = append(d.cards, game.Card{Suit: suit, Rank: rank})
		}
	}
	return d
}

// NewFixed creates a deck that deals the given cards in order. Tests and
// replays use this to supply a deterministic sequence; it is the injected
// replacement for the deck cache the engine deliberately does not keep
// globally.
func NewFixed(cards []game.Card) *Deck {
	owned := make([]game.Card, len(cards))
	copy(owned, cards)
	return &Deck{cards: owned}
}

// Shuffle randomizes the undealt remainder of the deck with a Fisher-Yates
// shuffle.
func (d *Deck) Shuffle() {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := len(d.cards) - 1; i > d.next; i-- {
		j := d.next + r.Intn(i-d.next+1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// NextCard deals the next unused card, or ErrExhausted when none remain.
func (d *Deck) NextCard() (game.Card, error) {
	if d.next >= len(d.cards) {
		return game.Card{}, ErrExhausted
	}
	card := d.cards[d.next]
	d.next++
	return card, nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
