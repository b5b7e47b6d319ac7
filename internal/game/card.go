package game

import (
	"fmt"
	"strconv"
	"strings"
)

type Suit string
type Rank string

const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
)

const (
	Ace   Rank = "ace"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "jack"
	Queen Rank = "queen"
	King  Rank = "king"
)

// Card is a single playing card. Rank and suit comparisons are
// case-insensitive so cards from external deck services round-trip cleanly.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Valid reports whether the card carries a recognizable rank and suit.
// Invalid cards are tolerated by the evaluator (they count as 0) but the
// orchestrator flags them, since they indicate a bad upstream deck.
func (c Card) Valid() bool {
	if c.Suit == "" || c.Rank == "" {
		return false
	}
	switch Suit(strings.ToLower(string(c.Suit))) {
	case Spades, Hearts, Diamonds, Clubs:
	default:
		return false
	}
	return CardValue(c, true) > 0
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return strings.EqualFold(string(c.Rank), string(Ace))
}

// isTenCard reports whether the card is worth exactly ten (10, jack, queen, king).
func (c Card) isTenCard() bool {
	switch Rank(strings.ToLower(string(c.Rank))) {
	case Ten, Jack, Queen, King:
		return true
	}
	return false
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// CardValue returns the blackjack value of a single card. Aces are worth 11
// when aceHigh is true, 1 otherwise. Face cards are worth 10, numeric ranks
// their face value. A missing or malformed rank is worth 0 rather than an
// error, so a corrupt card from upstream degrades instead of crashing a hand.
func CardValue(c Card, aceHigh bool) int {
	rank := strings.ToLower(string(c.Rank))

	switch Rank(rank) {
	case Ace:
		if aceHigh {
			return 11
		}
		return 1
	case King, Queen, Jack:
		return 10
	}

	n, err := strconv.Atoi(rank)
	if err != nil || n < 2 || n > 10 {
		return 0
	}
	return n
}
