package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cardsmith/blackjack-be/internal/game"
)

// Client pulls shuffled decks from a qrandom.io-style deck service. One
// Shuffle call fetches a whole deck; the cards are cached inside the client
// and dealt in order, so a round never refetches a card it already drew.
// The cache lives on the client value, never in package state, so callers
// own its lifetime.
type Client struct {
	baseURL string
	http    *http.Client

	deckID string
	cards  []game.Card
	next   int
}

type deckResponse struct {
	ID   string `json:"id"`
	Deck struct {
		Cards []game.Card `json:"cards"`
		Decks int         `json:"decks"`
	} `json:"deck"`
}

// NewClient creates a deck-service client. httpClient may be nil, in which
// case a client with a sane timeout is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Shuffle fetches a freshly shuffled deck from the service, replacing any
// cards still cached from a previous deck.
func (c *Client) Shuffle(ctx context.Context, decks int) error {
	if decks <= 0 {
		decks = 1
	}

	url := fmt.Sprintf("%s/api/random/deck?decks=%d", c.baseURL, decks)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building deck request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching shuffled deck: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching shuffled deck: %s", resp.Status)
	}

	var body deckResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding deck response: %w", err)
	}
	if body.ID == "" || len(body.Deck.Cards) == 0 {
		return fmt.Errorf("deck service returned no cards")
	}

	c.deckID = body.ID
	c.cards = body.Deck.Cards
	c.next = 0
	return nil
}

// NextCard deals the next card from the cached deck. Once the deck runs out
// it returns ErrExhausted; the caller decides whether to shuffle a new deck.
func (c *Client) NextCard() (game.Card, error) {
	if c.next >= len(c.cards) {
		return game.Card{}, ErrExhausted
	}
	card := c.cards[c.next]
	c.next++
	return card, nil
}

// DeckID returns the service-assigned ID of the cached deck.
func (c *Client) DeckID() string {
	return c.deckID
}

// Remaining returns the number of undealt cards in the cached deck.
func (c *Client) Remaining() int {
	return len(c.cards) - c.next
}
