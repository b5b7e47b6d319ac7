package game

import "time"

// State is a serializable snapshot of a round, used by the API responses
// and the persistence layer.
type State struct {
	ID           string    `json:"id"`
	PlayerID     string    `json:"playerId"`
	Status       Status    `json:"status"`
	PlayerHand   []Card    `json:"playerHand"`
	DealerHand   []Card    `json:"dealerHand"`
	PlayerScore  int       `json:"playerScore"`
	DealerScore  int       `json:"dealerScore"`
	Bet          int       `json:"bet"`
	Result       Outcome   `json:"result"`
	Payout       int       `json:"payout"`
	HasBlackjack bool      `json:"hasBlackjack"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// State returns a consistent snapshot of the round.
func (r *Round) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return State{
		ID:           r.id,
		PlayerID:     r.playerID,
		Status:       r.status,
		PlayerHand:   copyCards(r.playerHand),
		DealerHand:   copyCards(r.dealerHand),
		PlayerScore:  HandValue(r.playerHand),
		DealerScore:  HandValue(r.dealerHand),
		Bet:          r.bet,
		Result:       r.result,
		Payout:       r.payout,
		HasBlackjack: r.hasBlackjack,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	}
}

// ID returns the round's identifier.
func (r *Round) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// PlayerID returns the owning player's identifier.
func (r *Round) PlayerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerID
}

// Status returns the round's lifecycle status.
func (r *Round) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Result returns the round's outcome, OutcomeNone until settled.
func (r *Round) Result() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Bet returns the current tracked bet (doubled after a double down).
func (r *Round) Bet() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bet
}

// Payout returns the amount credited at settlement, 0 for a loss.
func (r *Round) Payout() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payout
}

// HasBlackjack reports whether the player's opening hand was a natural.
func (r *Round) HasBlackjack() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasBlackjack
}

// PlayerHand returns a copy of the player's cards in deal order.
func (r *Round) PlayerHand() []Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyCards(r.playerHand)
}

// DealerHand returns a copy of the dealer's cards in deal order.
func (r *Round) DealerHand() []Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyCards(r.dealerHand)
}

// PlayerScore returns the player's current hand value.
func (r *Round) PlayerScore() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return HandValue(r.playerHand)
}

// DealerScore returns the dealer's current hand value.
func (r *Round) DealerScore() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return HandValue(r.dealerHand)
}

// Balance reads the player's balance from the ledger.
func (r *Round) Balance() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Balance()
}

func copyCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
