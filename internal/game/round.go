package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusIdle       Status = "idle"       // No active round, a bet may be placed
	StatusDealing    Status = "dealing"    // Initial cards are being drawn
	StatusPlayerTurn Status = "playerTurn" // Waiting for hit/stand/double down
	StatusDealerTurn Status = "dealerTurn" // Dealer is drawing to 17
	StatusComplete   Status = "complete"   // Round is settled
)

// ErrInvalidBet is returned when a bet is non-positive or exceeds the
// player's balance. The round state is left unchanged.
var ErrInvalidBet = errors.New("invalid bet")

// dealerDrawCap bounds the dealer-play loop at 5 extra cards per turn so a
// corrupt policy or deck can never spin it forever.
const dealerDrawCap = 5

// CardSource supplies the next unused card from an already-shuffled,
// fixed-order sequence. It fails once the sequence is exhausted or the
// backing service is unavailable; the round treats such failures as
// retryable and keeps already-drawn cards in place.
type CardSource interface {
	NextCard() (Card, error)
}

// Ledger is the balance store a round settles against: read the current
// balance, apply a signed delta. The round debits the stake when a bet is
// placed and credits winnings or returned stakes at settlement, so the
// balance reflects risk-at-stake for the whole round.
type Ledger interface {
	Balance() (int, error)
	Apply(delta int) (int, error)
}

// Rules holds the table rule variants.
type Rules struct {
	HitOnSoft17  bool // Dealer hits a soft 17
	DoubleAnyTwo bool // Double down on any 2-card hand; false restricts to totals of 9-11
}

// DefaultRules returns the standard table configuration.
func DefaultRules() Rules {
	return Rules{HitOnSoft17: true, DoubleAnyTwo: true}
}

// Round drives a single blackjack round through its lifecycle:
// idle -> dealing -> playerTurn -> dealerTurn -> complete. The rule
// functions it builds on are pure; Round owns all state mutation and the
// diagnostic logging around it. Operations are serialized by a mutex, with a
// separate in-flight flag so two dealer-play loops can never overlap.
type Round struct {
	mu sync.Mutex

	id       string
	playerID string
	status   Status

	playerHand []Card
	dealerHand []Card

	bet          int
	result       Outcome
	payout       int
	hasBlackjack bool

	dealerBusy  bool
	dealerDraws int

	source CardSource
	ledger Ledger
	rules  Rules

	createdAt time.Time
	updatedAt time.Time
}

// NewRound creates an idle round for a player, bound to a card source and a
// balance ledger.
func NewRound(playerID string, source CardSource, ledger Ledger, rules Rules) *Round {
	now := time.Now()
	return &Round{
		id:         uuid.New().String(),
		playerID:   playerID,
		status:     StatusIdle,
		playerHand: []Card{},
		dealerHand: []Card{},
		result:     OutcomeNone,
		source:     source,
		ledger:     ledger,
		rules:      rules,
		createdAt:  now,
		updatedAt:  now,
	}
}

// Start places a bet and deals the opening hands: player, dealer, player,
// dealer. The stake is debited immediately. If either opening hand is a
// blackjack the round resolves on the spot; otherwise play passes to the
// player. A card-source failure mid-deal refunds the stake and reverts the
// round to idle, since it never validly started.
func (r *Round) Start(bet int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusIdle && r.status != StatusComplete {
		log.Printf("round %s: start ignored in status %s", r.id, r.status)
		return nil
	}

	balance, err := r.ledger.Balance()
	if err != nil {
		return fmt.Errorf("reading balance: %w", err)
	}
	if bet <= 0 || bet > balance {
		return fmt.Errorf("%w: %d (balance %d)", ErrInvalidBet, bet, balance)
	}

	r.playerHand = []Card{}
	r.dealerHand = []Card{}
	r.result = OutcomeNone
	r.payout = 0
	r.hasBlackjack = false
	r.dealerDraws = 0
	r.bet = bet

	// Debit up front so the balance reflects the stake at risk.
	if _, err := r.ledger.Apply(-bet); err != nil {
		return fmt.Errorf("debiting bet: %w", err)
	}

	r.status = StatusDealing
	r.touch()

	hands := []*[]Card{&r.playerHand, &r.dealerHand, &r.playerHand, &r.dealerHand}
	for _, hand := range hands {
		card, err := r.draw()
		if err != nil {
			// Refund and revert: the round never started.
			if _, refundErr := r.ledger.Apply(bet); refundErr != nil {
				log.Printf("round %s: refund after failed deal: %v", r.id, refundErr)
			}
			r.playerHand = []Card{}
			r.dealerHand = []Card{}
			r.bet = 0
			r.status = StatusIdle
			r.touch()
			return fmt.Errorf("dealing: %w", err)
		}
		*hand = append(*hand, card)
	}

	r.hasBlackjack = IsBlackjack(r.playerHand)

	// An opening blackjack settles on the spot. On a ledger failure the
	// round stays in dealing; Stand retries the settlement.
	if r.hasBlackjack || IsBlackjack(r.dealerHand) {
		return r.settle()
	}

	r.status = StatusPlayerTurn
	r.touch()
	return nil
}

// Hit draws one more card into the player's hand. Busting resolves the round
// immediately as a dealer win; the stake was already forfeited at Start. A
// draw failure leaves the hand and status untouched so the hit can be
// retried.
func (r *Round) Hit() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusPlayerTurn {
		log.Printf("round %s: hit ignored in status %s", r.id, r.status)
		return nil
	}

	card, err := r.draw()
	if err != nil {
		return fmt.Errorf("hit: %w", err)
	}
	r.playerHand = append(r.playerHand, card)
	r.touch()

	if IsBust(r.playerHand) {
		return r.settle()
	}
	return nil
}

// Stand ends the player's turn and plays out the dealer's hand
// synchronously. Calling Stand again while the round sits in dealerTurn
// retries dealer play after a card-source failure; from dealing it retries
// an opening-blackjack settlement whose ledger credit failed.
func (r *Round) Stand() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case StatusPlayerTurn:
		r.status = StatusDealerTurn
		r.dealerDraws = 0
		r.touch()
	case StatusDealerTurn:
		// Retry after a failed dealer draw.
	case StatusDealing:
		// A round only stays in dealing when an opening blackjack settled
		// against a failing ledger. The dealer never plays on a natural, so
		// retry the settlement directly.
		return r.settle()
	default:
		log.Printf("round %s: stand ignored in status %s", r.id, r.status)
		return nil
	}

	return r.dealerPlay()
}

// DoubleDown doubles the bet on a 2-card hand, draws exactly one card and
// then plays out the dealer. The additional stake is debited first; if the
// draw fails, the debit and the doubled bet are rolled back so the action
// can be retried cleanly.
func (r *Round) DoubleDown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusPlayerTurn || len(r.playerHand) != 2 {
		log.Printf("round %s: double down ignored in status %s with %d cards", r.id, r.status, len(r.playerHand))
		return nil
	}
	if !r.rules.DoubleAnyTwo {
		total := HandValue(r.playerHand)
		if total < 9 || total > 11 {
			log.Printf("round %s: double down not allowed on %d under strict rules", r.id, total)
			return nil
		}
	}

	balance, err := r.ledger.Balance()
	if err != nil {
		return fmt.Errorf("reading balance: %w", err)
	}
	if r.bet > balance {
		return fmt.Errorf("%w: double down needs %d more (balance %d)", ErrInvalidBet, r.bet, balance)
	}

	stake := r.bet
	if _, err := r.ledger.Apply(-stake); err != nil {
		return fmt.Errorf("debiting double down: %w", err)
	}
	r.bet *= 2

	card, err := r.draw()
	if err != nil {
		// Roll back so a retry starts from the same place.
		r.bet = stake
		if _, refundErr := r.ledger.Apply(stake); refundErr != nil {
			log.Printf("round %s: refund after failed double down: %v", r.id, refundErr)
		}
		return fmt.Errorf("double down: %w", err)
	}
	r.playerHand = append(r.playerHand, card)
	r.touch()

	if IsBust(r.playerHand) {
		return r.settle()
	}

	r.status = StatusDealerTurn
	r.dealerDraws = 0
	return r.dealerPlay()
}

// Reset clears hands, bet and result and returns the round to idle. The
// ledger balance is untouched.
func (r *Round) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.playerHand = []Card{}
	r.dealerHand = []Card{}
	r.bet = 0
	r.result = OutcomeNone
	r.payout = 0
	r.hasBlackjack = false
	r.dealerDraws = 0
	r.status = StatusIdle
	r.touch()
}

// dealerPlay draws for the dealer until the policy says stand or the draw
// cap is reached, then settles. Caller holds the mutex.
func (r *Round) dealerPlay() error {
	if r.dealerBusy {
		log.Printf("round %s: dealer play already in flight", r.id)
		return nil
	}
	r.dealerBusy = true
	defer func() { r.dealerBusy = false }()

	for r.dealerDraws < dealerDrawCap && ShouldDealerHit(r.dealerHand, r.rules.HitOnSoft17) {
		card, err := r.draw()
		if err != nil {
			// Stay in dealerTurn; Stand can be retried and the cards
			// drawn so far stay drawn.
			return fmt.Errorf("dealer draw: %w", err)
		}
		r.dealerHand = append(r.dealerHand, card)
		r.dealerDraws++
		r.touch()
	}

	if r.dealerDraws == dealerDrawCap && ShouldDealerHit(r.dealerHand, r.rules.HitOnSoft17) {
		log.Printf("round %s: dealer draw cap reached at %d, settling", r.id, HandValue(r.dealerHand))
	}

	return r.settle()
}

// settle resolves the round exactly once: determines the outcome, credits
// the payout (stake plus winnings on a win, the stake back on a push,
// nothing on a loss) and completes the round. The credit is applied before
// the terminal transition, so a ledger failure leaves the round in its
// current status to be settled again without double-crediting. Caller holds
// the mutex.
func (r *Round) settle() error {
	result := DetermineWinner(r.playerHand, r.dealerHand)

	payout := 0
	switch result {
	case OutcomePlayer:
		payout = CalculatePayout(r.bet, IsBlackjack(r.playerHand))
	case OutcomePush:
		payout = r.bet
	}

	if payout > 0 {
		if _, err := r.ledger.Apply(payout); err != nil {
			return fmt.Errorf("crediting payout: %w", err)
		}
	}

	r.result = result
	r.payout = payout
	r.status = StatusComplete
	r.touch()
	return nil
}

// draw pulls the next card from the source, flagging malformed cards. They
// are still dealt: the evaluator values them as 0, which matches the
// contract for corrupt upstream data.
func (r *Round) draw() (Card, error) {
	card, err := r.source.NextCard()
	if err != nil {
		return Card{}, err
	}
	if !card.Valid() {
		log.Printf("round %s: invalid card from source: %q of %q", r.id, card.Rank, card.Suit)
	}
	return card, nil
}

func (r *Round) touch() {
	r.updatedAt = time.Now()
}
