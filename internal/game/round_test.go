package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptSource deals a scripted sequence of cards and can be told to fail
// at a given draw index to exercise retry behavior.
type scriptSource struct {
	cards  []Card
	next   int
	failAt int // draw index that fails while >= 0
}

func newScript(cards ...Card) *scriptSource {
	return &scriptSource{cards: cards, failAt: -1}
}

func (s *scriptSource) NextCard() (Card, error) {
	if s.failAt >= 0 && s.next == s.failAt {
		return Card{}, errors.New("card source unavailable")
	}
	if s.next >= len(s.cards) {
		return Card{}, errors.New("deck exhausted")
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

type testLedger struct {
	balance int
}

func (l *testLedger) Balance() (int, error) { return l.balance, nil }

func (l *testLedger) Apply(delta int) (int, error) {
	l.balance += delta
	return l.balance, nil
}

// flakyCreditLedger debits normally but can reject credits, standing in for
// a balance store that fails mid-settlement.
type flakyCreditLedger struct {
	balance    int
	failCredit bool
}

func (l *flakyCreditLedger) Balance() (int, error) { return l.balance, nil }

func (l *flakyCreditLedger) Apply(delta int) (int, error) {
	if delta > 0 && l.failCredit {
		return l.balance, errors.New("ledger unavailable")
	}
	l.balance += delta
	return l.balance, nil
}

func newTestRound(balance int, source CardSource) (*Round, *testLedger) {
	ledger := &testLedger{balance: balance}
	return NewRound("player-1", source, ledger, DefaultRules()), ledger
}

func TestStartDealsPlayerDealerAlternating(t *testing.T) {
	source := newScript(
		card(Two, Spades), card(Three, Hearts), card(Four, Diamonds), card(Five, Clubs),
	)
	r, ledger := newTestRound(1000, source)

	require.NoError(t, r.Start(100))

	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Equal(t, []Card{card(Two, Spades), card(Four, Diamonds)}, r.PlayerHand())
	assert.Equal(t, []Card{card(Three, Hearts), card(Five, Clubs)}, r.DealerHand())
	assert.Equal(t, 100, r.Bet())
	assert.Equal(t, OutcomeNone, r.Result())
	assert.Equal(t, 900, ledger.balance)
}

func TestStartRejectsInvalidBet(t *testing.T) {
	for _, bet := range []int{0, -5, 1001} {
		source := newScript(
			card(Two, Spades), card(Three, Hearts), card(Four, Diamonds), card(Five, Clubs),
		)
		r, ledger := newTestRound(1000, source)

		err := r.Start(bet)
		assert.ErrorIs(t, err, ErrInvalidBet, "bet %d", bet)
		assert.Equal(t, StatusIdle, r.Status())
		assert.Equal(t, 1000, ledger.balance)
		assert.Empty(t, r.PlayerHand())
	}
}

func TestStartDuringRoundIsIgnored(t *testing.T) {
	source := newScript(
		card(Two, Spades), card(Three, Hearts), card(Four, Diamonds), card(Five, Clubs),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	require.NoError(t, r.Start(50))

	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Equal(t, 100, r.Bet())
	assert.Equal(t, 900, ledger.balance)
}

func TestImmediatePlayerBlackjack(t *testing.T) {
	source := newScript(
		card(Ace, Spades), card(Nine, Hearts), card(King, Diamonds), card(Seven, Clubs),
	)
	r, ledger := newTestRound(1000, source)

	require.NoError(t, r.Start(100))

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, OutcomePlayer, r.Result())
	assert.True(t, r.HasBlackjack())
	assert.Equal(t, 250, r.Payout())
	assert.Equal(t, 1150, ledger.balance)
}

func TestBothBlackjackIsPush(t *testing.T) {
	source := newScript(
		card(Ace, Spades), card(King, Hearts), card(Queen, Diamonds), card(Ace, Clubs),
	)
	r, ledger := newTestRound(1000, source)

	require.NoError(t, r.Start(100))

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, OutcomePush, r.Result())
	assert.Equal(t, 100, r.Payout())
	assert.Equal(t, 1000, ledger.balance)
}

func TestDealerBlackjackForfeitsStake(t *testing.T) {
	source := newScript(
		card(Nine, Spades), card(Ace, Hearts), card(Seven, Diamonds), card(King, Clubs),
	)
	r, ledger := newTestRound(1000, source)

	require.NoError(t, r.Start(100))

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, OutcomeDealer, r.Result())
	assert.False(t, r.HasBlackjack())
	assert.Equal(t, 0, r.Payout())
	assert.Equal(t, 900, ledger.balance)
}

func TestHitBustEndsRound(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Five, Hearts), card(Nine, Diamonds), card(Six, Clubs),
		card(King, Hearts),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	require.NoError(t, r.Hit())

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, OutcomeDealer, r.Result())
	assert.Equal(t, 0, r.Payout())
	assert.Equal(t, 900, ledger.balance)
	assert.Len(t, r.PlayerHand(), 3)
}

func TestStandDealerDrawsToSeventeen(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Two, Hearts), card(Ten, Diamonds), card(Five, Clubs),
		card(Ten, Hearts),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	require.NoError(t, r.Stand())

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, 17, r.DealerScore())
	assert.Len(t, r.DealerHand(), 3)
	assert.Equal(t, OutcomePlayer, r.Result())
	assert.Equal(t, 200, r.Payout())
	// Round trip: balance_after = balance_before - bet + payout.
	assert.Equal(t, 1000-100+200, ledger.balance)

	balance, err := r.Balance()
	require.NoError(t, err)
	assert.Equal(t, 1100, balance)
}

func TestStandEqualScoresPush(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Ten, Hearts), card(Nine, Diamonds), card(Nine, Clubs),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	require.NoError(t, r.Stand())

	assert.Equal(t, OutcomePush, r.Result())
	assert.Equal(t, 100, r.Payout())
	assert.Equal(t, 1000, ledger.balance)
}

func TestDoubleDown(t *testing.T) {
	source := newScript(
		card(Five, Spades), card(Ten, Hearts), card(Six, Diamonds), card(Seven, Clubs),
		card(Ten, Diamonds),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	require.NoError(t, r.DoubleDown())

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, 200, r.Bet())
	assert.Len(t, r.PlayerHand(), 3)
	assert.Equal(t, 21, r.PlayerScore())
	assert.Equal(t, OutcomePlayer, r.Result())
	assert.Equal(t, 400, r.Payout())
	assert.Equal(t, 1000-200+400, ledger.balance)
}

func TestDoubleDownNeedsMatchingBalance(t *testing.T) {
	source := newScript(
		card(Five, Spades), card(Ten, Hearts), card(Six, Diamonds), card(Seven, Clubs),
	)
	r, ledger := newTestRound(150, source)
	require.NoError(t, r.Start(100))

	err := r.DoubleDown()

	assert.ErrorIs(t, err, ErrInvalidBet)
	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Equal(t, 100, r.Bet())
	assert.Equal(t, 50, ledger.balance)
}

func TestDoubleDownAfterHitIsIgnored(t *testing.T) {
	source := newScript(
		card(Two, Spades), card(Ten, Hearts), card(Three, Diamonds), card(Seven, Clubs),
		card(Four, Hearts),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Hit())

	require.NoError(t, r.DoubleDown())

	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Equal(t, 100, r.Bet())
	assert.Equal(t, 900, ledger.balance)
}

func TestDoubleDownStrictTotals(t *testing.T) {
	rules := Rules{HitOnSoft17: true, DoubleAnyTwo: false}

	t.Run("rejected outside nine to eleven", func(t *testing.T) {
		source := newScript(
			card(Ten, Spades), card(Ten, Hearts), card(Nine, Diamonds), card(Seven, Clubs),
		)
		ledger := &testLedger{balance: 1000}
		r := NewRound("player-1", source, ledger, rules)
		require.NoError(t, r.Start(100))

		require.NoError(t, r.DoubleDown())

		assert.Equal(t, StatusPlayerTurn, r.Status())
		assert.Equal(t, 100, r.Bet())
		assert.Equal(t, 900, ledger.balance)
	})

	t.Run("allowed on eleven", func(t *testing.T) {
		source := newScript(
			card(Five, Spades), card(Ten, Hearts), card(Six, Diamonds), card(Seven, Clubs),
			card(Nine, Diamonds),
		)
		ledger := &testLedger{balance: 1000}
		r := NewRound("player-1", source, ledger, rules)
		require.NoError(t, r.Start(100))

		require.NoError(t, r.DoubleDown())

		assert.Equal(t, StatusComplete, r.Status())
		assert.Equal(t, 200, r.Bet())
	})
}

func TestActionsOutsideTurnAreNoOps(t *testing.T) {
	source := newScript(card(Two, Spades))
	r, ledger := newTestRound(1000, source)

	require.NoError(t, r.Hit())
	require.NoError(t, r.Stand())
	require.NoError(t, r.DoubleDown())

	assert.Equal(t, StatusIdle, r.Status())
	assert.Empty(t, r.PlayerHand())
	assert.Equal(t, 1000, ledger.balance)
}

func TestStartFailureRefundsAndReverts(t *testing.T) {
	source := newScript(
		card(Two, Spades), card(Three, Hearts), card(Four, Diamonds), card(Five, Clubs),
	)
	source.failAt = 2
	r, ledger := newTestRound(1000, source)

	err := r.Start(100)

	require.Error(t, err)
	assert.Equal(t, StatusIdle, r.Status())
	assert.Equal(t, 1000, ledger.balance)
	assert.Empty(t, r.PlayerHand())
	assert.Empty(t, r.DealerHand())
	assert.Equal(t, 0, r.Bet())
}

func TestHitFailureIsRetryable(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Five, Hearts), card(Nine, Diamonds), card(Six, Clubs),
		card(Two, Hearts),
	)
	source.failAt = 4
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	err := r.Hit()
	require.Error(t, err)
	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Len(t, r.PlayerHand(), 2)
	assert.Equal(t, 900, ledger.balance)

	// Same action succeeds once the source recovers.
	source.failAt = -1
	require.NoError(t, r.Hit())
	assert.Len(t, r.PlayerHand(), 3)
	assert.Equal(t, 21, r.PlayerScore())
}

func TestDoubleDownFailureRollsBack(t *testing.T) {
	source := newScript(
		card(Five, Spades), card(Ten, Hearts), card(Six, Diamonds), card(Seven, Clubs),
		card(Ten, Diamonds),
	)
	source.failAt = 4
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	err := r.DoubleDown()
	require.Error(t, err)
	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Equal(t, 100, r.Bet())
	assert.Equal(t, 900, ledger.balance)
	assert.Len(t, r.PlayerHand(), 2)

	source.failAt = -1
	require.NoError(t, r.DoubleDown())
	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, 200, r.Bet())
	assert.Equal(t, 1000-200+400, ledger.balance)
}

func TestDealerFailureRetriesViaStand(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Two, Hearts), card(Nine, Diamonds), card(Three, Clubs),
		card(King, Hearts), card(Two, Diamonds),
	)
	source.failAt = 4
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	err := r.Stand()
	require.Error(t, err)
	assert.Equal(t, StatusDealerTurn, r.Status())
	assert.Len(t, r.DealerHand(), 2)

	source.failAt = -1
	require.NoError(t, r.Stand())

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, 17, r.DealerScore())
	assert.Equal(t, OutcomePlayer, r.Result())
	assert.Equal(t, 1100, ledger.balance)
}

func TestDealerDrawCapBoundsLoop(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Two, Hearts), card(Ten, Diamonds), card(Two, Clubs),
		card(Two, Spades), card(Two, Hearts), card(Two, Diamonds), card(Two, Clubs), card(Two, Spades),
		card(Two, Hearts), card(Two, Diamonds),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))

	require.NoError(t, r.Stand())

	// Five extra cards, then the loop settles even though the dealer is
	// still under 17.
	assert.Equal(t, StatusComplete, r.Status())
	assert.Len(t, r.DealerHand(), 7)
	assert.Equal(t, 14, r.DealerScore())
	assert.Equal(t, OutcomePlayer, r.Result())
	assert.Equal(t, 1100, ledger.balance)
}

func TestOpeningBlackjackCreditFailureRetriesViaStand(t *testing.T) {
	source := newScript(
		card(Ace, Spades), card(Nine, Hearts), card(King, Diamonds), card(Seven, Clubs),
	)
	ledger := &flakyCreditLedger{balance: 1000, failCredit: true}
	r := NewRound("player-1", source, ledger, DefaultRules())

	err := r.Start(100)
	require.Error(t, err)
	assert.Equal(t, StatusDealing, r.Status())
	assert.Equal(t, OutcomeNone, r.Result())
	assert.Equal(t, 900, ledger.balance)

	// The stake stays debited but the payout is still reachable: once the
	// ledger recovers, Stand settles the natural without dealer play.
	ledger.failCredit = false
	require.NoError(t, r.Stand())

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, OutcomePlayer, r.Result())
	assert.Equal(t, 250, r.Payout())
	assert.Equal(t, 1150, ledger.balance)
	assert.Len(t, r.DealerHand(), 2)
}

func TestDealerCreditFailureRetriesViaStand(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Two, Hearts), card(Ten, Diamonds), card(Five, Clubs),
		card(Ten, Hearts),
	)
	ledger := &flakyCreditLedger{balance: 1000, failCredit: true}
	r := NewRound("player-1", source, ledger, DefaultRules())
	require.NoError(t, r.Start(100))

	err := r.Stand()
	require.Error(t, err)
	assert.Equal(t, StatusDealerTurn, r.Status())
	assert.Equal(t, 900, ledger.balance)

	ledger.failCredit = false
	require.NoError(t, r.Stand())

	assert.Equal(t, StatusComplete, r.Status())
	assert.Equal(t, OutcomePlayer, r.Result())
	assert.Equal(t, 1100, ledger.balance)
}

func TestSettlementIsIdempotent(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Two, Hearts), card(Ten, Diamonds), card(Five, Clubs),
		card(Ten, Hearts),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Stand())
	require.Equal(t, 1100, ledger.balance)

	// Repeated actions on a settled round never credit twice.
	require.NoError(t, r.Stand())
	require.NoError(t, r.Hit())
	require.NoError(t, r.DoubleDown())

	assert.Equal(t, 1100, ledger.balance)
	assert.Equal(t, 200, r.Payout())
	assert.Equal(t, StatusComplete, r.Status())
}

func TestResetClearsRoundKeepsBalance(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Two, Hearts), card(Ten, Diamonds), card(Five, Clubs),
		card(Ten, Hearts),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Stand())

	r.Reset()

	assert.Equal(t, StatusIdle, r.Status())
	assert.Empty(t, r.PlayerHand())
	assert.Empty(t, r.DealerHand())
	assert.Equal(t, 0, r.Bet())
	assert.Equal(t, OutcomeNone, r.Result())
	assert.Equal(t, 0, r.Payout())
	assert.Equal(t, 1100, ledger.balance)
}

func TestStartAgainAfterComplete(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Two, Hearts), card(Ten, Diamonds), card(Five, Clubs),
		card(Ten, Hearts),
		card(Nine, Spades), card(Ten, Clubs), card(Eight, Diamonds), card(Seven, Hearts),
	)
	r, ledger := newTestRound(1000, source)
	require.NoError(t, r.Start(100))
	require.NoError(t, r.Stand())
	require.Equal(t, 1100, ledger.balance)

	require.NoError(t, r.Start(50))

	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Equal(t, OutcomeNone, r.Result())
	assert.Equal(t, 17, r.PlayerScore())
	assert.Equal(t, 17, r.DealerScore())
	assert.Equal(t, 1050, ledger.balance)
}

func TestInvalidCardIsDealtButWorthless(t *testing.T) {
	source := newScript(
		card(Ten, Spades), card(Ten, Hearts), Card{}, card(Nine, Clubs),
	)
	r, _ := newTestRound(1000, source)

	require.NoError(t, r.Start(100))

	assert.Equal(t, StatusPlayerTurn, r.Status())
	assert.Len(t, r.PlayerHand(), 2)
	assert.Equal(t, 10, r.PlayerScore())
	assert.Equal(t, 19, r.DealerScore())
}
