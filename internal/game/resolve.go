package game

// Outcome is the result of a settled round from the player's point of view.
type Outcome string

const (
	OutcomeNone   Outcome = "none"
	OutcomePlayer Outcome = "player"
	OutcomeDealer Outcome = "dealer"
	OutcomePush   Outcome = "push"
)

// DetermineWinner resolves a finished round between the player's and the
// dealer's final hands. The checks run in a fixed precedence order:
// blackjacks first, then busts, then the numeric comparison with ties as a
// push. A bust hand is never compared numerically. Empty hands resolve to a
// push rather than an error.
func DetermineWinner(playerCards, dealerCards []Card) Outcome {
	if len(playerCards) == 0 || len(dealerCards) == 0 {
		return OutcomePush
	}

	playerBlackjack := IsBlackjack(playerCards)
	dealerBlackjack := IsBlackjack(dealerCards)

	if playerBlackjack && dealerBlackjack {
		return OutcomePush
	}
	if playerBlackjack {
		return OutcomePlayer
	}
	if dealerBlackjack {
		return OutcomeDealer
	}

	if IsBust(playerCards) {
		return OutcomeDealer
	}
	if IsBust(dealerCards) {
		return OutcomePlayer
	}

	playerValue := HandValue(playerCards)
	dealerValue := HandValue(dealerCards)

	if playerValue == dealerValue {
		return OutcomePush
	}
	if playerValue > dealerValue {
		return OutcomePlayer
	}
	return OutcomeDealer
}

// CalculatePayout returns the total amount credited back to the player for a
// winning hand: the returned stake plus winnings. Blackjack pays 3:2, a
// regular win pays 1:1, and a non-positive bet pays nothing. Pushes are the
// caller's responsibility (the stake is returned as-is); this function is
// only meaningful for wins.
func CalculatePayout(bet int, isWinnerBlackjack bool) int {
	if bet <= 0 {
		return 0
	}

	if isWinnerBlackjack {
		return bet + int(float64(bet)*1.5)
	}

	return bet * 2
}
