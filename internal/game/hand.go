package game

// HandValue calculates the best blackjack total for a hand, adjusting aces
// to avoid busting where possible.
//
// Non-ace cards are summed first, then each ace is added as 11 if that keeps
// the running total at or under 21, otherwise as 1. Invalid cards contribute
// nothing and are excluded from ace counting. An empty hand is worth 0.
func HandValue(cards []Card) int {
	if len(cards) == 0 {
		return 0
	}

	total := 0
	aces := 0

	for _, c := range cards {
		if !c.Valid() {
			continue
		}
		if c.IsAce() {
			aces++
		} else {
			total += CardValue(c, true)
		}
	}

	for i := 0; i < aces; i++ {
		if total+11 > 21 {
			total++
		} else {
			total += 11
		}
	}

	return total
}

// IsBust reports whether a hand's value exceeds 21.
func IsBust(cards []Card) bool {
	return HandValue(cards) > 21
}

// IsBlackjack reports whether a hand is a natural blackjack: exactly two
// valid cards, one ace and one ten-value card. A 21 made from three or more
// cards is never a blackjack. The value check is redundant given the rank
// checks but is kept as a defensive invariant.
func IsBlackjack(cards []Card) bool {
	if len(cards) != 2 {
		return false
	}
	if !cards[0].Valid() || !cards[1].Valid() {
		return false
	}

	hasAce := cards[0].IsAce() || cards[1].IsAce()
	hasTen := cards[0].isTenCard() || cards[1].isTenCard()

	return hasAce && hasTen && HandValue(cards) == 21
}
