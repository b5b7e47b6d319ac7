package game

// ShouldDealerHit decides whether the dealer draws another card.
//
// The dealer always hits below 17 and always stands above it. On exactly 17
// the hitOnSoft17 flag controls the soft-17 rule: if the hand contains an
// ace and counting one ace as 1 instead of 11 would leave 7, the 17 is soft
// and the dealer hits. An empty hand never hits.
func ShouldDealerHit(dealerHand []Card, hitOnSoft17 bool) bool {
	if len(dealerHand) == 0 {
		return false
	}

	value := HandValue(dealerHand)

	if value < 17 {
		return true
	}

	if hitOnSoft17 && value == 17 {
		hasAce := false
		for _, c := range dealerHand {
			if c.Valid() && c.IsAce() {
				hasAce = true
				break
			}
		}
		if hasAce {
			return value-10 == 7
		}
	}

	return false
}
