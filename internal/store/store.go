package store

import "github.com/cardsmith/blackjack-be/internal/game"

// Store defines the interface for round storage
type Store interface {
	// SaveRound saves a round to the store
	SaveRound(r *game.Round) error

	// GetRound retrieves a round by ID
	GetRound(id string) (*game.Round, error)

	// GetPlayerRound retrieves the player's current round
	GetPlayerRound(playerID string) (*game.Round, error)

	// DeleteRound removes a round from the store
	DeleteRound(id string) error

	// GetAllRounds returns all rounds in the store
	GetAllRounds() ([]*game.Round, error)
}
