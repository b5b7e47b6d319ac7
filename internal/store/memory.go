package store

import (
	"errors"
	"sync"

	"github.com/cardsmith/blackjack-be/internal/game"
)

// MemoryStore is an in-memory implementation of round storage
type MemoryStore struct {
	rounds  map[string]*game.Round
	players map[string]*game.Round
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds:  make(map[string]*game.Round),
		players: make(map[string]*game.Round),
	}
}

// SaveRound saves a round to the store. It becomes the player's current
// round, replacing any earlier one.
func (s *MemoryStore) SaveRound(r *game.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds[r.ID()] = r
	s.players[r.PlayerID()] = r
	return nil
}

// GetRound retrieves a round by ID
func (s *MemoryStore) GetRound(id string) (*game.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.rounds[id]
	if !exists {
		return nil, errors.New("round not found")
	}
	return r, nil
}

// GetPlayerRound retrieves the player's current round
func (s *MemoryStore) GetPlayerRound(playerID string) (*game.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.players[playerID]
	if !exists {
		return nil, errors.New("no round found for player")
	}
	return r, nil
}

// DeleteRound removes a round from the store
func (s *MemoryStore) DeleteRound(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.rounds[id]
	if !exists {
		return errors.New("round not found")
	}

	delete(s.rounds, id)
	if current, ok := s.players[r.PlayerID()]; ok && current.ID() == id {
		delete(s.players, r.PlayerID())
	}
	return nil
}

// GetAllRounds returns all rounds in the store
func (s *MemoryStore) GetAllRounds() ([]*game.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := make([]*game.Round, 0, len(s.rounds))
	for _, r := range s.rounds {
		rounds = append(rounds, r)
	}
	return rounds, nil
}
