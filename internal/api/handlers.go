package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/cardsmith/blackjack-be/internal/db"
	"github.com/cardsmith/blackjack-be/internal/game"
	"github.com/cardsmith/blackjack-be/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Options configures the handlers: table rules, betting limits and the card
// source each new round draws from.
type Options struct {
	Rules        game.Rules
	StartBalance int
	MinBet       int
	MaxBet       int

	// NewSource supplies a fresh shuffled card source per round.
	NewSource func() (game.CardSource, error)
}

// Handlers contains all the API handlers
type Handlers struct {
	store    store.Store
	database *db.Database
	hub      *Hub
	opts     Options

	// Guest ledgers, used when no database is configured.
	mu      sync.Mutex
	ledgers map[string]*store.MemoryLedger
}

// NewHandlers creates a new instance of Handlers
func NewHandlers(s store.Store, database *db.Database, hub *Hub, opts Options) *Handlers {
	return &Handlers{
		store:    s,
		database: database,
		hub:      hub,
		opts:     opts,
		ledgers:  make(map[string]*store.MemoryLedger),
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Round endpoints
	r.HandleFunc("/api/round/start", h.StartRound).Methods("POST")
	r.HandleFunc("/api/round/{id}/hit", h.Hit).Methods("POST")
	r.HandleFunc("/api/round/{id}/stand", h.Stand).Methods("POST")
	r.HandleFunc("/api/round/{id}/double", h.DoubleDown).Methods("POST")
	r.HandleFunc("/api/round/{id}/reset", h.ResetRound).Methods("POST")
	r.HandleFunc("/api/round/{id}", h.GetRound).Methods("GET")

	// Player endpoints
	r.HandleFunc("/api/player/register", h.RegisterPlayer).Methods("POST")
	r.HandleFunc("/api/player/{id}", h.GetPlayer).Methods("GET")
	r.HandleFunc("/api/player/{id}/stats", h.GetPlayerStats).Methods("GET")
	r.HandleFunc("/api/player/{id}/rounds", h.GetPlayerRounds).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws", h.hub.WebSocketHandler)
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, map[string]string{"error": message})
}

// ledgerFor returns the balance ledger for a player: the database-backed
// one when persistence is configured, an in-memory guest ledger otherwise.
func (h *Handlers) ledgerFor(playerID string) game.Ledger {
	if h.database != nil {
		return h.database.NewPlayerLedger(playerID)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	ledger, exists := h.ledgers[playerID]
	if !exists {
		ledger = store.NewMemoryLedger(h.opts.StartBalance)
		h.ledgers[playerID] = ledger
	}
	return ledger
}

// persist saves a round snapshot to the store and, when available, the
// database. wasComplete guards the results table so a settled round is
// recorded exactly once.
func (h *Handlers) persist(r *game.Round, wasComplete bool) {
	if err := h.store.SaveRound(r); err != nil {
		log.Printf("Failed to save round %s: %v", r.ID(), err)
	}

	st := r.State()
	if h.database != nil {
		if err := h.database.SaveRound(st); err != nil {
			log.Printf("Failed to persist round %s: %v", st.ID, err)
		}
		if st.Status == game.StatusComplete && !wasComplete {
			if err := h.database.SaveRoundResult(st); err != nil {
				log.Printf("Failed to persist result for round %s: %v", st.ID, err)
			}
		}
	}

	if h.hub != nil {
		h.hub.BroadcastRoundUpdate(st)
		if st.Status == game.StatusComplete && !wasComplete {
			data := map[string]interface{}{
				"result": st.Result,
				"payout": st.Payout,
			}
			if balance, err := r.Balance(); err == nil {
				data["balance"] = balance
			}
			h.hub.SendToPlayer(st.PlayerID, Message{
				Type:     "roundSettled",
				RoundID:  st.ID,
				PlayerID: st.PlayerID,
				Data:     data,
			})
		}
	}
}

// StartRound places a bet and deals a new round for a player
func (h *Handlers) StartRound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Bet      int    `json:"bet"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PlayerID == "" {
		errorResponse(w, http.StatusBadRequest, "Player ID is required")
		return
	}
	if req.Bet < h.opts.MinBet || req.Bet > h.opts.MaxBet {
		errorResponse(w, http.StatusBadRequest, "Bet outside table limits")
		return
	}

	// One live round per player.
	if current, err := h.store.GetPlayerRound(req.PlayerID); err == nil {
		if st := current.Status(); st != game.StatusIdle && st != game.StatusComplete {
			errorResponse(w, http.StatusConflict, "Player already has a round in progress")
			return
		}
	}

	// Each round plays from a fresh shuffled deck.
	source, err := h.opts.NewSource()
	if err != nil {
		log.Printf("Failed to acquire a deck: %v", err)
		errorResponse(w, http.StatusServiceUnavailable, "Card source unavailable")
		return
	}

	round := game.NewRound(req.PlayerID, source, h.ledgerFor(req.PlayerID), h.opts.Rules)

	if err := round.Start(req.Bet); err != nil {
		if errors.Is(err, game.ErrInvalidBet) {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.persist(round, false)
	response(w, http.StatusCreated, round.State())
}

// roundAction loads a round, checks ownership and applies an action to it.
func (h *Handlers) roundAction(w http.ResponseWriter, r *http.Request, action func(*game.Round) error) {
	vars := mux.Vars(r)
	roundID := vars["id"]

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	round, err := h.store.GetRound(roundID)
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Round not found")
		return
	}
	if round.PlayerID() != req.PlayerID {
		errorResponse(w, http.StatusForbidden, "Round belongs to another player")
		return
	}

	wasComplete := round.Status() == game.StatusComplete

	if err := action(round); err != nil {
		if errors.Is(err, game.ErrInvalidBet) {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		// Card-source failures are retryable; the round state is preserved
		// server-side so the same action can be repeated.
		h.persist(round, wasComplete)
		response(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":     err.Error(),
			"retryable": true,
			"round":     round.State(),
		})
		return
	}

	h.persist(round, wasComplete)
	response(w, http.StatusOK, round.State())
}

// Hit draws another card for the player
func (h *Handlers) Hit(w http.ResponseWriter, r *http.Request) {
	h.roundAction(w, r, (*game.Round).Hit)
}

// Stand ends the player's turn and plays out the dealer
func (h *Handlers) Stand(w http.ResponseWriter, r *http.Request) {
	h.roundAction(w, r, (*game.Round).Stand)
}

// DoubleDown doubles the bet, draws one card and plays out the dealer
func (h *Handlers) DoubleDown(w http.ResponseWriter, r *http.Request) {
	h.roundAction(w, r, (*game.Round).DoubleDown)
}

// ResetRound clears a settled round back to idle
func (h *Handlers) ResetRound(w http.ResponseWriter, r *http.Request) {
	h.roundAction(w, r, func(round *game.Round) error {
		round.Reset()
		return nil
	})
}

// GetRound returns the current state of a round
func (h *Handlers) GetRound(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roundID := vars["id"]

	round, err := h.store.GetRound(roundID)
	if err != nil {
		// Not live; fall back to the persisted snapshot.
		if h.database != nil {
			if st, dbErr := h.database.GetRound(roundID); dbErr == nil {
				response(w, http.StatusOK, st)
				return
			}
		}
		errorResponse(w, http.StatusNotFound, "Round not found")
		return
	}

	response(w, http.StatusOK, round.State())
}

// RegisterPlayer registers a new player
func (h *Handlers) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		errorResponse(w, http.StatusBadRequest, "Player name is required")
		return
	}

	playerID := uuid.New().String()

	if h.database != nil {
		if err := h.database.CreatePlayer(playerID, req.Name, h.opts.StartBalance); err != nil {
			errorResponse(w, http.StatusInternalServerError, "Failed to create player")
			return
		}
	} else {
		h.mu.Lock()
		h.ledgers[playerID] = store.NewMemoryLedger(h.opts.StartBalance)
		h.mu.Unlock()
	}

	response(w, http.StatusCreated, map[string]interface{}{
		"id":      playerID,
		"name":    req.Name,
		"balance": h.opts.StartBalance,
	})
}

// GetPlayer returns player information
func (h *Handlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := vars["id"]

	if h.database == nil {
		h.mu.Lock()
		ledger, exists := h.ledgers[playerID]
		h.mu.Unlock()
		if !exists {
			errorResponse(w, http.StatusNotFound, "Player not found")
			return
		}
		balance, _ := ledger.Balance()
		response(w, http.StatusOK, map[string]interface{}{
			"id":      playerID,
			"balance": balance,
		})
		return
	}

	player, err := h.database.GetPlayerByID(playerID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving player")
		return
	}
	if player == nil {
		errorResponse(w, http.StatusNotFound, "Player not found")
		return
	}

	h.database.UpdatePlayerLastSeen(playerID)

	response(w, http.StatusOK, player)
}

// GetPlayerRounds returns a player's persisted round history, newest first
func (h *Handlers) GetPlayerRounds(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := vars["id"]

	if h.database == nil {
		errorResponse(w, http.StatusInternalServerError, "Database not available")
		return
	}

	rounds, err := h.database.GetPlayerRounds(playerID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving rounds")
		return
	}
	if rounds == nil {
		rounds = []game.State{}
	}

	response(w, http.StatusOK, rounds)
}

// GetPlayerStats returns player statistics
func (h *Handlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := vars["id"]

	if h.database == nil {
		errorResponse(w, http.StatusInternalServerError, "Database not available")
		return
	}

	stats, err := h.database.GetPlayerStats(playerID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving player statistics")
		return
	}

	response(w, http.StatusOK, stats)
}
