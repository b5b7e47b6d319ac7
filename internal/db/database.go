package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cardsmith/blackjack-be/internal/game"
	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

// Player is a persisted player record.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Balance  int       `json:"balance"`
	LastSeen time.Time `json:"lastSeen"`
}

// PlayerStats aggregates a player's settled rounds.
type PlayerStats struct {
	PlayerID     string    `json:"playerId"`
	PlayerName   string    `json:"playerName"`
	RoundsPlayed int       `json:"roundsPlayed"`
	RoundsWon    int       `json:"roundsWon"`
	TotalBets    int       `json:"totalBets"`
	TotalPayouts int       `json:"totalPayouts"`
	LastPlayed   time.Time `json:"lastPlayed"`
}

// NewDatabase opens the sqlite database at path and creates the schema.
func NewDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// initTables creates the necessary tables if they don't exist
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			balance INTEGER NOT NULL DEFAULT 1000,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating players table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			status TEXT NOT NULL,
			round_state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (player_id) REFERENCES players (id)
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating rounds table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS round_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			bet INTEGER NOT NULL,
			result TEXT NOT NULL,
			payout INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (round_id) REFERENCES rounds (id),
			FOREIGN KEY (player_id) REFERENCES players (id)
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating round_results table: %v", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetPlayerByID retrieves a player by ID, or nil if not found.
func (d *Database) GetPlayerByID(playerID string) (*Player, error) {
	var player Player

	err := d.db.QueryRow(
		"SELECT id, name, balance, last_seen FROM players WHERE id = ?", playerID,
	).Scan(&player.ID, &player.Name, &player.Balance, &player.LastSeen)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &player, nil
}

// CreatePlayer creates a new player with a starting balance.
func (d *Database) CreatePlayer(playerID, playerName string, initialBalance int) error {
	now := time.Now()
	_, err := d.db.Exec(
		"INSERT INTO players (id, name, balance, created_at, last_seen) VALUES (?, ?, ?, ?, ?)",
		playerID, playerName, initialBalance, now, now,
	)
	return err
}

// UpdatePlayerLastSeen updates a player's last seen timestamp
func (d *Database) UpdatePlayerLastSeen(playerID string) error {
	_, err := d.db.Exec(
		"UPDATE players SET last_seen = ? WHERE id = ?",
		time.Now(), playerID,
	)
	return err
}

// SaveRound persists a round snapshot as JSON, inserting or updating by ID.
func (d *Database) SaveRound(st game.State) error {
	roundState, err := json.Marshal(st)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		INSERT INTO rounds (id, player_id, status, round_state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET status = excluded.status, round_state = excluded.round_state, updated_at = excluded.updated_at
	`, st.ID, st.PlayerID, string(st.Status), string(roundState), st.CreatedAt, st.UpdatedAt)
	return err
}

// GetRound retrieves a persisted round snapshot by ID.
func (d *Database) GetRound(id string) (game.State, error) {
	var roundState []byte
	var st game.State

	err := d.db.QueryRow(
		"SELECT round_state FROM rounds WHERE id = ?", id,
	).Scan(&roundState)
	if err != nil {
		return st, errors.New("round not found")
	}

	if err := json.Unmarshal(roundState, &st); err != nil {
		return st, err
	}
	return st, nil
}

// GetPlayerRounds retrieves all persisted rounds for a player, newest first.
func (d *Database) GetPlayerRounds(playerID string) ([]game.State, error) {
	rows, err := d.db.Query(`
		SELECT round_state FROM rounds WHERE player_id = ? ORDER BY created_at DESC
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []game.State
	for rows.Next() {
		var roundState []byte
		if err := rows.Scan(&roundState); err != nil {
			return nil, err
		}

		var st game.State
		if err := json.Unmarshal(roundState, &st); err != nil {
			return nil, err
		}
		states = append(states, st)
	}

	return states, rows.Err()
}

// SaveRoundResult records a settled round in the results ledger.
func (d *Database) SaveRoundResult(st game.State) error {
	_, err := d.db.Exec(
		"INSERT INTO round_results (round_id, player_id, bet, result, payout, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		st.ID, st.PlayerID, st.Bet, string(st.Result), st.Payout, time.Now(),
	)
	return err
}

// GetPlayerStats aggregates a player's results.
func (d *Database) GetPlayerStats(playerID string) (*PlayerStats, error) {
	stats := PlayerStats{PlayerID: playerID}

	err := d.db.QueryRow("SELECT name FROM players WHERE id = ?", playerID).Scan(&stats.PlayerName)
	if err != nil {
		return nil, err
	}

	err = d.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN result = 'player' THEN 1 END),
		       COALESCE(SUM(bet), 0),
		       COALESCE(SUM(payout), 0)
		FROM round_results WHERE player_id = ?
	`, playerID).Scan(&stats.RoundsPlayed, &stats.RoundsWon, &stats.TotalBets, &stats.TotalPayouts)
	if err != nil {
		return nil, err
	}

	var lastPlayed sql.NullTime
	err = d.db.QueryRow(
		"SELECT MAX(created_at) FROM round_results WHERE player_id = ?", playerID,
	).Scan(&lastPlayed)
	if err == nil && lastPlayed.Valid {
		stats.LastPlayed = lastPlayed.Time
	}

	return &stats, nil
}
