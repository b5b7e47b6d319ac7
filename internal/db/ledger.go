package db

import (
	"database/sql"
	"fmt"
)

// PlayerLedger adapts a player's persisted balance to the game.Ledger
// interface: read the current balance, apply a signed delta. Deltas are
// applied as a single guarded UPDATE so concurrent writers cannot take a
// balance negative.
type PlayerLedger struct {
	db       *Database
	playerID string
}

// NewPlayerLedger creates a ledger bound to one player's balance row.
func (d *Database) NewPlayerLedger(playerID string) *PlayerLedger {
	return &PlayerLedger{db: d, playerID: playerID}
}

// Balance reads the player's current balance.
func (l *PlayerLedger) Balance() (int, error) {
	var balance int
	err := l.db.db.QueryRow(
		"SELECT balance FROM players WHERE id = ?", l.playerID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("player %s not found", l.playerID)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Apply adds a signed delta to the player's balance and returns the new
// balance. A delta that would take the balance negative is rejected.
func (l *PlayerLedger) Apply(delta int) (int, error) {
	res, err := l.db.db.Exec(
		"UPDATE players SET balance = balance + ? WHERE id = ? AND balance + ? >= 0",
		delta, l.playerID, delta,
	)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		balance, balErr := l.Balance()
		if balErr != nil {
			return 0, balErr
		}
		return balance, fmt.Errorf("insufficient balance: %d with delta %d", balance, delta)
	}

	return l.Balance()
}
