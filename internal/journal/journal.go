// Package journal is the durable trade log: one row per trade, entry fields
// written at order time, exit fields applied exactly once at closure. It is
// a historical record, not live state — restarts rebuild tracked positions
// from the venue, never from here.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trend-engine/pkg/db"
)

// Trade statuses as stored in the trades table.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// ErrNoOpenTrade means a closure arrived for an instrument with no open row,
// e.g. a manually opened position this engine never journaled.
var ErrNoOpenTrade = errors.New("no open trade for instrument")

// TradeRecord mirrors one row of the trades table.
type TradeRecord struct {
	ID          string     `json:"id"`
	Instrument  string     `json:"instrument"`
	Side        string     `json:"side"`
	EntryPrice  float64    `json:"entry_price"`
	StopPrice   float64    `json:"stop_price"`
	TargetPrice float64    `json:"target_price"`
	Size        float64    `json:"size"`
	RiskAmount  float64    `json:"risk_amount"`
	OpenedAt    time.Time  `json:"opened_at"`
	ExitPrice   *float64   `json:"exit_price,omitempty"`
	RealizedPnL *float64   `json:"realized_pnl,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Status      string     `json:"status"`
	Unprotected bool       `json:"unprotected"`
}

// Journal persists trades to sqlite.
type Journal struct {
	database *db.Database
}

func New(database *db.Database) *Journal {
	return &Journal{database: database}
}

// InsertOpen writes the entry half of a trade record.
func (j *Journal) InsertOpen(ctx context.Context, rec TradeRecord) error {
	unprotected := 0
	if rec.Unprotected {
		unprotected = 1
	}
	_, err := j.database.DB.ExecContext(ctx, `
		INSERT INTO trades (id, instrument, side, entry_price, stop_price, target_price,
		                    size, risk_amount, opened_at, status, unprotected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Instrument, rec.Side, rec.EntryPrice, rec.StopPrice, rec.TargetPrice,
		rec.Size, rec.RiskAmount, rec.OpenedAt.UTC(), StatusOpen, unprotected)
	if err != nil {
		return fmt.Errorf("insert open trade: %w", err)
	}
	return nil
}

// CloseTrade sets the exit fields on the most recent open trade for the
// instrument. Once closed a row is never rewritten, so repeated closure
// reports for the same position cannot land twice.
func (j *Journal) CloseTrade(ctx context.Context, instrument string, exitPrice, realizedPnL float64, closedAt time.Time) error {
	res, err := j.database.DB.ExecContext(ctx, `
		UPDATE trades
		SET exit_price = ?, realized_pnl = ?, closed_at = ?, status = ?
		WHERE id = (
			SELECT id FROM trades
			WHERE instrument = ? AND status = ?
			ORDER BY opened_at DESC
			LIMIT 1
		)
	`, exitPrice, realizedPnL, closedAt.UTC(), StatusClosed, instrument, StatusOpen)
	if err != nil {
		return fmt.Errorf("close trade for %s: %w", instrument, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close trade for %s: %w", instrument, err)
	}
	if affected == 0 {
		return fmt.Errorf("close trade for %s: %w", instrument, ErrNoOpenTrade)
	}
	return nil
}

// MarkUnprotected flags a trade whose protective bracket legs failed.
func (j *Journal) MarkUnprotected(ctx context.Context, id string) error {
	_, err := j.database.DB.ExecContext(ctx,
		`UPDATE trades SET unprotected = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark trade %s unprotected: %w", id, err)
	}
	return nil
}

// Recent returns the latest trades, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.database.DB.QueryContext(ctx, `
		SELECT id, instrument, side, entry_price, stop_price, target_price,
		       size, risk_amount, opened_at, exit_price, realized_pnl, closed_at,
		       status, unprotected
		FROM trades
		ORDER BY opened_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var (
			rec         TradeRecord
			unprotected int
		)
		if err := rows.Scan(
			&rec.ID, &rec.Instrument, &rec.Side, &rec.EntryPrice, &rec.StopPrice,
			&rec.TargetPrice, &rec.Size, &rec.RiskAmount, &rec.OpenedAt,
			&rec.ExitPrice, &rec.RealizedPnL, &rec.ClosedAt, &rec.Status, &unprotected,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		rec.Unprotected = unprotected == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}
