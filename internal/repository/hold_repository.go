package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/showgrid/seat-reservation/internal/model"
)

// HoldRepo provides data access to the holds table.  A hold row stores
// its covered seat_ids as a JSON array, preserving the order the
// client requested the seats in.  All timestamps are UTC.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo {
	return &HoldRepo{db: db}
}

// CreateTx inserts a hold row within the provided transaction.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	seats, err := json.Marshal(h.SeatIDs)
	if err != nil {
		return fmt.Errorf("encode seat_ids: %w", err)
	}
	const q = `INSERT INTO holds (hold_id, show_id, seat_ids, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q, h.HoldID, h.ShowID, seats, h.ExpiresAt, h.CreatedAt)
	return err
}

// LockByIDTx fetches the hold for (show_id, hold_id) under an
// exclusive row lock.  Both confirmation and release lock the hold row
// before any seat row, establishing the outer-to-inner lock order
// every writer obeys.  Returns ErrHoldNotFound when no such hold
// exists.
func (r *HoldRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, showID, holdID string) (*model.Hold, error) {
	const q = `SELECT hold_id, show_id, seat_ids, expires_at, created_at
	           FROM holds WHERE hold_id = ? AND show_id = ? FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, holdID, showID))
}

// ExpiredTx returns all holds whose deadline has passed, ordered by
// hold_id so the reaper takes locks in a stable order from tick to
// tick.  The rows are locked FOR UPDATE for the duration of the
// transaction, serializing the reaper against live book/release
// traffic on the same holds.
func (r *HoldRepo) ExpiredTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]model.Hold, error) {
	const q = `SELECT hold_id, show_id, seat_ids, expires_at, created_at
	           FROM holds WHERE expires_at <= ? ORDER BY hold_id ASC FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holds []model.Hold
	for rows.Next() {
		var h model.Hold
		var seats []byte
		if err := rows.Scan(&h.HoldID, &h.ShowID, &seats, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(seats, &h.SeatIDs); err != nil {
			return nil, fmt.Errorf("decode seat_ids for hold %s: %w", h.HoldID, err)
		}
		h.ExpiresAt = h.ExpiresAt.UTC()
		h.CreatedAt = h.CreatedAt.UTC()
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}

// DeleteTx removes a hold row within the provided transaction.
func (r *HoldRepo) DeleteTx(ctx context.Context, tx *sql.Tx, holdID string) error {
	const q = `DELETE FROM holds WHERE hold_id = ?`
	_, err := tx.ExecContext(ctx, q, holdID)
	return err
}

// DeleteAllTx removes every hold row, returning the number deleted.
func (r *HoldRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM holds`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *HoldRepo) scanOne(row *sql.Row) (*model.Hold, error) {
	var h model.Hold
	var seats []byte
	err := row.Scan(&h.HoldID, &h.ShowID, &seats, &h.ExpiresAt, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seats, &h.SeatIDs); err != nil {
		return nil, fmt.Errorf("decode seat_ids for hold %s: %w", h.HoldID, err)
	}
	h.ExpiresAt = h.ExpiresAt.UTC()
	h.CreatedAt = h.CreatedAt.UTC()
	return &h, nil
}
