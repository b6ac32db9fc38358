package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/showgrid/seat-reservation/internal/model"
)

// SeatRepo provides data access to the seats table.  Seat rows are the
// unit of locking for the whole engine: every state transition locks
// its target seats with SELECT ... FOR UPDATE before touching them,
// always in ascending seat_id order so overlapping requests cannot
// deadlock.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// CreateBulkTx inserts one available seat row per seat_id for the given
// show in a single statement.  Passing an empty slice has no effect.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, showID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO seats (show_id, seat_id, status) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*3)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, showID, sid, model.SeatAvailable)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CountKnownTx returns how many of the given seat_ids exist for the
// show.  Callers compare the result against len(seatIDs) to reject
// requests referencing unknown seats before any locking happens.
func (r *SeatRepo) CountKnownTx(ctx context.Context, tx *sql.Tx, showID string, seatIDs []string) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM seats WHERE show_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showID)
	for _, sid := range seatIDs {
		args = append(args, sid)
	}
	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LockTx acquires exclusive row locks on the given seats and returns
// their current state.  The ORDER BY makes the lock acquisition order
// deterministic (ascending seat_id) regardless of the order seats were
// requested in; every caller in the engine goes through this method,
// which is what prevents deadlocks between overlapping seat sets.
// Locks are held until the transaction commits or rolls back.
func (r *SeatRepo) LockTx(ctx context.Context, tx *sql.Tx, showID string, seatIDs []string) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	query := `SELECT show_id, seat_id, status, hold_id, hold_expires_at
	          FROM seats
	          WHERE show_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)
	          ORDER BY seat_id ASC
	          FOR UPDATE`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showID)
	for _, sid := range seatIDs {
		args = append(args, sid)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// MarkHeldTx transitions the given seats to held under the hold.  The
// caller must already hold row locks on every seat (via LockTx) and
// have verified they are all available.
func (r *SeatRepo) MarkHeldTx(ctx context.Context, tx *sql.Tx, showID string, seatIDs []string, holdID string, expiresAt time.Time) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = ?, hold_id = ?, hold_expires_at = ?
	          WHERE show_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+4)
	args = append(args, model.SeatHeld, holdID, expiresAt, showID)
	for _, sid := range seatIDs {
		args = append(args, sid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// MarkBookedTx transitions the given seats to booked and clears their
// hold metadata.  The caller must hold row locks on every seat and
// have verified each is held by the booking's hold.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, showID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = ?, hold_id = NULL, hold_expires_at = NULL
	          WHERE show_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, model.SeatBooked, showID)
	for _, sid := range seatIDs {
		args = append(args, sid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ReleaseByHoldTx returns the hold's seats to available, guarded by
// hold_id so that a seat touched by somebody else in the meantime is
// left alone.  The UPDATE itself acquires the row locks; rows whose
// hold_id no longer matches are simply not part of the update set.
func (r *SeatRepo) ReleaseByHoldTx(ctx context.Context, tx *sql.Tx, showID string, seatIDs []string, holdID string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = ?, hold_id = NULL, hold_expires_at = NULL
	          WHERE show_id = ? AND hold_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+3)
	args = append(args, model.SeatAvailable, showID, holdID)
	for _, sid := range seatIDs {
		args = append(args, sid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByShowTx returns every seat of a show ordered by seat_id.  No
// locks are taken; the read is consistent within the transaction's
// snapshot only.
func (r *SeatRepo) ListByShowTx(ctx context.Context, tx *sql.Tx, showID string) ([]model.Seat, error) {
	const q = `SELECT show_id, seat_id, status, hold_id, hold_expires_at
	           FROM seats WHERE show_id = ? ORDER BY seat_id ASC`
	rows, err := tx.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// ResetAllTx flips every seat back to available and clears hold
// metadata, returning the number of rows updated.
func (r *SeatRepo) ResetAllTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	const q = `UPDATE seats SET status = ?, hold_id = NULL, hold_expires_at = NULL`
	res, err := tx.ExecContext(ctx, q, model.SeatAvailable)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanSeat reads one seats row, converting the nullable hold columns.
func scanSeat(rows *sql.Rows) (model.Seat, error) {
	var s model.Seat
	var holdID sql.NullString
	var expires sql.NullTime
	if err := rows.Scan(&s.ShowID, &s.SeatID, &s.Status, &holdID, &expires); err != nil {
		return model.Seat{}, err
	}
	if holdID.Valid {
		v := holdID.String
		s.HoldID = &v
	}
	if expires.Valid {
		t := expires.Time.UTC()
		s.HoldExpiresAt = &t
	}
	return s, nil
}
