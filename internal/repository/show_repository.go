package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// mysqlDuplicateEntry is the server error number for a violated unique
// or primary key constraint.
const mysqlDuplicateEntry = 1062

// CreateTx inserts a new show row within the provided transaction.  A
// duplicate show_id is reported as ErrShowExists, whether found by the
// caller's earlier existence check or raced in by the primary key
// constraint.  The caller must commit or roll back the transaction.
func (r *ShowRepo) CreateTx(ctx context.Context, tx *sql.Tx, showID string, createdAt time.Time) error {
	const q = `INSERT INTO shows (show_id, created_at) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, q, showID, createdAt); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrShowExists
		}
		return err
	}
	return nil
}

// ExistsTx reports whether a show row exists for the given show_id.
// The check participates in the caller's transaction so that the
// answer is consistent with any later statement in the same scope.
func (r *ShowRepo) ExistsTx(ctx context.Context, tx *sql.Tx, showID string) (bool, error) {
	const q = `SELECT 1 FROM shows WHERE show_id = ?`
	var one int
	err := tx.QueryRowContext(ctx, q, showID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of shows.  Used by the health endpoint.
func (r *ShowRepo) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM shows`
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
