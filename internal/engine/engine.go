package engine

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/showgrid/seat-reservation/internal/model"
	"github.com/showgrid/seat-reservation/internal/repository"
)

// Engine executes the reservation operations.  It holds no mutable
// state of its own beyond the connection pool; correctness derives
// from the store's row locks and the fixed lock acquisition order.
type Engine struct {
	db       *sql.DB
	clock    Clock
	ids      IDSource
	shows    *repository.ShowRepo
	seats    *repository.SeatRepo
	holds    *repository.HoldRepo
	bookings *repository.BookingRepo
}

// New constructs an Engine with the system clock and UUID identifiers.
func New(db *sql.DB) *Engine {
	return NewWithDeps(db, SystemClock{}, UUIDSource{})
}

// NewWithDeps constructs an Engine with explicit clock and id source.
// Tests use it to control time and identifiers.
func NewWithDeps(db *sql.DB, clock Clock, ids IDSource) *Engine {
	return &Engine{
		db:       db,
		clock:    clock,
		ids:      ids,
		shows:    repository.NewShowRepo(db),
		seats:    repository.NewSeatRepo(db),
		holds:    repository.NewHoldRepo(db),
		bookings: repository.NewBookingRepo(db),
	}
}

// DB exposes the underlying pool for callers that need direct access,
// such as the health endpoint's connectivity probe.
func (e *Engine) DB() *sql.DB { return e.db }

// ShowSummary is the result of InitializeShow.
type ShowSummary struct {
	ShowID    string
	SeatCount int
}

// HoldReceipt is the result of HoldSeats.  SeatIDs preserves the
// order of the request.
type HoldReceipt struct {
	HoldID    string
	ExpiresAt time.Time
	SeatIDs   []string
}

// BookingReceipt is the result of BookHold.  Replays of the same hold
// return identical receipts, including BookedAt.
type BookingReceipt struct {
	BookingID string
	ShowID    string
	SeatIDs   []string
	BookedAt  time.Time
}

// SeatDetail is one seat's entry in a status report.
type SeatDetail struct {
	SeatID        string
	Status        model.SeatStatus
	HoldExpiresAt *time.Time
}

// StatusReport aggregates a show's seats by status.  The per-seat list
// is ordered by seat_id.
type StatusReport struct {
	TotalSeats     int
	AvailableSeats int
	HeldSeats      int
	BookedSeats    int
	Seats          []SeatDetail
}

// ResetReport carries the row counts touched by ResetAll.
type ResetReport struct {
	HoldsCleared    int64
	BookingsCleared int64
	SeatsReset      int64
}

// InitializeShow creates the show and one available seat per seat_id.
// The seat set is immutable afterwards.  Returns ErrShowAlreadyExists
// when the show_id is taken.
func (e *Engine) InitializeShow(ctx context.Context, showID string, seatIDs []string) (*ShowSummary, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	exists, err := e.shows.ExistsTx(ctx, tx, showID)
	if err != nil {
		return nil, storeErr(err)
	}
	if exists {
		return nil, ErrShowAlreadyExists
	}
	if err := e.shows.CreateTx(ctx, tx, showID, e.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrShowExists) {
			return nil, ErrShowAlreadyExists
		}
		return nil, storeErr(err)
	}
	if err := e.seats.CreateBulkTx(ctx, tx, showID, seatIDs); err != nil {
		return nil, storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	committed = true
	return &ShowSummary{ShowID: showID, SeatCount: len(seatIDs)}, nil
}

// HoldSeats places an all-or-nothing hold on the requested seats for
// durationSec seconds.  Row locks are acquired on the target seats in
// ascending seat_id order; if any locked seat is not available the
// whole request fails with a SeatsUnavailableError naming the
// offenders.  A partial hold is never observable.
func (e *Engine) HoldSeats(ctx context.Context, showID string, seatIDs []string, durationSec int) (*HoldReceipt, error) {
	if len(seatIDs) == 0 || hasDuplicates(seatIDs) {
		return nil, ErrInvalidSeatIDs
	}
	now := e.clock.Now()
	expiresAt := now.Add(time.Duration(durationSec) * time.Second)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	exists, err := e.shows.ExistsTx(ctx, tx, showID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !exists {
		return nil, ErrShowNotFound
	}
	known, err := e.seats.CountKnownTx(ctx, tx, showID, seatIDs)
	if err != nil {
		return nil, storeErr(err)
	}
	if known != len(seatIDs) {
		return nil, ErrInvalidSeatIDs
	}
	// Critical section: the locks pin seat state until commit.
	locked, err := e.seats.LockTx(ctx, tx, showID, sortedCopy(seatIDs))
	if err != nil {
		return nil, storeErr(err)
	}
	var unavailable []string
	for _, s := range locked {
		if s.Status != model.SeatAvailable {
			unavailable = append(unavailable, s.SeatID)
		}
	}
	if len(unavailable) > 0 {
		return nil, &SeatsUnavailableError{Seats: unavailable}
	}
	hold := &model.Hold{
		HoldID:    e.ids.NewID(),
		ShowID:    showID,
		SeatIDs:   seatIDs,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := e.holds.CreateTx(ctx, tx, hold); err != nil {
		return nil, storeErr(err)
	}
	if err := e.seats.MarkHeldTx(ctx, tx, showID, seatIDs, hold.HoldID, expiresAt); err != nil {
		return nil, storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	committed = true
	return &HoldReceipt{HoldID: hold.HoldID, ExpiresAt: expiresAt, SeatIDs: seatIDs}, nil
}

// BookHold confirms a hold into a permanent booking.  The booking
// adopts the hold's identifier, which makes the operation idempotent:
// a retry that finds the hold row gone looks the identifier up in
// bookings and replays the original receipt.  The hold row is locked
// before any seat row.
func (e *Engine) BookHold(ctx context.Context, showID, holdID string) (*BookingReceipt, error) {
	now := e.clock.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	hold, err := e.holds.LockByIDTx(ctx, tx, showID, holdID)
	if errors.Is(err, repository.ErrHoldNotFound) {
		// Check for an existing booking before failing: the hold may
		// already have been confirmed by an earlier attempt.
		booking, berr := e.bookings.GetByIDTx(ctx, tx, showID, holdID)
		if berr == nil {
			return &BookingReceipt{
				BookingID: booking.BookingID,
				ShowID:    booking.ShowID,
				SeatIDs:   booking.SeatIDs,
				BookedAt:  booking.BookedAt,
			}, nil
		}
		if errors.Is(berr, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, storeErr(berr)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if !hold.ExpiresAt.After(now) {
		if err := e.cleanupHoldTx(ctx, tx, hold); err != nil {
			return nil, storeErr(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, storeErr(err)
		}
		committed = true
		return nil, ErrHoldExpired
	}
	locked, err := e.seats.LockTx(ctx, tx, showID, sortedCopy(hold.SeatIDs))
	if err != nil {
		return nil, storeErr(err)
	}
	if len(locked) != len(hold.SeatIDs) {
		return nil, ErrHoldInvalidated
	}
	for _, s := range locked {
		if s.Status != model.SeatHeld || s.HoldID == nil || *s.HoldID != hold.HoldID {
			return nil, ErrHoldInvalidated
		}
	}
	booking := &model.Booking{
		BookingID: hold.HoldID,
		ShowID:    showID,
		SeatIDs:   hold.SeatIDs,
		BookedAt:  now,
	}
	if err := e.bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, storeErr(err)
	}
	if err := e.seats.MarkBookedTx(ctx, tx, showID, hold.SeatIDs); err != nil {
		return nil, storeErr(err)
	}
	if err := e.holds.DeleteTx(ctx, tx, hold.HoldID); err != nil {
		return nil, storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	committed = true
	return &BookingReceipt{BookingID: booking.BookingID, ShowID: booking.ShowID, SeatIDs: booking.SeatIDs, BookedAt: now}, nil
}

// ReleaseHold returns a hold's seats to available ahead of its
// deadline.  The hold row is locked before any seat row, the same
// outer-to-inner order BookHold and the reaper use.  Replays report
// ErrHoldNotFound since the row is gone.
func (e *Engine) ReleaseHold(ctx context.Context, showID, holdID string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	hold, err := e.holds.LockByIDTx(ctx, tx, showID, holdID)
	if errors.Is(err, repository.ErrHoldNotFound) {
		return ErrHoldNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	if err := e.cleanupHoldTx(ctx, tx, hold); err != nil {
		return storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	committed = true
	return nil
}

// cleanupHoldTx returns the hold's seats to available and deletes the
// hold row, all inside the ambient transaction.  The seat update is
// guarded by hold_id, so seats already transitioned by someone else
// are untouched.
func (e *Engine) cleanupHoldTx(ctx context.Context, tx *sql.Tx, hold *model.Hold) error {
	if err := e.seats.ReleaseByHoldTx(ctx, tx, hold.ShowID, hold.SeatIDs, hold.HoldID); err != nil {
		return err
	}
	return e.holds.DeleteTx(ctx, tx, hold.HoldID)
}

// ReapExpired reclaims every hold whose deadline has passed, in a
// single transaction.  Expired holds are processed in hold_id order so
// consecutive ticks (or a second reaper in another process) take locks
// in the same sequence.  Returns the number of holds reclaimed.
func (e *Engine) ReapExpired(ctx context.Context) (int, error) {
	now := e.clock.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	expired, err := e.holds.ExpiredTx(ctx, tx, now)
	if err != nil {
		return 0, storeErr(err)
	}
	for i := range expired {
		if err := e.cleanupHoldTx(ctx, tx, &expired[i]); err != nil {
			return 0, storeErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr(err)
	}
	committed = true
	return len(expired), nil
}

// SeatStatus reports per-status totals and per-seat detail for a show.
// The read takes no locks; consistency is snapshot-level within the
// transaction.
func (e *Engine) SeatStatus(ctx context.Context, showID string) (*StatusReport, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := e.shows.ExistsTx(ctx, tx, showID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !exists {
		return nil, ErrShowNotFound
	}
	seats, err := e.seats.ListByShowTx(ctx, tx, showID)
	if err != nil {
		return nil, storeErr(err)
	}
	report := &StatusReport{Seats: make([]SeatDetail, 0, len(seats))}
	for _, s := range seats {
		detail := SeatDetail{SeatID: s.SeatID, Status: s.Status}
		switch s.Status {
		case model.SeatAvailable:
			report.AvailableSeats++
		case model.SeatHeld:
			report.HeldSeats++
			detail.HoldExpiresAt = s.HoldExpiresAt
		case model.SeatBooked:
			report.BookedSeats++
		}
		report.Seats = append(report.Seats, detail)
	}
	report.TotalSeats = len(seats)
	return report, nil
}

// ResetAll deletes every hold and booking and flips every seat back to
// available in one transaction.  Administrative; not part of the
// per-seat state machine.
func (e *Engine) ResetAll(ctx context.Context) (*ResetReport, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	holds, err := e.holds.DeleteAllTx(ctx, tx)
	if err != nil {
		return nil, storeErr(err)
	}
	bookings, err := e.bookings.DeleteAllTx(ctx, tx)
	if err != nil {
		return nil, storeErr(err)
	}
	seats, err := e.seats.ResetAllTx(ctx, tx)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	committed = true
	return &ResetReport{HoldsCleared: holds, BookingsCleared: bookings, SeatsReset: seats}, nil
}

// sortedCopy returns the seat ids in ascending order without mutating
// the caller's slice.  Lock acquisition always runs over the sorted
// copy; responses keep the request order.
func sortedCopy(seatIDs []string) []string {
	out := make([]string, len(seatIDs))
	copy(out, seatIDs)
	sort.Strings(out)
	return out
}

func hasDuplicates(seatIDs []string) bool {
	seen := make(map[string]struct{}, len(seatIDs))
	for _, sid := range seatIDs {
		if _, ok := seen[sid]; ok {
			return true
		}
		seen[sid] = struct{}{}
	}
	return false
}

// storeErr maps transport-level failures onto ErrUnavailable so the
// HTTP layer can answer 503; everything else passes through for the
// generic 500 path.
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrUnavailable
	}
	return err
}
