package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showgrid/seat-reservation/internal/database"
	"github.com/showgrid/seat-reservation/internal/model"
)

// stepClock is a controllable clock for expiry tests.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(start time.Time) *stepClock {
	return &stepClock{now: start.UTC().Truncate(time.Second)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestEngine opens the database named by TEST_DATABASE_URL and
// returns an engine on a fake clock.  Tests are skipped when the
// variable is unset so the suite stays runnable without infrastructure.
func newTestEngine(t *testing.T) (*Engine, *stepClock) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.EnsureSchema(context.Background(), db))

	clock := newStepClock(time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC))
	return NewWithDeps(db, clock, UUIDSource{}), clock
}

// newShow initializes a uniquely named show so tests do not collide
// on shared state.
func newShow(t *testing.T, eng *Engine, seatIDs []string) string {
	t.Helper()
	showID := "show_" + uuid.NewString()
	_, err := eng.InitializeShow(context.Background(), showID, seatIDs)
	require.NoError(t, err)
	return showID
}

func TestInitializeShow(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	showID := "show_" + uuid.NewString()
	summary, err := eng.InitializeShow(ctx, showID, []string{"A1", "A2", "B1"})
	require.NoError(t, err)
	assert.Equal(t, showID, summary.ShowID)
	assert.Equal(t, 3, summary.SeatCount)

	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalSeats)
	assert.Equal(t, 3, report.AvailableSeats)
	assert.Equal(t, 0, report.HeldSeats)
	assert.Equal(t, 0, report.BookedSeats)

	_, err = eng.InitializeShow(ctx, showID, []string{"C1"})
	assert.ErrorIs(t, err, ErrShowAlreadyExists)

	// The losing initialize must not have touched the seat map.
	report, err = eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalSeats)
}

func TestSeatStatusUnknownShow(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.SeatStatus(context.Background(), "show_"+uuid.NewString())
	assert.ErrorIs(t, err, ErrShowNotFound)
}

func TestHoldSeats(t *testing.T) {
	eng, clock := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1", "A2", "A3"})

	receipt, err := eng.HoldSeats(ctx, showID, []string{"A2", "A1"}, 120)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.HoldID)
	assert.Equal(t, []string{"A2", "A1"}, receipt.SeatIDs, "request order preserved")
	assert.Equal(t, clock.Now().Add(120*time.Second), receipt.ExpiresAt)

	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AvailableSeats)
	assert.Equal(t, 2, report.HeldSeats)
	for _, s := range report.Seats {
		if s.SeatID == "A1" || s.SeatID == "A2" {
			assert.Equal(t, model.SeatHeld, s.Status)
			require.NotNil(t, s.HoldExpiresAt)
			assert.True(t, receipt.ExpiresAt.Equal(*s.HoldExpiresAt))
		}
	}
}

func TestHoldSeatsConflictIsAtomic(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1", "A2"})

	_, err := eng.HoldSeats(ctx, showID, []string{"A1"}, 60)
	require.NoError(t, err)

	_, err = eng.HoldSeats(ctx, showID, []string{"A1", "A2"}, 60)
	var unavailable *SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A1"}, unavailable.Seats)

	// A2 must still be free: a partial hold never happens.
	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AvailableSeats)
}

func TestHoldSeatsUnknownSeat(t *testing.T) {
	eng, _ := newTestEngine(t)
	showID := newShow(t, eng, []string{"A1"})
	_, err := eng.HoldSeats(context.Background(), showID, []string{"A1", "Z9"}, 60)
	assert.ErrorIs(t, err, ErrInvalidSeatIDs)
}

func TestHoldSeatsUnknownShow(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.HoldSeats(context.Background(), "show_"+uuid.NewString(), []string{"A1"}, 60)
	assert.ErrorIs(t, err, ErrShowNotFound)
}

func TestBookHold(t *testing.T) {
	eng, clock := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1", "A2"})

	hold, err := eng.HoldSeats(ctx, showID, []string{"A1", "A2"}, 120)
	require.NoError(t, err)

	receipt, err := eng.BookHold(ctx, showID, hold.HoldID)
	require.NoError(t, err)
	assert.Equal(t, hold.HoldID, receipt.BookingID, "booking reuses the hold identifier")
	assert.Equal(t, []string{"A1", "A2"}, receipt.SeatIDs)
	assert.Equal(t, clock.Now(), receipt.BookedAt)

	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.BookedSeats)
	assert.Equal(t, 0, report.HeldSeats)
}

func TestBookHoldIdempotent(t *testing.T) {
	eng, clock := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1"})

	hold, err := eng.HoldSeats(ctx, showID, []string{"A1"}, 120)
	require.NoError(t, err)

	first, err := eng.BookHold(ctx, showID, hold.HoldID)
	require.NoError(t, err)

	// Replays keep returning the original receipt even after time
	// passes, the hold row being long gone.
	clock.Advance(10 * time.Minute)
	for i := 0; i < 3; i++ {
		replay, err := eng.BookHold(ctx, showID, hold.HoldID)
		require.NoError(t, err)
		assert.Equal(t, first.BookingID, replay.BookingID)
		assert.Equal(t, first.SeatIDs, replay.SeatIDs)
		assert.True(t, first.BookedAt.Equal(replay.BookedAt))
	}
}

func TestBookHoldExpired(t *testing.T) {
	eng, clock := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1"})

	hold, err := eng.HoldSeats(ctx, showID, []string{"A1"}, 60)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	_, err = eng.BookHold(ctx, showID, hold.HoldID)
	assert.ErrorIs(t, err, ErrHoldExpired)

	// The failed confirmation released the seat on its way out.
	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AvailableSeats)

	// The hold row is gone, so a retry reports not-found.
	_, err = eng.BookHold(ctx, showID, hold.HoldID)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestBookHoldUnknown(t *testing.T) {
	eng, _ := newTestEngine(t)
	showID := newShow(t, eng, []string{"A1"})
	_, err := eng.BookHold(context.Background(), showID, uuid.NewString())
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestReleaseHold(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1", "A2"})

	hold, err := eng.HoldSeats(ctx, showID, []string{"A1", "A2"}, 120)
	require.NoError(t, err)

	require.NoError(t, eng.ReleaseHold(ctx, showID, hold.HoldID))

	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.AvailableSeats)

	// The second release finds nothing.
	err = eng.ReleaseHold(ctx, showID, hold.HoldID)
	assert.ErrorIs(t, err, ErrHoldNotFound)

	// A released hold cannot be booked.
	_, err = eng.BookHold(ctx, showID, hold.HoldID)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestReapExpired(t *testing.T) {
	eng, clock := newTestEngine(t)
	ctx := context.Background()

	// Clear holds left behind by earlier tests so the reap count
	// below is deterministic.
	_, err := eng.ResetAll(ctx)
	require.NoError(t, err)

	showID := newShow(t, eng, []string{"A1", "A2", "A3"})

	_, err = eng.HoldSeats(ctx, showID, []string{"A1"}, 60)
	require.NoError(t, err)
	_, err = eng.HoldSeats(ctx, showID, []string{"A2"}, 600)
	require.NoError(t, err)

	clock.Advance(120 * time.Second)
	reaped, err := eng.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped, "only the short hold is due")

	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.AvailableSeats)
	assert.Equal(t, 1, report.HeldSeats)
}

func TestConcurrentHoldsSingleWinner(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1"})

	const workers = 10
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = eng.HoldSeats(ctx, showID, []string{"A1"}, 60)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var unavailable *SeatsUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, []string{"A1"}, unavailable.Seats)
	}
	assert.Equal(t, 1, winners, "exactly one hold may win the seat")
}

func TestConcurrentBookAndRelease(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	// Disjoint multi-seat holds booked concurrently must all succeed;
	// overlapping lock order cannot deadlock because seats are always
	// locked in ascending seat_id order.
	seats := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		seats = append(seats, fmt.Sprintf("S%02d", i))
	}
	showID := newShow(t, eng, seats)

	holds := make([]string, 0, 10)
	for i := 0; i < 20; i += 2 {
		h, err := eng.HoldSeats(ctx, showID, []string{seats[i+1], seats[i]}, 120)
		require.NoError(t, err)
		holds = append(holds, h.HoldID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(holds))
	for i, holdID := range holds {
		wg.Add(1)
		go func(i int, holdID string) {
			defer wg.Done()
			_, errs[i] = eng.BookHold(ctx, showID, holdID)
		}(i, holdID)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 20, report.BookedSeats)
}

func TestConcurrentBookAndReleaseSameHold(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	// Book and release race for the same hold.  Both lock the hold
	// row before any seat row, so the pair serializes cleanly: one
	// side wins, the other observes the hold gone.  Any other error
	// here means the lock hierarchy broke (a lock-order inversion
	// surfaces as a store deadlock).
	const rounds = 10
	for i := 0; i < rounds; i++ {
		showID := newShow(t, eng, []string{"A1", "A2"})
		hold, err := eng.HoldSeats(ctx, showID, []string{"A1", "A2"}, 120)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var bookErr, releaseErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, bookErr = eng.BookHold(ctx, showID, hold.HoldID)
		}()
		go func() {
			defer wg.Done()
			releaseErr = eng.ReleaseHold(ctx, showID, hold.HoldID)
		}()
		wg.Wait()

		if bookErr != nil {
			require.ErrorIs(t, bookErr, ErrHoldNotFound, "book may only lose to the release")
		}
		if releaseErr != nil {
			require.ErrorIs(t, releaseErr, ErrHoldNotFound, "release may only lose to the book")
		}
		require.True(t, (bookErr == nil) != (releaseErr == nil), "exactly one side wins")

		report, err := eng.SeatStatus(ctx, showID)
		require.NoError(t, err)
		if bookErr == nil {
			assert.Equal(t, 2, report.BookedSeats)
		} else {
			assert.Equal(t, 2, report.AvailableSeats)
		}
	}
}

func TestBookHoldInvalidatedByExternalMutation(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1", "A2"})

	hold, err := eng.HoldSeats(ctx, showID, []string{"A1", "A2"}, 120)
	require.NoError(t, err)

	// Reassign one seat behind the engine's back, the way a buggy
	// out-of-band writer would.
	_, err = eng.DB().ExecContext(ctx,
		`UPDATE seats SET hold_id = ? WHERE show_id = ? AND seat_id = ?`,
		uuid.NewString(), showID, "A2")
	require.NoError(t, err)

	_, err = eng.BookHold(ctx, showID, hold.HoldID)
	assert.ErrorIs(t, err, ErrHoldInvalidated)

	// The failed confirmation must not have booked the untouched seat.
	report, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.BookedSeats)
}

func TestResetAll(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	showID := newShow(t, eng, []string{"A1", "A2", "A3"})

	hold, err := eng.HoldSeats(ctx, showID, []string{"A1"}, 120)
	require.NoError(t, err)
	_, err = eng.HoldSeats(ctx, showID, []string{"A2"}, 120)
	require.NoError(t, err)
	_, err = eng.BookHold(ctx, showID, hold.HoldID)
	require.NoError(t, err)

	report, err := eng.ResetAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.HoldsCleared, int64(1))
	assert.GreaterOrEqual(t, report.BookingsCleared, int64(1))
	assert.GreaterOrEqual(t, report.SeatsReset, int64(2))

	status, err := eng.SeatStatus(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.AvailableSeats, "show and seat map survive a reset")

	// Receipts from before the reset are dead.
	_, err = eng.BookHold(ctx, showID, hold.HoldID)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}
