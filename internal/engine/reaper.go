package engine

import (
	"context"
	"log"
	"time"
)

// Reaper periodically reclaims expired holds.  One instance runs per
// process, on its own store handle so it never queues behind request
// traffic for a connection.  A second reaper elsewhere is harmless; it
// would contend on the same row locks.
type Reaper struct {
	engine   *Engine
	interval time.Duration
}

// Tick bounds from the operational contract: a reaper that spins
// faster than once a second hammers the store for nothing, and one
// slower than a minute lets holds linger far past their deadline.
const (
	minReapInterval = time.Second
	maxReapInterval = time.Minute
)

// NewReaper constructs a Reaper around the given engine.  The interval
// is clamped to [1s, 60s].
func NewReaper(engine *Engine, interval time.Duration) *Reaper {
	if interval < minReapInterval {
		interval = minReapInterval
	}
	if interval > maxReapInterval {
		interval = maxReapInterval
	}
	return &Reaper{engine: engine, interval: interval}
}

// Run loops until ctx is cancelled, reclaiming expired holds once per
// interval.  Store errors are logged and retried on the next tick;
// they never terminate the loop.  An in-flight tick finishes before
// Run returns.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	log.Printf("reaper: started (interval=%s)", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("reaper: stopping")
			return
		case <-ticker.C:
			reclaimed, err := r.engine.ReapExpired(context.Background())
			if err != nil {
				log.Printf("reaper: tick failed: %v", err)
				continue
			}
			if reclaimed > 0 {
				log.Printf("reaper: reclaimed %d expired holds", reclaimed)
			}
		}
	}
}
