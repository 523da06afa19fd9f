package booking

import (
    "context"
    "log"
    "time"
)

// Sweeper periodically runs an expiry sweep.  It is started once from main
// in its own goroutine and stops when its context is cancelled.
type Sweeper struct {
    Interval time.Duration
    Sweep    func(ctx context.Context) (int, error)
}

// NewSweeper builds a Sweeper that drives the engine's SweepExpired at the
// given interval.
func NewSweeper(engine *Engine, interval time.Duration) *Sweeper {
    return &Sweeper{Interval: interval, Sweep: engine.SweepExpired}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// Sweep errors are logged and the loop keeps going; a transient database
// outage must not kill the sweeper for the life of the process.
func (s *Sweeper) Run(ctx context.Context) {
    ticker := time.NewTicker(s.Interval)
    defer ticker.Stop()

    s.sweepOnce(ctx)
    for {
        select {
        case <-ctx.Done():
            log.Println("sweeper: stopped")
            return
        case <-ticker.C:
            s.sweepOnce(ctx)
        }
    }
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
    swept, err := s.Sweep(ctx)
    if err != nil {
        log.Printf("sweeper: sweep failed: %v", err)
        return
    }
    if swept > 0 {
        log.Printf("sweeper: released %d expired reservation(s)", swept)
    }
}
