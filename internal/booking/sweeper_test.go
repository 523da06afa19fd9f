package booking

import (
    "context"
    "sync/atomic"
    "testing"
    "time"
)

func TestSweeperRunsImmediatelyAndOnTicks(t *testing.T) {
    var sweeps atomic.Int32
    s := &Sweeper{
        Interval: 10 * time.Millisecond,
        Sweep: func(context.Context) (int, error) {
            sweeps.Add(1)
            return 0, nil
        },
    }

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        s.Run(ctx)
        close(done)
    }()

    deadline := time.After(2 * time.Second)
    for sweeps.Load() < 3 {
        select {
        case <-deadline:
            t.Fatalf("expected at least 3 sweeps, got %d", sweeps.Load())
        case <-time.After(5 * time.Millisecond):
        }
    }

    cancel()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("sweeper did not stop after context cancellation")
    }
}

func TestSweeperSurvivesSweepErrors(t *testing.T) {
    var sweeps atomic.Int32
    s := &Sweeper{
        Interval: 5 * time.Millisecond,
        Sweep: func(context.Context) (int, error) {
            sweeps.Add(1)
            return 0, context.DeadlineExceeded
        },
    }

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        s.Run(ctx)
        close(done)
    }()

    deadline := time.After(2 * time.Second)
    for sweeps.Load() < 2 {
        select {
        case <-deadline:
            t.Fatalf("expected the loop to keep sweeping after errors, got %d sweeps", sweeps.Load())
        case <-time.After(5 * time.Millisecond):
        }
    }

    cancel()
    <-done
}
