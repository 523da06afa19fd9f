package booking

import (
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func scheduledTrip(departsIn time.Duration) *model.Trip {
    return &model.Trip{
        ID:        1,
        Status:    model.TripScheduled,
        DepartsAt: testNow.Add(departsIn),
    }
}

func TestCheckBookable(t *testing.T) {
    cases := []struct {
        name string
        trip *model.Trip
        want error
    }{
        {"well before departure", scheduledTrip(48 * time.Hour), nil},
        {"just outside the lead", scheduledTrip(2*time.Hour + time.Minute), nil},
        {"inside the two hour lead", scheduledTrip(90 * time.Minute), ErrBookingWindowClosed},
        {"already departed", scheduledTrip(-time.Hour), ErrBookingWindowClosed},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            err := checkBookable(tc.trip, testNow)
            if !errors.Is(err, tc.want) {
                t.Fatalf("checkBookable = %v, want %v", err, tc.want)
            }
        })
    }
}

func TestCheckBookableRejectsNonScheduledTrip(t *testing.T) {
    for _, status := range []model.TripStatus{model.TripInProgress, model.TripCompleted, model.TripCancelled} {
        trip := scheduledTrip(48 * time.Hour)
        trip.Status = status
        if err := checkBookable(trip, testNow); !errors.Is(err, ErrTripNotBookable) {
            t.Fatalf("status %s: expected ErrTripNotBookable, got %v", status, err)
        }
    }
}

func TestCheckCancellable(t *testing.T) {
    if err := checkCancellable(testNow.Add(3*time.Hour), testNow); err != nil {
        t.Fatalf("three hours out should be cancellable, got %v", err)
    }
    if err := checkCancellable(testNow.Add(time.Hour), testNow); !errors.Is(err, ErrCancelWindowClosed) {
        t.Fatalf("one hour out: expected ErrCancelWindowClosed, got %v", err)
    }
}

func TestCheckCancelAllowed(t *testing.T) {
    cases := []struct {
        status model.ReservationStatus
        want   error
    }{
        {model.ReservationPending, nil},
        {model.ReservationConfirmed, nil},
        {model.ReservationCancelled, ErrAlreadyCancelled},
        {model.ReservationCompleted, ErrAlreadyCompleted},
    }
    for _, tc := range cases {
        if err := checkCancelAllowed(tc.status); !errors.Is(err, tc.want) {
            t.Fatalf("status %s: checkCancelAllowed = %v, want %v", tc.status, err, tc.want)
        }
    }
}

func TestIsExpired(t *testing.T) {
    farDeparture := testNow.Add(72 * time.Hour)
    cases := []struct {
        name      string
        createdAt time.Time
        departsAt time.Time
        want      bool
    }{
        {"fresh reservation", testNow.Add(-time.Hour), farDeparture, false},
        {"just under 24h old", testNow.Add(-24*time.Hour + time.Minute), farDeparture, false},
        {"over 24h old", testNow.Add(-25 * time.Hour), farDeparture, true},
        {"departure 29 minutes away", testNow.Add(-time.Hour), testNow.Add(29 * time.Minute), true},
        {"departure 31 minutes away", testNow.Add(-time.Hour), testNow.Add(31 * time.Minute), false},
        {"departure already passed", testNow.Add(-time.Hour), testNow.Add(-time.Minute), true},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := isExpired(tc.createdAt, tc.departsAt, testNow); got != tc.want {
                t.Fatalf("isExpired = %v, want %v", got, tc.want)
            }
        })
    }
}
