package booking

import (
    "errors"
    "testing"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

func TestTotalFareCents(t *testing.T) {
    cases := []struct {
        name  string
        base  int64
        class model.SeatClass
        want  int64
    }{
        {"standard is base fare", 10000, model.SeatStandard, 10000},
        {"vip adds 25 percent", 10000, model.SeatVIP, 12500},
        {"sleeper adds 50 percent", 10000, model.SeatSleeper, 15000},
        {"vip surcharge truncates", 101, model.SeatVIP, 126},
        {"sleeper surcharge truncates", 33, model.SeatSleeper, 49},
        {"zero base stays zero", 0, model.SeatVIP, 0},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got, err := TotalFareCents(tc.base, tc.class)
            if err != nil {
                t.Fatalf("TotalFareCents(%d, %s): %v", tc.base, tc.class, err)
            }
            if got != tc.want {
                t.Fatalf("TotalFareCents(%d, %s) = %d, want %d", tc.base, tc.class, got, tc.want)
            }
        })
    }
}

func TestTotalFareCentsRejectsUnknownClass(t *testing.T) {
    _, err := TotalFareCents(10000, model.SeatClass("ECONOMY"))
    if !errors.Is(err, ErrInvalidSeatClass) {
        t.Fatalf("expected ErrInvalidSeatClass, got %v", err)
    }
}
