package booking

import "github.com/iliyamo/bus-trip-reservation/internal/model"

// Seat-class surcharges in percent of the base fare.  VIP seats cost a
// quarter extra, sleeper berths half extra.
const (
    vipSurchargePct     = 25
    sleeperSurchargePct = 50
)

// TotalFareCents returns the full price of a seat: the trip's base fare
// plus the class surcharge, in cents.  Integer math throughout; the
// surcharge truncates toward zero, so a 101-cent base fare with VIP class
// yields 126 cents, not 126.25.
func TotalFareCents(baseCents int64, class model.SeatClass) (int64, error) {
    switch class {
    case model.SeatStandard:
        return baseCents, nil
    case model.SeatVIP:
        return baseCents + baseCents*vipSurchargePct/100, nil
    case model.SeatSleeper:
        return baseCents + baseCents*sleeperSurchargePct/100, nil
    default:
        return 0, ErrInvalidSeatClass
    }
}
