// Package queue defines the message payloads exchanged over the broker and
// the background consumer that processes them.
package queue

// ReservationConfirmedEvent is published after a payment settles and its
// reservation flips to CONFIRMED.  It carries enough detail for downstream
// consumers to log, notify or feed analytics without querying the primary
// database.
type ReservationConfirmedEvent struct {
    EventID       string `json:"event_id"`
    ReservationID uint64 `json:"reservation_id"`
    Code          string `json:"code"`
    UserID        uint64 `json:"user_id"`
    TripID        uint64 `json:"trip_id"`
    Origin        string `json:"origin"`
    Destination   string `json:"destination"`
    DepartsAt     string `json:"departs_at"`
    SeatNumber    uint32 `json:"seat_number"`
    SeatClass     string `json:"seat_class"`
    AmountCents   int64  `json:"amount_cents"`
    PaymentRef    string `json:"payment_ref"`
    ConfirmedAt   string `json:"confirmed_at"`
}
