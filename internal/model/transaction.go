package model

import "time"

// Transaction is a ledger entry recording one settlement attempt against a
// reservation.  Payments carry a positive amount, refunds a negative one.
// Failed attempts stay in the ledger with their failure reason; only the
// status field may change after creation.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation this entry settles or refunds.
//  Kind          – PAYMENT or REFUND.
//  Status        – settlement state (PENDING, COMPLETED, FAILED).
//  AmountCents   – signed amount in cents; refunds are negative.
//  PaymentRef    – unique reference string for reconciliation.
//  Method        – payment method used (card, cash, transfer).
//  FailureReason – provider decline reason, nil unless status is FAILED.
//  RefundOf      – for refunds, the ID of the payment being reversed.
type Transaction struct {
    ID            uint64            // transactions.id
    ReservationID uint64            // transactions.reservation_id
    Kind          TransactionKind   // transactions.kind
    Status        TransactionStatus // transactions.status
    AmountCents   int64             // transactions.amount_cents
    PaymentRef    string            // transactions.payment_ref
    Method        string            // transactions.method
    FailureReason *string           // transactions.failure_reason (nullable)
    RefundOf      *uint64           // transactions.refund_of (nullable)
    CreatedAt     time.Time         // transactions.created_at
    UpdatedAt     time.Time         // transactions.updated_at
}
