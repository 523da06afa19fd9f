package payment

import (
    "fmt"
    "strings"
)

// DeclineError is returned when a structurally valid settlement attempt is
// refused by the simulated provider.  Declines are business outcomes, not
// faults: the attempt is still recorded in the ledger as FAILED with the
// reason.
type DeclineError struct {
    Reason string
}

func (e *DeclineError) Error() string {
    return fmt.Sprintf("payment declined: %s", e.Reason)
}

// Decline reasons the simulated provider can produce.
const (
    reasonCardDenied        = "card reported stolen or blocked"
    reasonInsufficientFunds = "insufficient funds"
    reasonOriginRejected    = "origin account rejected by issuing bank"
)

// deniedCards simulates a card network deny list.  These numbers pass the
// checksum but always decline.
var deniedCards = map[string]struct{}{
    "4111111111111111": {},
    "4000000000000002": {},
}

// settleCard simulates authorizing a card charge.  Deny-listed cards always
// decline; charges above ceilingCents decline as insufficient funds.
func settleCard(number string, amountCents, ceilingCents int64) *DeclineError {
    if _, denied := deniedCards[number]; denied {
        return &DeclineError{Reason: reasonCardDenied}
    }
    if amountCents > ceilingCents {
        return &DeclineError{Reason: reasonInsufficientFunds}
    }
    return nil
}

// settleTransfer simulates a bank transfer.  Origin accounts starting with
// "000" belong to the simulated failing bank and always decline.
func settleTransfer(originAccount string) *DeclineError {
    if strings.HasPrefix(originAccount, "000") {
        return &DeclineError{Reason: reasonOriginRejected}
    }
    return nil
}
