package payment

import "testing"

const testCeiling = int64(1_000_000)

func TestSettleCard(t *testing.T) {
    if decline := settleCard("4539148803436467", 50_000, testCeiling); decline != nil {
        t.Fatalf("ordinary charge declined: %v", decline)
    }
    if decline := settleCard("4539148803436467", testCeiling, testCeiling); decline != nil {
        t.Fatalf("charge at the ceiling declined: %v", decline)
    }
    if decline := settleCard("4539148803436467", testCeiling+1, testCeiling); decline == nil {
        t.Fatal("charge above the ceiling should decline")
    } else if decline.Reason != reasonInsufficientFunds {
        t.Fatalf("expected insufficient funds, got %q", decline.Reason)
    }
}

func TestSettleCardDenyList(t *testing.T) {
    for _, number := range []string{"4111111111111111", "4000000000000002"} {
        decline := settleCard(number, 100, testCeiling)
        if decline == nil {
            t.Fatalf("deny-listed card %s was not declined", number)
        }
        if decline.Reason != reasonCardDenied {
            t.Fatalf("card %s: expected deny reason, got %q", number, decline.Reason)
        }
    }
}

func TestSettleTransfer(t *testing.T) {
    if decline := settleTransfer("123456789"); decline != nil {
        t.Fatalf("ordinary transfer declined: %v", decline)
    }
    if decline := settleTransfer("000123456"); decline == nil {
        t.Fatal("transfer from a 000-prefixed account should decline")
    } else if decline.Reason != reasonOriginRejected {
        t.Fatalf("expected origin rejection, got %q", decline.Reason)
    }
}
