package ledger

import "fmt"

// Kind is the closed set of journal entry kinds.
type Kind string

const (
	KindCredit Kind = "credit" // pool -> user grant
	KindDebit  Kind = "debit"  // user -> pool deduction (incl. entry fees)
	KindWin    Kind = "win"    // pool -> user prize payout
	KindRedeem Kind = "redeem" // user -> pool cash-out debit
)

// ParseKind validates a wire-level kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCredit, KindDebit, KindWin, KindRedeem:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invalid transaction kind %q", s)
}

// Transaction status values. The journal is append-only; a failed operation
// writes nothing, so almost every row is completed.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)
