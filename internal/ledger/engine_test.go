package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestTransferRejectsNonPositiveAmounts(t *testing.T) {
	e := NewEngine(nil, nil, 5000)

	for _, amount := range []int64{0, -1, -500} {
		_, _, err := e.TransferTx(context.Background(), nil, 1, 2, amount, KindCredit, "test")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount=%d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestTransferRejectsSelfTransfer(t *testing.T) {
	e := NewEngine(nil, nil, 5000)

	_, _, err := e.TransferTx(context.Background(), nil, 7, 7, 100, KindDebit, "test")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for self transfer, got %v", err)
	}
}

func TestTransferRejectsUnknownKind(t *testing.T) {
	e := NewEngine(nil, nil, 5000)

	_, _, err := e.TransferTx(context.Background(), nil, 1, 2, 100, Kind("refund"), "test")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for unknown kind, got %v", err)
	}
}

func TestDepositRejectsNonPositiveAmounts(t *testing.T) {
	e := NewEngine(nil, nil, 5000)

	if _, err := e.Deposit(context.Background(), 0, "seed"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"credit", "debit", "win", "redeem"} {
		k, err := ParseKind(valid)
		if err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", valid, err)
		}
		if string(k) != valid {
			t.Errorf("ParseKind(%q) = %q", valid, k)
		}
	}

	for _, invalid := range []string{"", "CREDIT", "refund", "transfer"} {
		if _, err := ParseKind(invalid); err == nil {
			t.Errorf("ParseKind(%q) should have failed", invalid)
		}
	}
}

func TestMapErrorPassesBusinessSentinelsThrough(t *testing.T) {
	sentinels := []error{
		ErrInvalidAmount, ErrInsufficientBalance, ErrUnknownAccount,
		ErrOverAllocation, ErrAlreadyDistributed, ErrLockTimeout, ErrPersistence,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("%w: extra detail", sentinel)
		if got := MapError(wrapped); got != wrapped {
			t.Errorf("MapError rewrapped %v into %v", wrapped, got)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505"}
	if !IsUniqueViolation(dup) {
		t.Error("23505 should be a unique violation")
	}
	if !IsUniqueViolation(fmt.Errorf("insert failed: %w", dup)) {
		t.Error("wrapped 23505 should be a unique violation")
	}

	if IsUniqueViolation(&pq.Error{Code: pgLockNotAvailable}) {
		t.Error("lock timeout is not a unique violation")
	}
	if IsUniqueViolation(errors.New("connection refused")) {
		t.Error("plain errors are not unique violations")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}

func TestMapErrorClassifiesInfrastructureFailures(t *testing.T) {
	if got := MapError(context.DeadlineExceeded); !errors.Is(got, ErrLockTimeout) {
		t.Errorf("deadline exceeded should map to ErrLockTimeout, got %v", got)
	}

	if got := MapError(errors.New("connection refused")); !errors.Is(got, ErrPersistence) {
		t.Errorf("driver error should map to ErrPersistence, got %v", got)
	}

	if got := MapError(nil); got != nil {
		t.Errorf("MapError(nil) = %v", got)
	}
}
