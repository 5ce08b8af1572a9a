package redemption

import (
	"errors"
	"testing"

	"github.com/coinarena/backend/internal/ledger"
)

func TestValidateAmountRejectsNonPositive(t *testing.T) {
	q := NewQueue(nil, nil, nil, 0, 0)

	for _, amount := range []int64{0, -1, -500} {
		if err := q.validateAmount(amount); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("amount=%d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestValidateAmountEnforcesBounds(t *testing.T) {
	q := NewQueue(nil, nil, nil, 100, 100000)

	if err := q.validateAmount(99); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("below minimum should be rejected, got %v", err)
	}
	if err := q.validateAmount(100001); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("above maximum should be rejected, got %v", err)
	}
	for _, ok := range []int64{100, 500, 100000} {
		if err := q.validateAmount(ok); err != nil {
			t.Errorf("amount=%d should be accepted, got %v", ok, err)
		}
	}
}

func TestValidateAmountUnboundedWhenUnconfigured(t *testing.T) {
	q := NewQueue(nil, nil, nil, 0, 0)

	if err := q.validateAmount(1); err != nil {
		t.Errorf("no bounds configured, 1 should pass: %v", err)
	}
	if err := q.validateAmount(1 << 40); err != nil {
		t.Errorf("no bounds configured, large amounts pass: %v", err)
	}
}
