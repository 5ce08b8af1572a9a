package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/ledger"
	"github.com/coinarena/backend/internal/models"
)

// Request status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// ErrNotPending is returned when an operator acts on a request that has
// already been processed.
var ErrNotPending = errors.New("redemption request is not pending")

// Queue handles cash-out requests. The user's balance is debited the moment
// the request is created, so pending coins cannot be spent twice; the actual
// bank/mobile payout happens out of band.
type Queue struct {
	db        *sqlx.DB
	engine    *ledger.Engine
	auditor   *audit.Logger
	minAmount int64
	maxAmount int64
}

func NewQueue(db *sqlx.DB, engine *ledger.Engine, auditor *audit.Logger, minAmount, maxAmount int64) *Queue {
	return &Queue{db: db, engine: engine, auditor: auditor, minAmount: minAmount, maxAmount: maxAmount}
}

// validateAmount applies the configured cash-out bounds.
func (q *Queue) validateAmount(amount int64) error {
	if amount <= 0 {
		return ledger.ErrInvalidAmount
	}
	if q.minAmount > 0 && amount < q.minAmount {
		return fmt.Errorf("%w: minimum redemption is %d", ledger.ErrInvalidAmount, q.minAmount)
	}
	if q.maxAmount > 0 && amount > q.maxAmount {
		return fmt.Errorf("%w: maximum redemption is %d", ledger.ErrInvalidAmount, q.maxAmount)
	}
	return nil
}

// Request debits the user's wallet into the pool and records a pending
// request referencing the debit, all in one transaction. An insufficient
// balance leaves both the wallet and the journal untouched.
func (q *Queue) Request(ctx context.Context, userID int, amount int64) (*models.RedemptionRequest, error) {
	if err := q.validateAmount(amount); err != nil {
		return nil, err
	}

	tx, err := q.engine.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var walletID int64
	if err := tx.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE owner_user_id = $1`, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: user %d", ledger.ErrUnknownAccount, userID)
		}
		return nil, ledger.MapError(err)
	}

	var poolID int64
	if err := tx.GetContext(ctx, &poolID, `SELECT id FROM wallets WHERE owner_user_id IS NULL`); err != nil {
		return nil, ledger.MapError(err)
	}

	record, events, err := q.engine.TransferTx(ctx, tx, walletID, poolID, amount, ledger.KindRedeem,
		fmt.Sprintf("cash-out request by user %d", userID))
	if err != nil {
		return nil, err
	}

	req := &models.RedemptionRequest{
		UserID:        userID,
		WalletID:      int(walletID),
		Amount:        amount,
		Status:        StatusPending,
		TransactionID: record.ID,
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO redemption_requests (user_id, wallet_id, amount, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, userID, walletID, amount, StatusPending, record.ID).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return nil, ledger.MapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, ledger.MapError(err)
	}

	log.Printf("[REDEEM] Request %d created: user=%d amount=%d txn=%d", req.ID, userID, amount, record.ID)
	q.engine.Publish(ctx, events...)
	return req, nil
}

// Complete marks a pending request fulfilled. The debit already happened at
// request time, so completion has no ledger effect.
func (q *Queue) Complete(ctx context.Context, requestID int, operator string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE redemption_requests
		SET status = $1, processed_at = NOW(), note = 'paid out by ' || $2
		WHERE id = $3 AND status = $4
	`, StatusCompleted, operator, requestID, StatusPending)
	if err != nil {
		return ledger.MapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return q.classifyMiss(ctx, requestID)
	}

	log.Printf("[REDEEM] Request %d completed by %s", requestID, operator)
	q.auditor.Record(audit.CategoryCoins, audit.ActionApprove, operator,
		fmt.Sprintf("redemption request %d paid out", requestID))
	return nil
}

// Reject flips a pending request to rejected and credits the debited amount
// back to the user in the same transaction, so the user never ends up with a
// debited balance and no request outcome.
func (q *Queue) Reject(ctx context.Context, requestID int, operator, reason string) error {
	tx, err := q.engine.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var req models.RedemptionRequest
	err = tx.GetContext(ctx, &req, `
		SELECT id, user_id, wallet_id, amount, status, transaction_id, note, created_at, processed_at
		FROM redemption_requests WHERE id = $1 FOR UPDATE
	`, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: redemption request %d", ledger.ErrUnknownAccount, requestID)
		}
		return ledger.MapError(err)
	}
	if req.Status != StatusPending {
		return fmt.Errorf("%w: request %d is %s", ErrNotPending, requestID, req.Status)
	}

	var poolID int64
	if err := tx.GetContext(ctx, &poolID, `SELECT id FROM wallets WHERE owner_user_id IS NULL`); err != nil {
		return ledger.MapError(err)
	}

	// compensating credit for the debit taken at request time
	_, events, err := q.engine.TransferTx(ctx, tx, poolID, int64(req.WalletID), req.Amount, ledger.KindCredit,
		fmt.Sprintf("redemption request %d rejected: %s", requestID, reason))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE redemption_requests SET status = $1, processed_at = NOW(), note = $2
		WHERE id = $3
	`, StatusRejected, "rejected: "+reason, requestID)
	if err != nil {
		return ledger.MapError(err)
	}

	if err := tx.Commit(); err != nil {
		return ledger.MapError(err)
	}

	log.Printf("[REDEEM] Request %d rejected by %s, %d credited back to user %d", requestID, operator, req.Amount, req.UserID)
	q.engine.Publish(ctx, events...)
	q.auditor.Record(audit.CategoryCoins, audit.ActionReject, operator,
		fmt.Sprintf("redemption request %d rejected (%s), %d refunded", requestID, reason, req.Amount))
	return nil
}

// classifyMiss distinguishes "no such request" from "already processed" after
// a guarded update matched nothing.
func (q *Queue) classifyMiss(ctx context.Context, requestID int) error {
	var status string
	err := q.db.GetContext(ctx, &status, `SELECT status FROM redemption_requests WHERE id = $1`, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: redemption request %d", ledger.ErrUnknownAccount, requestID)
		}
		return ledger.MapError(err)
	}
	return fmt.Errorf("%w: request %d is %s", ErrNotPending, requestID, status)
}

type listRow struct {
	models.RedemptionRequest
	Username   string `db:"username"`
	TotalCount int    `db:"total_count"`
}

// ListItem is a redemption request joined with its owner for the console.
type ListItem struct {
	models.RedemptionRequest
	Username string `json:"username"`
}

// List returns requests newest-first, pending first, with the total match
// count. status "all" (or empty) lists everything.
func (q *Queue) List(status string, limit, offset int) ([]ListItem, int, error) {
	if limit <= 0 {
		limit = 25
	}
	if status == "" {
		status = "all"
	}

	var rows []listRow
	err := q.db.Select(&rows, `
		SELECT rr.id, rr.user_id, rr.wallet_id, rr.amount, rr.status, rr.transaction_id,
			rr.note, rr.created_at, rr.processed_at,
			u.username,
			COUNT(*) OVER() as total_count
		FROM redemption_requests rr
		JOIN users u ON u.id = rr.user_id
		WHERE ($1 = 'all' OR rr.status = $1)
		ORDER BY
			CASE WHEN rr.status = 'pending' THEN 0 ELSE 1 END,
			rr.created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, 0, ledger.MapError(err)
	}

	total := 0
	items := make([]ListItem, 0, len(rows))
	for _, r := range rows {
		total = r.TotalCount
		items = append(items, ListItem{RedemptionRequest: r.RedemptionRequest, Username: r.Username})
	}
	return items, total, nil
}
