package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/coinarena/backend/internal/models"
	"github.com/coinarena/backend/internal/notify"
)

// pgLockNotAvailable is raised when lock_timeout expires while waiting
// for a row lock.
const pgLockNotAvailable = "55P03"

// pgUniqueViolation is raised when an insert loses a race on a unique
// constraint.
const pgUniqueViolation = "23505"

// Engine is the only write path into wallet balances. Every transfer locks
// both wallet rows (FOR UPDATE, in id order), checks the source balance,
// updates both balances and appends the journal row inside one database
// transaction. Nothing outside that transaction ever observes a half-applied
// transfer.
type Engine struct {
	db            *sqlx.DB
	notifier      *notify.Notifier
	lockTimeoutMS int
}

func NewEngine(db *sqlx.DB, notifier *notify.Notifier, lockTimeoutMS int) *Engine {
	if lockTimeoutMS <= 0 {
		lockTimeoutMS = 5000
	}
	return &Engine{db: db, notifier: notifier, lockTimeoutMS: lockTimeoutMS}
}

type lockedWallet struct {
	ID          int64         `db:"id"`
	OwnerUserID sql.NullInt64 `db:"owner_user_id"`
	Balance     int64         `db:"balance"`
}

func (w *lockedWallet) accountKey() string {
	if !w.OwnerUserID.Valid {
		return notify.AccountKey(nil)
	}
	return notify.AccountKey(&w.OwnerUserID.Int64)
}

// BeginTx opens a transaction with the engine's lock wait bound applied, so
// composed operations (redemptions, prize payouts) inherit the same bounded
// wait as plain transfers.
func (e *Engine) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, MapError(err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeoutMS)); err != nil {
		tx.Rollback()
		return nil, MapError(err)
	}
	return tx, nil
}

// Transfer atomically moves amount from one wallet to another and appends the
// matching journal entry. On success it publishes a change event for both
// sides, after commit, off the lock's critical path.
func (e *Engine) Transfer(ctx context.Context, fromWalletID, toWalletID int64, amount int64, kind Kind, description string) (*models.Transaction, error) {
	tx, err := e.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	record, events, err := e.TransferTx(ctx, tx, fromWalletID, toWalletID, amount, kind, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, MapError(err)
	}

	e.Publish(ctx, events...)
	return record, nil
}

// TransferTx is the composable core of Transfer: it performs the locked
// debit/credit/journal triple inside the caller's transaction and returns the
// change events to publish once the caller commits. No event may be published
// before the commit succeeds.
func (e *Engine) TransferTx(ctx context.Context, tx *sqlx.Tx, fromWalletID, toWalletID int64, amount int64, kind Kind, description string) (*models.Transaction, []notify.Event, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if fromWalletID == toWalletID {
		return nil, nil, fmt.Errorf("%w: transfer to self", ErrInvalidAmount)
	}

	// Lock both wallets in id order so concurrent transfers over the same
	// pair cannot deadlock.
	var rows []lockedWallet
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, owner_user_id, balance FROM wallets
		WHERE id IN ($1, $2)
		ORDER BY id
		FOR UPDATE
	`, fromWalletID, toWalletID)
	if err != nil {
		return nil, nil, MapError(err)
	}

	var from, to *lockedWallet
	for i := range rows {
		if rows[i].ID == fromWalletID {
			from = &rows[i]
		}
		if rows[i].ID == toWalletID {
			to = &rows[i]
		}
	}
	if from == nil || to == nil {
		return nil, nil, ErrUnknownAccount
	}

	if from.Balance < amount {
		return nil, nil, fmt.Errorf("%w: wallet %d holds %d, needs %d", ErrInsufficientBalance, from.ID, from.Balance, amount)
	}

	newFromBalance := from.Balance - amount
	newToBalance := to.Balance + amount

	if _, err := tx.ExecContext(ctx, `UPDATE wallets SET balance=$1, updated_at=NOW() WHERE id=$2`, newFromBalance, from.ID); err != nil {
		return nil, nil, MapError(err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE wallets SET balance=$1, updated_at=NOW() WHERE id=$2`, newToBalance, to.ID); err != nil {
		return nil, nil, MapError(err)
	}

	record := &models.Transaction{
		FromWalletID: sql.NullInt64{Int64: from.ID, Valid: true},
		ToWalletID:   to.ID,
		Amount:       amount,
		Kind:         string(kind),
		Description:  description,
		Status:       StatusCompleted,
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (from_wallet_id, to_wallet_id, amount, kind, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`, from.ID, to.ID, amount, string(kind), description, StatusCompleted).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, nil, MapError(err)
	}

	log.Printf("[LEDGER] Transfer committed: txn=%d from=%d to=%d amount=%d kind=%s", record.ID, from.ID, to.ID, amount, kind)

	events := []notify.Event{
		{Account: from.accountKey(), WalletID: from.ID, Balance: newFromBalance, Delta: -amount, TransactionID: record.ID, Kind: string(kind), CreatedAt: record.CreatedAt},
		{Account: to.accountKey(), WalletID: to.ID, Balance: newToBalance, Delta: amount, TransactionID: record.ID, Kind: string(kind), CreatedAt: record.CreatedAt},
	}
	return record, events, nil
}

// Deposit is the external entry point into the conservation invariant: it
// grows the operator pool without debiting any wallet. The journal row has a
// NULL source to mark the amount as having entered from outside the ledger.
func (e *Engine) Deposit(ctx context.Context, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := e.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var pool lockedWallet
	err = tx.GetContext(ctx, &pool, `SELECT id, owner_user_id, balance FROM wallets WHERE owner_user_id IS NULL FOR UPDATE`)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownAccount
		}
		return nil, MapError(err)
	}

	newBalance := pool.Balance + amount
	if _, err := tx.ExecContext(ctx, `UPDATE wallets SET balance=$1, updated_at=NOW() WHERE id=$2`, newBalance, pool.ID); err != nil {
		return nil, MapError(err)
	}

	record := &models.Transaction{
		ToWalletID:  pool.ID,
		Amount:      amount,
		Kind:        string(KindCredit),
		Description: description,
		Status:      StatusCompleted,
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (from_wallet_id, to_wallet_id, amount, kind, description, status, created_at)
		VALUES (NULL, $1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, pool.ID, amount, string(KindCredit), description, StatusCompleted).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, MapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, MapError(err)
	}

	log.Printf("[LEDGER] External deposit committed: txn=%d amount=%d pool_balance=%d", record.ID, amount, newBalance)
	e.Publish(ctx, notify.Event{
		Account: notify.AccountKey(nil), WalletID: pool.ID, Balance: newBalance,
		Delta: amount, TransactionID: record.ID, Kind: string(KindCredit), CreatedAt: record.CreatedAt,
	})
	return record, nil
}

// Publish fans out change events for an already-committed operation.
func (e *Engine) Publish(ctx context.Context, events ...notify.Event) {
	// detach from the request context so a cancelled caller cannot drop
	// events for a transfer that did commit
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	e.notifier.Publish(pubCtx, events...)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Callers whose pre-checks race against a concurrent insert use
// this to surface a conflict instead of a generic persistence failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// MapError classifies driver-level failures into the ledger taxonomy.
// Business-rule sentinels pass through untouched so callers can match them
// with errors.Is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		ErrInvalidAmount, ErrInsufficientBalance, ErrUnknownAccount,
		ErrOverAllocation, ErrAlreadyDistributed, ErrLockTimeout, ErrPersistence,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
