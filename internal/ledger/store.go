package ledger

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/models"
)

// EnsurePool returns the operator pool wallet, creating it with the seed
// balance at first boot. Exactly one pool row exists (owner_user_id IS NULL);
// a concurrent create loses on the partial unique index and re-reads.
func EnsurePool(db *sqlx.DB, seedBalance int64) (*models.Wallet, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var w models.Wallet
	err := db.Get(&w, `SELECT id, owner_user_id, balance, created_at, updated_at FROM wallets WHERE owner_user_id IS NULL`)
	if err == nil {
		return &w, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if _, err := db.Exec(`INSERT INTO wallets (balance, created_at, updated_at) VALUES ($1, NOW(), NOW()) ON CONFLICT DO NOTHING`, seedBalance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log.Printf("[LEDGER] Operator pool created with seed balance %d", seedBalance)

	if err := db.Get(&w, `SELECT id, owner_user_id, balance, created_at, updated_at FROM wallets WHERE owner_user_id IS NULL`); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &w, nil
}

// PoolWalletID looks up the operator pool wallet id.
func PoolWalletID(db *sqlx.DB) (int, error) {
	var id int
	if err := db.Get(&id, `SELECT id FROM wallets WHERE owner_user_id IS NULL`); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrUnknownAccount
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return id, nil
}

// GetOrCreateWallet returns the wallet for a user, creating it if missing.
// Wallets are normally created together with the user row; this covers
// accounts that predate the ledger.
func GetOrCreateWallet(db *sqlx.DB, userID int) (*models.Wallet, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var w models.Wallet
	if err := db.Get(&w, `SELECT id, owner_user_id, balance, created_at, updated_at FROM wallets WHERE owner_user_id=$1`, userID); err == nil {
		return &w, nil
	}
	// create
	if _, err := db.Exec(`INSERT INTO wallets (owner_user_id, balance, created_at, updated_at) VALUES ($1, 0, NOW(), NOW()) ON CONFLICT (owner_user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := db.Get(&w, `SELECT id, owner_user_id, balance, created_at, updated_at FROM wallets WHERE owner_user_id=$1`, userID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &w, nil
}

// GetWallet fetches a wallet by id (no lock; suitable for reads).
func GetWallet(db *sqlx.DB, walletID int) (*models.Wallet, error) {
	var w models.Wallet
	if err := db.Get(&w, `SELECT id, owner_user_id, balance, created_at, updated_at FROM wallets WHERE id=$1`, walletID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &w, nil
}

// GetWalletByUser fetches a user's wallet without creating it.
func GetWalletByUser(db *sqlx.DB, userID int) (*models.Wallet, error) {
	var w models.Wallet
	if err := db.Get(&w, `SELECT id, owner_user_id, balance, created_at, updated_at FROM wallets WHERE owner_user_id=$1`, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &w, nil
}
