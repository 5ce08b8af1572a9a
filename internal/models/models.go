package models

import (
	"database/sql"
	"time"
)

// User represents a registered account. The wallet row is created together
// with the user and lives exactly as long as it does.
type User struct {
	ID          int            `db:"id" json:"id"`
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	IsBanned    bool           `db:"is_banned" json:"is_banned"`
	BanReason   sql.NullString `db:"ban_reason" json:"ban_reason,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Wallet holds a single balance. The operator pool is the one row with
// owner_user_id NULL; every other row belongs to exactly one user.
type Wallet struct {
	ID          int           `db:"id" json:"id"`
	OwnerUserID sql.NullInt64 `db:"owner_user_id" json:"owner_user_id,omitempty"`
	Balance     int64         `db:"balance" json:"balance"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only journal entry. A NULL from_wallet_id marks
// an external deposit into the pool; rows are never updated after insert.
type Transaction struct {
	ID           int64         `db:"id" json:"id"`
	FromWalletID sql.NullInt64 `db:"from_wallet_id" json:"from_wallet_id,omitempty"`
	ToWalletID   int64         `db:"to_wallet_id" json:"to_wallet_id"`
	Amount       int64         `db:"amount" json:"amount"`
	Kind         string        `db:"kind" json:"kind"`
	Description  string        `db:"description" json:"description,omitempty"`
	Status       string        `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// RedemptionRequest tracks a cash-out. The debit transaction is written when
// the request is created; completion/rejection is a later operator action.
type RedemptionRequest struct {
	ID            int           `db:"id" json:"id"`
	UserID        int           `db:"user_id" json:"user_id"`
	WalletID      int           `db:"wallet_id" json:"wallet_id"`
	Amount        int64         `db:"amount" json:"amount"`
	Status        string        `db:"status" json:"status"`
	TransactionID int64         `db:"transaction_id" json:"transaction_id"`
	Note          sql.NullString `db:"note" json:"note,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	ProcessedAt   sql.NullTime  `db:"processed_at" json:"processed_at,omitempty"`
}

// AuditEntry records an administrative action, separate from the journal.
type AuditEntry struct {
	ID        int64     `db:"id" json:"id"`
	Category  string    `db:"category" json:"category"`
	Action    string    `db:"action" json:"action"`
	Actor     string    `db:"actor" json:"actor"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Team holds no wallet of its own; prizes credit the captain's wallet.
type Team struct {
	ID            int       `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	CaptainUserID int       `db:"captain_user_id" json:"captain_user_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Tournament carries the prize configuration used at distribution time.
type Tournament struct {
	ID               int           `db:"id" json:"id"`
	Name             string        `db:"name" json:"name"`
	EntryFee         int64         `db:"entry_fee" json:"entry_fee"`
	PrizePool        int64         `db:"prize_pool" json:"prize_pool"`
	SplitMode        string        `db:"split_mode" json:"split_mode"`
	FirstAmount      int64         `db:"first_amount" json:"first_amount"`
	SecondAmount     int64         `db:"second_amount" json:"second_amount"`
	ThirdAmount      int64         `db:"third_amount" json:"third_amount"`
	WinnersDeclared  bool          `db:"winners_declared" json:"winners_declared"`
	DeclaredAt       sql.NullTime  `db:"declared_at" json:"declared_at,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// TournamentEntry records a paid entry fee. The transaction reference is
// NULL for free tournaments.
type TournamentEntry struct {
	ID            int           `db:"id" json:"id"`
	TournamentID  int           `db:"tournament_id" json:"tournament_id"`
	UserID        int           `db:"user_id" json:"user_id"`
	TransactionID sql.NullInt64 `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// RuntimeConfig is a typed key/value override editable from the console.
type RuntimeConfig struct {
	Key         string       `db:"key" json:"key"`
	Value       string       `db:"value" json:"value"`
	ValueType   string       `db:"value_type" json:"value_type"`
	Description string       `db:"description" json:"description"`
	UpdatedBy   string       `db:"updated_by" json:"updated_by"`
	UpdatedAt   sql.NullTime `db:"updated_at" json:"updated_at,omitempty"`
}

// Operator is a console account allowed to move coins directly.
type Operator struct {
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
