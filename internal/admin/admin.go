package admin

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/coinarena/backend/internal/models"
)

// GetOperatorAccount retrieves an operator account by username
func GetOperatorAccount(db *sqlx.DB, username string) (*models.Operator, error) {
	var op models.Operator
	err := db.Get(&op, `SELECT username, display_name, password_hash, created_at, updated_at FROM operator_accounts WHERE username=$1`, username)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// VerifyOperatorPassword checks if the provided password matches the stored hash
func VerifyOperatorPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// CreateOperatorAccount creates a new operator account (used for seeding/testing)
func CreateOperatorAccount(db *sqlx.DB, username, displayName, plainPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO operator_accounts (username, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			password_hash = EXCLUDED.password_hash,
			updated_at = NOW()
	`, username, displayName, string(hashedPassword))

	return err
}

// ValidateOperatorCredentials validates username + password combination
func ValidateOperatorCredentials(db *sqlx.DB, username, password string) (*models.Operator, error) {
	op, err := GetOperatorAccount(db, username)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[ADMIN] No operator account found for username: %s", username)
			return nil, fmt.Errorf("operator account not found")
		}
		log.Printf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyOperatorPassword(op.PasswordHash, password) {
		log.Printf("[ADMIN] Password verification failed for username: %s", username)
		return nil, fmt.Errorf("invalid password")
	}

	return op, nil
}
