package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/config"
	"github.com/coinarena/backend/internal/ledger"
)

// Register creates a user account together with its wallet and issues a JWT.
// The session layer in front of the ledger calls this when an account is
// provisioned; the wallet's lifetime is tied 1:1 to the user row.
func Register(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username    string `json:"username" binding:"required"`
			DisplayName string `json:"display_name"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}

		username := strings.TrimSpace(req.Username)
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}

		var userID int
		err := db.Get(&userID, `SELECT id FROM users WHERE username=$1`, username)
		if err != nil {
			// create user
			if _, err2 := db.Exec(`INSERT INTO users (username, display_name, created_at) VALUES ($1, $2, NOW()) ON CONFLICT (username) DO NOTHING`, username, req.DisplayName); err2 != nil {
				log.Printf("[AUTH] Failed to create user %s: %v", username, err2)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			if err := db.Get(&userID, `SELECT id FROM users WHERE username=$1`, username); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
		}

		// wallet is created together with the account
		wallet, err := ledger.GetOrCreateWallet(db, userID)
		if err != nil {
			log.Printf("[AUTH] Failed to create wallet for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		// Issue JWT
		exp := time.Now().Add(24 * time.Hour)
		claims := jwt.MapClaims{"user_id": userID, "username": username, "exp": exp.Unix()}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": signed,
			"user":  gin.H{"id": userID, "username": username},
			"wallet": gin.H{
				"id":      wallet.ID,
				"balance": wallet.Balance,
			},
		})
	}
}

// UserAuthMiddleware validates the bearer JWT supplied by the session layer
// and attaches the trusted actor identity. The ledger never re-authenticates.
func UserAuthMiddleware(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		userID := int(userIDFloat)

		var banned bool
		if err := db.Get(&banned, `SELECT is_banned FROM users WHERE id=$1`, userID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			c.Abort()
			return
		}
		if banned {
			c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		if username, ok := claims["username"].(string); ok {
			c.Set("username", username)
		}
		c.Next()
	}
}
