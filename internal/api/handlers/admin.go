package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/coinarena/backend/internal/admin"
	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/config"
)

const adminSessionTTL = 4 * time.Hour
const adminCookieName = "admin_session"

// AdminLogin validates operator credentials and creates a session cookie
func AdminLogin(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		username := strings.TrimSpace(req.Username)
		password := strings.TrimSpace(req.Password)

		// Validate credentials
		if _, err := admin.ValidateOperatorCredentials(db, username, password); err != nil {
			log.Printf("[ADMIN] Login failed for username %s: %v", username, err)
			auditor.Record(audit.CategoryUser, audit.ActionLogin, username, "login failed from "+c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		// Generate session token
		tokenBytes := make([]byte, 32)
		if _, err := rand.Read(tokenBytes); err != nil {
			log.Printf("[ADMIN] Failed to generate session token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}
		sessionToken := hex.EncodeToString(tokenBytes)

		// Store session in Redis
		ctx := context.Background()
		sessionKey := fmt.Sprintf("admin_session:%s", sessionToken)
		sessionData := map[string]interface{}{
			"username":   username,
			"expires_at": time.Now().Add(adminSessionTTL).Unix(),
		}
		sessionJSON, _ := json.Marshal(sessionData)
		if err := rdb.Set(ctx, sessionKey, sessionJSON, adminSessionTTL).Err(); err != nil {
			log.Printf("[ADMIN] Failed to store session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		// Set HTTP-only cookie
		secure := cfg.Environment == "production"
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookieName, sessionToken, int(adminSessionTTL.Seconds()), "/api/v1", "", secure, true)

		auditor.Record(audit.CategoryUser, audit.ActionLogin, username, "operator logged in from "+c.ClientIP())
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminLogout clears the operator session
func AdminLogout(rdb *redis.Client, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookieName)
		if err == nil && token != "" {
			ctx := context.Background()
			sessionKey := fmt.Sprintf("admin_session:%s", token)
			rdb.Del(ctx, sessionKey)
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookieName, "", -1, "/api/v1", "", false, true)
		auditor.Record(audit.CategoryUser, audit.ActionLogout, c.GetString("operator"), "operator logged out")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminMe returns the current operator session info
func AdminMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("operator")
		c.JSON(http.StatusOK, gin.H{"username": username})
	}
}

// AdminSessionMiddleware validates the operator session from the cookie
func AdminSessionMiddleware(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookieName)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		// Validate session in Redis
		ctx := context.Background()
		sessionKey := fmt.Sprintf("admin_session:%s", token)
		sessionJSON, err := rdb.Get(ctx, sessionKey).Result()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		var sessionData map[string]interface{}
		if err := json.Unmarshal([]byte(sessionJSON), &sessionData); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			c.Abort()
			return
		}

		if username, ok := sessionData["username"].(string); ok {
			c.Set("operator", username)
		}

		c.Next()
	}
}
