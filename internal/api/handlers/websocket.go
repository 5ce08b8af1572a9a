package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/ledger"
	"github.com/coinarena/backend/internal/notify"
	"github.com/coinarena/backend/internal/ws"
)

// HandleWalletSocket streams balance updates for the caller's own wallet.
// The current balance is pushed first so the client never starts blind.
func HandleWalletSocket(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("user_id")

		wallet, err := ledger.GetWalletByUser(db, userID)
		if err != nil {
			respondLedgerError(c, err)
			return
		}

		uid := int64(userID)
		account := notify.AccountKey(&uid)
		snapshot := map[string]interface{}{
			"type":      "snapshot",
			"account":   account,
			"wallet_id": wallet.ID,
			"balance":   wallet.Balance,
		}
		ws.HandleSubscription(c.Writer, c.Request, account, snapshot)
	}
}

// HandlePoolSocket streams balance updates for the operator pool
func HandlePoolSocket(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poolID, err := ledger.PoolWalletID(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pool wallet unavailable"})
			return
		}

		var balance int64
		if err := db.Get(&balance, `SELECT balance FROM wallets WHERE id=$1`, poolID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pool wallet unavailable"})
			return
		}

		account := notify.AccountKey(nil)
		snapshot := map[string]interface{}{
			"type":      "snapshot",
			"account":   account,
			"wallet_id": poolID,
			"balance":   balance,
		}
		ws.HandleSubscription(c.Writer, c.Request, account, snapshot)
	}
}
