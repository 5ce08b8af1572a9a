package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/ledger"
)

// GetWalletBalance returns a user's current balance. Users may read their own
// wallet; operators may read any.
func GetWalletBalance(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		// non-operators may only read their own wallet
		if c.GetString("operator") == "" {
			if callerID, exists := c.Get("user_id"); !exists || callerID.(int) != userID {
				c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's wallet"})
				return
			}
		}

		wallet, err := ledger.GetWalletByUser(db, userID)
		if err != nil {
			respondLedgerError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"wallet_id":  wallet.ID,
			"user_id":    userID,
			"balance":    wallet.Balance,
			"updated_at": wallet.UpdatedAt,
		})
	}
}

// GetPoolBalance returns the operator pool balance
func GetPoolBalance(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poolID, err := ledger.PoolWalletID(db)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		wallet, err := ledger.GetWallet(db, poolID)
		if err != nil {
			respondLedgerError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"wallet_id":  wallet.ID,
			"balance":    wallet.Balance,
			"updated_at": wallet.UpdatedAt,
		})
	}
}

// PoolDeposit credits the operator pool from outside the ledger. This is the
// external entry point of the conservation invariant.
func PoolDeposit(engine *ledger.Engine, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")

		var req struct {
			Amount      int64  `json:"amount" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
			return
		}
		if req.Description == "" {
			req.Description = "external deposit by " + operator
		}

		record, err := engine.Deposit(c.Request.Context(), req.Amount, req.Description)
		if err != nil {
			log.Printf("[ADMIN] Pool deposit by %s failed: %v", operator, err)
			respondLedgerError(c, err)
			return
		}

		auditor.Record(audit.CategoryCoins, audit.ActionDeposit, operator,
			"deposited "+strconv.FormatInt(req.Amount, 10)+" into the pool")
		c.JSON(http.StatusOK, gin.H{"transaction": record})
	}
}
