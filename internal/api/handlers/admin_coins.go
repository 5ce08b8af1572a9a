package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/ledger"
)

// AdminTransferCoins grants coins to a user (pool -> wallet, kind=credit) or
// deducts them (wallet -> pool, kind=debit).
func AdminTransferCoins(db *sqlx.DB, engine *ledger.Engine, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")

		var req struct {
			UserID    int    `json:"user_id" binding:"required"`
			Amount    int64  `json:"amount" binding:"required"`
			Direction string `json:"direction" binding:"required"` // "credit" or "debit"
			Reason    string `json:"reason"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, amount and direction are required"})
			return
		}

		wallet, err := ledger.GetWalletByUser(db, req.UserID)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		poolID, err := ledger.PoolWalletID(db)
		if err != nil {
			respondLedgerError(c, err)
			return
		}

		desc := req.Reason
		if desc == "" {
			desc = fmt.Sprintf("manual %s by %s", req.Direction, operator)
		}

		var record interface{}
		switch req.Direction {
		case "credit":
			record, err = engine.Transfer(c.Request.Context(), int64(poolID), int64(wallet.ID), req.Amount, ledger.KindCredit, desc)
		case "debit":
			record, err = engine.Transfer(c.Request.Context(), int64(wallet.ID), int64(poolID), req.Amount, ledger.KindDebit, desc)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be 'credit' or 'debit'"})
			return
		}
		if err != nil {
			log.Printf("[ADMIN] Coin %s for user %d by %s failed: %v", req.Direction, req.UserID, operator, err)
			respondLedgerError(c, err)
			return
		}

		auditor.Record(audit.CategoryCoins, audit.ActionAdjust, operator,
			fmt.Sprintf("%s of %d coins for user %d: %s", req.Direction, req.Amount, req.UserID, desc))
		c.JSON(http.StatusOK, gin.H{"transaction": record})
	}
}
