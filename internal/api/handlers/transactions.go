package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/config"
	"github.com/coinarena/backend/internal/ledger"
)

// ListTransactions returns journal entries, newest first. Filters: wallet
// (matches either side), kind. Operators see everything; users only their
// own wallet's entries.
func ListTransactions(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c, cfg.MaxPageSize)

		filters := ledger.JournalFilters{Limit: limit, Offset: offset}
		if kind := c.Query("kind"); kind != "" {
			if _, err := ledger.ParseKind(kind); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			filters.Kind = kind
		}
		if walletStr := c.Query("wallet"); walletStr != "" {
			walletID, err := strconv.ParseInt(walletStr, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet id"})
				return
			}
			filters.WalletID = walletID
		}

		// non-operators are pinned to their own wallet
		if c.GetString("operator") == "" {
			userID := c.GetInt("user_id")
			wallet, err := ledger.GetWalletByUser(db, userID)
			if err != nil {
				respondLedgerError(c, err)
				return
			}
			filters.WalletID = int64(wallet.ID)
		}

		records, total, err := ledger.ListTransactions(db, filters)
		if err != nil {
			log.Printf("[LEDGER] Failed to list transactions: %v", err)
			respondLedgerError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"transactions": records,
			"total":        total,
			"limit":        limit,
			"offset":       offset,
		})
	}
}
