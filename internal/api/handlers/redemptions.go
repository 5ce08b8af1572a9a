package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coinarena/backend/internal/redemption"
)

// RequestRedemption lets an authenticated user cash out their own balance.
// The wallet is debited immediately; the payout itself is fulfilled out of
// band by an operator.
func RequestRedemption(queue *redemption.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("user_id")

		var req struct {
			Amount int64 `json:"amount" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
			return
		}

		request, err := queue.Request(c.Request.Context(), userID, req.Amount)
		if err != nil {
			log.Printf("[REDEEM] Request by user %d failed: %v", userID, err)
			respondLedgerError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"request": request})
	}
}

// GetAdminRedemptions returns a paginated list of redemption requests
func GetAdminRedemptions(queue *redemption.Queue, maxPageSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.DefaultQuery("status", "all")
		limit, offset := pageParams(c, maxPageSize)

		items, total, err := queue.List(status, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch redemptions: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch redemptions"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"redemptions": items, "total": total, "limit": limit, "offset": offset})
	}
}

// AdminCompleteRedemption marks a pending request as paid out. The debit
// already happened at request time, so no further ledger effect.
func AdminCompleteRedemption(queue *redemption.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")
		requestID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
			return
		}

		if err := queue.Complete(c.Request.Context(), requestID, operator); err != nil {
			respondLedgerError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminRejectRedemption rejects a pending request and credits the debited
// amount back to the user before the outcome is visible.
func AdminRejectRedemption(queue *redemption.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")
		requestID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
			return
		}

		var req struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reason is required"})
			return
		}

		if err := queue.Reject(c.Request.Context(), requestID, operator, req.Reason); err != nil {
			log.Printf("[ADMIN] Failed to reject redemption %d: %v", requestID, err)
			respondLedgerError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
