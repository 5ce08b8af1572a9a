package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coinarena/backend/internal/ledger"
	"github.com/coinarena/backend/internal/redemption"
)

// pageParams reads limit/offset query params, clamped to the configured cap.
func pageParams(c *gin.Context, maxPageSize int) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 25
	}
	if maxPageSize > 0 && limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// respondLedgerError maps the ledger error taxonomy onto HTTP statuses.
// Business rejections carry their precise message; infrastructure failures
// get a generic body and the caller may retry the whole operation.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrOverAllocation),
		errors.Is(err, ledger.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrUnknownAccount):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrAlreadyDistributed),
		errors.Is(err, redemption.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger busy, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
