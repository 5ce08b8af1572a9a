package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coinarena/backend/internal/audit"
)

// GetAdminAuditLog returns administrative actions, newest first
func GetAdminAuditLog(auditor *audit.Logger, maxPageSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c, maxPageSize)

		filters := audit.Filters{
			Category: c.DefaultQuery("category", ""),
			Actor:    c.DefaultQuery("actor", ""),
			Search:   c.DefaultQuery("search", ""),
			Limit:    limit,
			Offset:   offset,
		}

		entries, total, err := auditor.List(filters)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit log: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit log"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries, "total": total, "limit": limit, "offset": offset})
	}
}
