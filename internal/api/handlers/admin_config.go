package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/admin"
	"github.com/coinarena/backend/internal/audit"
)

// GetAdminConfig returns every runtime config entry
func GetAdminConfig(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		configs, err := admin.GetAllRuntimeConfig(db)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch runtime config: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch config"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"config": configs})
	}
}

// UpdateAdminConfig changes one runtime config value. The new value takes
// effect on the next server start; amount limits apply immediately where the
// handler reads them per request.
func UpdateAdminConfig(db *sqlx.DB, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")
		key := c.Param("key")

		var req struct {
			Value string `json:"value" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
			return
		}

		if err := admin.UpdateRuntimeConfigValue(db, key, req.Value, operator); err != nil {
			log.Printf("[ADMIN] Failed to update config %s: %v", key, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		auditor.Record(audit.CategoryCoins, audit.ActionUpdate, operator,
			"runtime config "+key+" set to "+req.Value)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
