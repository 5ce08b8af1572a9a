package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/models"
)

// CreateTeam registers a team. Teams hold no wallet; prize money goes to the
// captain's wallet at distribution time.
func CreateTeam(db *sqlx.DB, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")

		var req struct {
			Name          string `json:"name" binding:"required"`
			CaptainUserID int    `json:"captain_user_id" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and captain_user_id are required"})
			return
		}

		var exists bool
		if err := db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, req.CaptainUserID); err != nil || !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "captain user not found"})
			return
		}

		var team models.Team
		err := db.Get(&team, `
			INSERT INTO teams (name, captain_user_id, created_at)
			VALUES ($1, $2, NOW())
			RETURNING id, name, captain_user_id, created_at
		`, req.Name, req.CaptainUserID)
		if err != nil {
			log.Printf("[ADMIN] Failed to create team %s: %v", req.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
			return
		}

		auditor.Record(audit.CategoryTeam, audit.ActionCreate, operator,
			fmt.Sprintf("team %d (%s), captain user %d", team.ID, team.Name, team.CaptainUserID))
		c.JSON(http.StatusOK, gin.H{"team": team})
	}
}

// GetAdminTeams lists teams with their captains
func GetAdminTeams(db *sqlx.DB, maxPageSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c, maxPageSize)

		type teamRow struct {
			ID              int    `db:"id" json:"id"`
			Name            string `db:"name" json:"name"`
			CaptainUserID   int    `db:"captain_user_id" json:"captain_user_id"`
			CaptainUsername string `db:"captain_username" json:"captain_username"`
			CreatedAt       string `db:"created_at" json:"created_at"`
			TotalCount      int    `db:"total_count" json:"-"`
		}

		var rows []teamRow
		err := db.Select(&rows, `
			SELECT t.id, t.name, t.captain_user_id,
				u.username as captain_username,
				to_char(t.created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"') as created_at,
				COUNT(*) OVER() as total_count
			FROM teams t
			JOIN users u ON u.id = t.captain_user_id
			ORDER BY t.created_at DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch teams: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch teams"})
			return
		}

		total := 0
		if len(rows) > 0 {
			total = rows[0].TotalCount
		}

		c.JSON(http.StatusOK, gin.H{"teams": rows, "total": total, "limit": limit, "offset": offset})
	}
}
