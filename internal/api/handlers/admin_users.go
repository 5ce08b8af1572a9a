package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/audit"
)

// GetAdminUsers returns a paginated list of users with their balances
func GetAdminUsers(db *sqlx.DB, maxPageSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := c.DefaultQuery("search", "")
		limit, offset := pageParams(c, maxPageSize)

		type userRow struct {
			ID          int     `db:"id" json:"id"`
			Username    string  `db:"username" json:"username"`
			DisplayName string  `db:"display_name" json:"display_name"`
			IsBanned    bool    `db:"is_banned" json:"is_banned"`
			BanReason   *string `db:"ban_reason" json:"ban_reason"`
			Balance     *int64  `db:"balance" json:"balance"`
			CreatedAt   string  `db:"created_at" json:"created_at"`
			TotalCount  int     `db:"total_count" json:"-"`
		}

		query := `
			SELECT u.id, u.username, u.display_name, u.is_banned, u.ban_reason,
				w.balance,
				to_char(u.created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"') as created_at,
				COUNT(*) OVER() as total_count
			FROM users u
			LEFT JOIN wallets w ON w.owner_user_id = u.id
			WHERE ($1 = '' OR u.username ILIKE '%' || $1 || '%')
			ORDER BY u.created_at DESC
			LIMIT $2 OFFSET $3
		`

		var rows []userRow
		err := db.Select(&rows, query, search, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch users: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}

		total := 0
		if len(rows) > 0 {
			total = rows[0].TotalCount
		}

		c.JSON(http.StatusOK, gin.H{"users": rows, "total": total, "limit": limit, "offset": offset})
	}
}

// AdminBanUser bans a user from mutating operations. Their wallet and its
// history stay intact.
func AdminBanUser(db *sqlx.DB, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")
		userID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		var req struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reason is required"})
			return
		}

		res, err := db.Exec(`UPDATE users SET is_banned=TRUE, ban_reason=$1 WHERE id=$2`, req.Reason, userID)
		if err != nil {
			log.Printf("[ADMIN] Failed to ban user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ban user"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		auditor.Record(audit.CategoryUser, audit.ActionBan, operator,
			"banned user "+strconv.Itoa(userID)+": "+req.Reason)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminUnbanUser lifts a ban
func AdminUnbanUser(db *sqlx.DB, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")
		userID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		res, err := db.Exec(`UPDATE users SET is_banned=FALSE, ban_reason=NULL WHERE id=$1`, userID)
		if err != nil {
			log.Printf("[ADMIN] Failed to unban user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unban user"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		auditor.Record(audit.CategoryUser, audit.ActionUnban, operator, "unbanned user "+strconv.Itoa(userID))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
