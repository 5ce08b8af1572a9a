package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/ledger"
	"github.com/coinarena/backend/internal/models"
	"github.com/coinarena/backend/internal/notify"
	"github.com/coinarena/backend/internal/prize"
)

// CreateTournament creates a tournament with its prize configuration.
// Over-allocated splits are rejected here, before any distribution runs.
func CreateTournament(db *sqlx.DB, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")

		var req struct {
			Name         string `json:"name" binding:"required"`
			EntryFee     int64  `json:"entry_fee"`
			PrizePool    int64  `json:"prize_pool"`
			SplitMode    string `json:"split_mode"`
			FirstAmount  int64  `json:"first_amount"`
			SecondAmount int64  `json:"second_amount"`
			ThirdAmount  int64  `json:"third_amount"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		if req.SplitMode == "" {
			req.SplitMode = string(prize.WinnerTakeAll)
		}

		mode, err := prize.ParseSplitMode(req.SplitMode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg := prize.Config{
			PrizePool:    req.PrizePool,
			SplitMode:    mode,
			FirstAmount:  req.FirstAmount,
			SecondAmount: req.SecondAmount,
			ThirdAmount:  req.ThirdAmount,
		}
		if err := cfg.Validate(); err != nil {
			respondLedgerError(c, err)
			return
		}
		if req.EntryFee < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry fee cannot be negative"})
			return
		}

		var tournament models.Tournament
		err = db.Get(&tournament, `
			INSERT INTO tournaments (name, entry_fee, prize_pool, split_mode, first_amount, second_amount, third_amount, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING id, name, entry_fee, prize_pool, split_mode, first_amount, second_amount, third_amount,
				winners_declared, declared_at, created_at
		`, req.Name, req.EntryFee, req.PrizePool, string(mode), req.FirstAmount, req.SecondAmount, req.ThirdAmount)
		if err != nil {
			log.Printf("[ADMIN] Failed to create tournament: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tournament"})
			return
		}

		auditor.Record(audit.CategoryTournament, audit.ActionCreate, operator,
			fmt.Sprintf("tournament %d (%s), prize pool %d, mode %s", tournament.ID, tournament.Name, tournament.PrizePool, tournament.SplitMode))
		c.JSON(http.StatusOK, gin.H{"tournament": tournament})
	}
}

// UpdateTournamentPrizes reconfigures the prize split of a tournament whose
// winners have not been declared yet.
func UpdateTournamentPrizes(db *sqlx.DB, auditor *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")
		tournamentID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
			return
		}

		var req struct {
			PrizePool    int64  `json:"prize_pool"`
			SplitMode    string `json:"split_mode" binding:"required"`
			FirstAmount  int64  `json:"first_amount"`
			SecondAmount int64  `json:"second_amount"`
			ThirdAmount  int64  `json:"third_amount"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "split_mode is required"})
			return
		}

		mode, err := prize.ParseSplitMode(req.SplitMode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg := prize.Config{
			PrizePool:    req.PrizePool,
			SplitMode:    mode,
			FirstAmount:  req.FirstAmount,
			SecondAmount: req.SecondAmount,
			ThirdAmount:  req.ThirdAmount,
		}
		if err := cfg.Validate(); err != nil {
			respondLedgerError(c, err)
			return
		}

		res, err := db.Exec(`
			UPDATE tournaments
			SET prize_pool=$1, split_mode=$2, first_amount=$3, second_amount=$4, third_amount=$5
			WHERE id=$6 AND winners_declared=FALSE
		`, req.PrizePool, string(mode), req.FirstAmount, req.SecondAmount, req.ThirdAmount, tournamentID)
		if err != nil {
			log.Printf("[ADMIN] Failed to update tournament %d prizes: %v", tournamentID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update prizes"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "tournament not found or winners already declared"})
			return
		}

		auditor.Record(audit.CategoryTournament, audit.ActionUpdate, operator,
			fmt.Sprintf("tournament %d prizes: pool %d, mode %s (%d/%d/%d)", tournamentID, req.PrizePool, mode, req.FirstAmount, req.SecondAmount, req.ThirdAmount))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// JoinTournament pays the entry fee from the caller's wallet into the pool
// and records the entry.
func JoinTournament(db *sqlx.DB, engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("user_id")
		tournamentID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
			return
		}

		var tournament models.Tournament
		err = db.Get(&tournament, `
			SELECT id, name, entry_fee, prize_pool, split_mode, first_amount, second_amount, third_amount,
				winners_declared, declared_at, created_at
			FROM tournaments WHERE id=$1
		`, tournamentID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "tournament not found"})
			return
		}
		if tournament.WinnersDeclared {
			c.JSON(http.StatusConflict, gin.H{"error": "tournament is already closed"})
			return
		}

		var entered bool
		if err := db.Get(&entered, `SELECT EXISTS (SELECT 1 FROM tournament_entries WHERE tournament_id=$1 AND user_id=$2)`, tournamentID, userID); err == nil && entered {
			c.JSON(http.StatusConflict, gin.H{"error": "already entered"})
			return
		}

		tx, err := engine.BeginTx(c.Request.Context())
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		defer tx.Rollback()

		var record *models.Transaction
		var events []notify.Event
		var transactionID sql.NullInt64

		if tournament.EntryFee > 0 {
			var walletID, poolID int64
			if err := tx.Get(&walletID, `SELECT id FROM wallets WHERE owner_user_id=$1`, userID); err != nil {
				respondLedgerError(c, ledger.ErrUnknownAccount)
				return
			}
			if err := tx.Get(&poolID, `SELECT id FROM wallets WHERE owner_user_id IS NULL`); err != nil {
				respondLedgerError(c, ledger.MapError(err))
				return
			}

			record, events, err = engine.TransferTx(c.Request.Context(), tx, walletID, poolID, tournament.EntryFee, ledger.KindDebit,
				fmt.Sprintf("entry fee for tournament %q", tournament.Name))
			if err != nil {
				respondLedgerError(c, err)
				return
			}
			transactionID = sql.NullInt64{Int64: record.ID, Valid: true}
		}

		var entryID int
		err = tx.QueryRowx(`
			INSERT INTO tournament_entries (tournament_id, user_id, transaction_id, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id
		`, tournamentID, userID, transactionID).Scan(&entryID)
		if err != nil {
			// a concurrent join can slip past the pre-check and lose
			// the race on the (tournament_id, user_id) constraint
			if ledger.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "already entered"})
				return
			}
			respondLedgerError(c, ledger.MapError(err))
			return
		}

		if err := tx.Commit(); err != nil {
			respondLedgerError(c, ledger.MapError(err))
			return
		}

		engine.Publish(c.Request.Context(), events...)
		log.Printf("[TOURNAMENT] User %d entered tournament %d (fee=%d)", userID, tournamentID, tournament.EntryFee)
		c.JSON(http.StatusOK, gin.H{"entry_id": entryID, "transaction": record})
	}
}

// DistributeTournament pays the prize pool to the declared winners. At most
// one distribution per tournament; repeats are rejected.
func DistributeTournament(distributor *prize.Distributor) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString("operator")
		tournamentID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
			return
		}

		var req struct {
			WinnerTeamIDs []int `json:"winner_team_ids" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "winner_team_ids is required"})
			return
		}

		records, err := distributor.Distribute(c.Request.Context(), tournamentID, req.WinnerTeamIDs, operator)
		if err != nil {
			log.Printf("[ADMIN] Distribution for tournament %d by %s failed: %v", tournamentID, operator, err)
			respondLedgerError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"transactions": records})
	}
}
