package prize

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/ledger"
	"github.com/coinarena/backend/internal/models"
	"github.com/coinarena/backend/internal/notify"
)

// SplitMode selects how a tournament's prize pool is divided.
type SplitMode string

const (
	WinnerTakeAll SplitMode = "winner_take_all"
	TopThree      SplitMode = "top_three"
)

// ParseSplitMode validates a wire-level split mode string.
func ParseSplitMode(s string) (SplitMode, error) {
	switch SplitMode(s) {
	case WinnerTakeAll, TopThree:
		return SplitMode(s), nil
	}
	return "", fmt.Errorf("invalid split mode %q", s)
}

// Config is the per-place prize configuration stored on the tournament.
type Config struct {
	PrizePool    int64
	SplitMode    SplitMode
	FirstAmount  int64
	SecondAmount int64
	ThirdAmount  int64
}

// Validate rejects configurations that would over-allocate the pool. Called
// at configuration time so a bad split never reaches distribution.
func (c Config) Validate() error {
	if c.PrizePool < 0 {
		return fmt.Errorf("%w: negative prize pool", ledger.ErrInvalidAmount)
	}
	switch c.SplitMode {
	case WinnerTakeAll:
		return nil
	case TopThree:
		if c.FirstAmount < 0 || c.SecondAmount < 0 || c.ThirdAmount < 0 {
			return fmt.Errorf("%w: negative place amount", ledger.ErrInvalidAmount)
		}
		if c.FirstAmount+c.SecondAmount+c.ThirdAmount > c.PrizePool {
			return fmt.Errorf("%w: %d+%d+%d > %d", ledger.ErrOverAllocation,
				c.FirstAmount, c.SecondAmount, c.ThirdAmount, c.PrizePool)
		}
		return nil
	default:
		return fmt.Errorf("invalid split mode %q", c.SplitMode)
	}
}

// Payouts computes the per-place amounts for the given number of placed
// teams, one slot per team, first place first. winner_take_all pays the whole
// pool to 1st and nothing to the other placed teams; top_three pays each
// configured amount. Any remainder stays in the pool.
func (c Config) Payouts(numWinners int) ([]int64, error) {
	if numWinners < 1 || numWinners > 3 {
		return nil, fmt.Errorf("expected 1-3 winners, got %d", numWinners)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.SplitMode {
	case WinnerTakeAll:
		amounts := []int64{c.PrizePool, 0, 0}
		return amounts[:numWinners], nil
	default: // TopThree
		amounts := []int64{c.FirstAmount, c.SecondAmount, c.ThirdAmount}
		return amounts[:numWinners], nil
	}
}

// Distributor pays a tournament's prize pool to its winning teams through
// the transfer engine. A tournament distributes at most once.
type Distributor struct {
	db      *sqlx.DB
	engine  *ledger.Engine
	auditor *audit.Logger
}

func NewDistributor(db *sqlx.DB, engine *ledger.Engine, auditor *audit.Logger) *Distributor {
	return &Distributor{db: db, engine: engine, auditor: auditor}
}

// Distribute pays the prize pool to the ordered winning teams (1st place
// first). Team prizes credit the team captain's wallet. The winners-declared
// flip, every transfer and every journal row commit in one transaction, so a
// second call for the same tournament finds the flag set and pays nothing.
func (d *Distributor) Distribute(ctx context.Context, tournamentID int, winnerTeamIDs []int, actor string) ([]models.Transaction, error) {
	if len(winnerTeamIDs) < 1 || len(winnerTeamIDs) > 3 {
		return nil, fmt.Errorf("%w: expected 1-3 winning teams, got %d", ledger.ErrInvalidAmount, len(winnerTeamIDs))
	}
	seen := make(map[int]bool, len(winnerTeamIDs))
	for _, teamID := range winnerTeamIDs {
		if seen[teamID] {
			return nil, fmt.Errorf("%w: team %d placed more than once", ledger.ErrInvalidAmount, teamID)
		}
		seen[teamID] = true
	}

	tx, err := d.engine.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Claim the distribution. Zero rows means either the tournament is
	// unknown or a previous distribution already committed.
	res, err := tx.ExecContext(ctx, `
		UPDATE tournaments SET winners_declared = TRUE, declared_at = NOW()
		WHERE id = $1 AND winners_declared = FALSE
	`, tournamentID)
	if err != nil {
		return nil, ledger.MapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM tournaments WHERE id=$1)`, tournamentID); err != nil {
			return nil, ledger.MapError(err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: tournament %d", ledger.ErrUnknownAccount, tournamentID)
		}
		return nil, ledger.ErrAlreadyDistributed
	}

	var tournament models.Tournament
	err = tx.GetContext(ctx, &tournament, `
		SELECT id, name, entry_fee, prize_pool, split_mode, first_amount, second_amount, third_amount,
			winners_declared, declared_at, created_at
		FROM tournaments WHERE id = $1
	`, tournamentID)
	if err != nil {
		return nil, ledger.MapError(err)
	}

	cfg := Config{
		PrizePool:    tournament.PrizePool,
		SplitMode:    SplitMode(tournament.SplitMode),
		FirstAmount:  tournament.FirstAmount,
		SecondAmount: tournament.SecondAmount,
		ThirdAmount:  tournament.ThirdAmount,
	}
	payouts, err := cfg.Payouts(len(winnerTeamIDs))
	if err != nil {
		return nil, err
	}

	var poolID int64
	if err := tx.GetContext(ctx, &poolID, `SELECT id FROM wallets WHERE owner_user_id IS NULL`); err != nil {
		return nil, ledger.MapError(err)
	}

	placeNames := []string{"1st", "2nd", "3rd"}
	records := make([]models.Transaction, 0, len(winnerTeamIDs))
	events := make([]notify.Event, 0, 2*len(winnerTeamIDs))

	for i, teamID := range winnerTeamIDs {
		if payouts[i] == 0 {
			continue
		}

		var winner struct {
			TeamName string        `db:"name"`
			WalletID sql.NullInt64 `db:"wallet_id"`
		}
		err := tx.GetContext(ctx, &winner, `
			SELECT t.name, w.id AS wallet_id
			FROM teams t
			LEFT JOIN wallets w ON w.owner_user_id = t.captain_user_id
			WHERE t.id = $1
		`, teamID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("%w: team %d", ledger.ErrUnknownAccount, teamID)
			}
			return nil, ledger.MapError(err)
		}
		if !winner.WalletID.Valid {
			return nil, fmt.Errorf("%w: team %d captain has no wallet", ledger.ErrUnknownAccount, teamID)
		}

		desc := fmt.Sprintf("prize for tournament %q (%s place, team %s)", tournament.Name, placeNames[i], winner.TeamName)
		record, evs, err := d.engine.TransferTx(ctx, tx, poolID, winner.WalletID.Int64, payouts[i], ledger.KindWin, desc)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
		events = append(events, evs...)
	}

	if err := tx.Commit(); err != nil {
		return nil, ledger.MapError(err)
	}

	log.Printf("[PRIZE] Distributed tournament %d: %d payouts, pool=%d mode=%s", tournamentID, len(records), tournament.PrizePool, tournament.SplitMode)
	d.engine.Publish(ctx, events...)
	d.auditor.Record(audit.CategoryTournament, audit.ActionDistribute, actor,
		fmt.Sprintf("tournament %d (%s): %d payouts from pool of %d", tournamentID, tournament.Name, len(records), tournament.PrizePool))

	return records, nil
}
