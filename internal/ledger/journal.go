package ledger

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/models"
)

// JournalFilters narrows a journal listing. WalletID matches either side of
// a transfer; zero values mean "no filter".
type JournalFilters struct {
	WalletID int64
	Kind     string
	Limit    int
	Offset   int
}

// buildJournalQuery assembles the filtered listing query. Split out so the
// clause assembly is testable without a database.
func buildJournalQuery(f JournalFilters) (string, []interface{}) {
	where := ""
	args := []interface{}{}
	argIdx := 1

	if f.WalletID > 0 {
		where += " AND (from_wallet_id = $" + strconv.Itoa(argIdx) + " OR to_wallet_id = $" + strconv.Itoa(argIdx) + ")"
		args = append(args, f.WalletID)
		argIdx++
	}
	if f.Kind != "" {
		where += " AND kind = $" + strconv.Itoa(argIdx)
		args = append(args, f.Kind)
		argIdx++
	}

	query := `
		SELECT id, from_wallet_id, to_wallet_id, amount, kind, description, status, created_at,
			COUNT(*) OVER() as total_count
		FROM transactions
		WHERE 1=1` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, f.Limit, f.Offset)

	return query, args
}

type journalRow struct {
	models.Transaction
	TotalCount int `db:"total_count"`
}

// ListTransactions returns journal entries newest-first with the total match
// count for pagination.
func ListTransactions(db *sqlx.DB, f JournalFilters) ([]models.Transaction, int, error) {
	if f.Limit <= 0 {
		f.Limit = 25
	}

	query, args := buildJournalQuery(f)

	var rows []journalRow
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	total := 0
	records := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		total = r.TotalCount
		records = append(records, r.Transaction)
	}
	return records, total, nil
}

// SignedSum replays a wallet's committed journal entries: credits count
// positive, debits negative. The result plus the wallet's seed equals its
// current balance; exposed for reconciliation checks.
func SignedSum(db *sqlx.DB, walletID int64) (int64, error) {
	var sum int64
	err := db.Get(&sum, `
		SELECT COALESCE(SUM(
			CASE WHEN to_wallet_id = $1 THEN amount ELSE -amount END
		), 0)
		FROM transactions
		WHERE status = 'completed' AND (from_wallet_id = $1 OR to_wallet_id = $1)
	`, walletID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return sum, nil
}
