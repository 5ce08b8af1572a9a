package audit

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/coinarena/backend/internal/models"
)

// Category groups audit entries by the kind of resource acted on.
type Category string

const (
	CategoryTournament Category = "tournament"
	CategoryUser       Category = "user"
	CategoryTeam       Category = "team"
	CategoryCoins      Category = "coins"
)

// Action names the administrative action taken.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionBan        Action = "ban"
	ActionUnban      Action = "unban"
	ActionDistribute Action = "distribute"
	ActionAdjust     Action = "adjust"
	ActionDeposit    Action = "deposit"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionLogin      Action = "login"
	ActionLogout     Action = "logout"
)

// SystemActor marks entries generated by the system rather than an operator.
const SystemActor = "system"

// Logger appends administrative actions to the audit trail. Writes are
// fire-and-forget: a failed insert is logged locally and swallowed so audit
// can never roll back or block the ledger operation that triggered it.
type Logger struct {
	db *sqlx.DB
}

func NewLogger(db *sqlx.DB) *Logger {
	return &Logger{db: db}
}

// Record appends one entry. Safe to call on a nil logger (tests, tooling).
func (l *Logger) Record(category Category, action Action, actor, details string) {
	if l == nil || l.db == nil {
		return
	}
	if actor == "" {
		actor = SystemActor
	}

	_, err := l.db.Exec(`
		INSERT INTO audit_log (category, action, actor, details, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, string(category), string(action), actor, details)
	if err != nil {
		log.Printf("[AUDIT] Failed to record %s/%s by %s: %v", category, action, actor, err)
	}
}

// Filters narrows an audit listing; zero values mean "no filter". Search
// matches a substring of the details text.
type Filters struct {
	Category string
	Actor    string
	Search   string
	Limit    int
	Offset   int
}

// buildListQuery assembles the filtered listing query; split out so clause
// assembly is testable without a database.
func buildListQuery(f Filters) (string, []interface{}) {
	where := ""
	args := []interface{}{}
	argIdx := 1

	if f.Category != "" {
		where += " AND category = $" + strconv.Itoa(argIdx)
		args = append(args, f.Category)
		argIdx++
	}
	if f.Actor != "" {
		where += " AND actor = $" + strconv.Itoa(argIdx)
		args = append(args, f.Actor)
		argIdx++
	}
	if f.Search != "" {
		where += " AND details ILIKE $" + strconv.Itoa(argIdx)
		args = append(args, "%"+f.Search+"%")
		argIdx++
	}

	query := `
		SELECT id, category, action, actor, details, created_at,
			COUNT(*) OVER() as total_count
		FROM audit_log
		WHERE 1=1` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, f.Limit, f.Offset)

	return query, args
}

type auditRow struct {
	models.AuditEntry
	TotalCount int `db:"total_count"`
}

// List returns audit entries newest-first with the total match count.
func (l *Logger) List(f Filters) ([]models.AuditEntry, int, error) {
	if f.Limit <= 0 {
		f.Limit = 25
	}

	query, args := buildListQuery(f)

	var rows []auditRow
	if err := l.db.Select(&rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	total := 0
	entries := make([]models.AuditEntry, 0, len(rows))
	for _, r := range rows {
		total = r.TotalCount
		entries = append(entries, r.AuditEntry)
	}
	return entries, total, nil
}
