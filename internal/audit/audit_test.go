package audit

import (
	"strings"
	"testing"
)

func TestRecordOnNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Record(CategoryCoins, ActionAdjust, "ops", "should not panic")

	l = NewLogger(nil)
	l.Record(CategoryCoins, ActionAdjust, "", "nil db is also a no-op")
}

func TestBuildListQueryNoFilters(t *testing.T) {
	query, args := buildListQuery(Filters{Limit: 25})

	if strings.Contains(query, "category = $") || strings.Contains(query, "actor = $") {
		t.Errorf("unfiltered query should not constrain category/actor: %s", query)
	}
	if !strings.Contains(query, "ORDER BY created_at DESC") {
		t.Errorf("audit listing must be reverse-chronological: %s", query)
	}
	if len(args) != 2 {
		t.Errorf("expected limit+offset only, got %v", args)
	}
}

func TestBuildListQueryAllFilters(t *testing.T) {
	query, args := buildListQuery(Filters{
		Category: "coins",
		Actor:    "ops1",
		Search:   "tournament 9",
		Limit:    50,
		Offset:   100,
	})

	if !strings.Contains(query, "category = $1") {
		t.Errorf("category filter misnumbered: %s", query)
	}
	if !strings.Contains(query, "actor = $2") {
		t.Errorf("actor filter misnumbered: %s", query)
	}
	if !strings.Contains(query, "details ILIKE $3") {
		t.Errorf("search filter misnumbered: %s", query)
	}
	if !strings.Contains(query, "LIMIT $4 OFFSET $5") {
		t.Errorf("paging placeholders misnumbered: %s", query)
	}

	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %v", args)
	}
	if args[2] != "%tournament 9%" {
		t.Errorf("search arg should be wrapped for substring match, got %v", args[2])
	}
}
