package ledger

import (
	"strings"
	"testing"
)

func TestBuildJournalQueryNoFilters(t *testing.T) {
	query, args := buildJournalQuery(JournalFilters{Limit: 25, Offset: 0})

	if strings.Contains(query, "from_wallet_id = $") {
		t.Errorf("unfiltered query should not constrain wallet: %s", query)
	}
	if !strings.Contains(query, "ORDER BY created_at DESC") {
		t.Errorf("journal listing must be reverse-chronological: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected limit+offset args only, got %v", args)
	}
	if args[0] != 25 || args[1] != 0 {
		t.Errorf("unexpected paging args: %v", args)
	}
}

func TestBuildJournalQueryWalletFilterMatchesBothSides(t *testing.T) {
	query, args := buildJournalQuery(JournalFilters{WalletID: 42, Limit: 10, Offset: 5})

	if !strings.Contains(query, "from_wallet_id = $1 OR to_wallet_id = $1") {
		t.Errorf("wallet filter must match either side of a transfer: %s", query)
	}
	if !strings.Contains(query, "LIMIT $2 OFFSET $3") {
		t.Errorf("paging placeholders misnumbered: %s", query)
	}
	if len(args) != 3 || args[0] != int64(42) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildJournalQueryKindAfterWallet(t *testing.T) {
	query, args := buildJournalQuery(JournalFilters{WalletID: 7, Kind: "redeem", Limit: 50, Offset: 0})

	if !strings.Contains(query, "kind = $2") {
		t.Errorf("kind filter should take the second placeholder: %s", query)
	}
	if !strings.Contains(query, "LIMIT $3 OFFSET $4") {
		t.Errorf("paging placeholders misnumbered with both filters: %s", query)
	}
	if len(args) != 4 || args[1] != "redeem" {
		t.Errorf("unexpected args: %v", args)
	}
}
