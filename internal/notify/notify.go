package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel carries every balance-change event. Events for one account are
// published sequentially after their transfer commits, so per-account order
// on the channel matches commit order.
const Channel = "ledger_events"

// Event describes one side of a committed transfer.
type Event struct {
	Account       string    `json:"account"` // "pool" or "user:<id>"
	WalletID      int64     `json:"wallet_id"`
	Balance       int64     `json:"balance"`
	Delta         int64     `json:"delta"` // signed
	TransactionID int64     `json:"transaction_id"`
	Kind          string    `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

// AccountKey formats the subscription key for a wallet owner.
// A nil owner is the operator pool.
func AccountKey(ownerUserID *int64) string {
	if ownerUserID == nil {
		return "pool"
	}
	return fmt.Sprintf("user:%d", *ownerUserID)
}

// Notifier publishes balance-change events over Redis pub/sub.
type Notifier struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish fans events out to subscribers. Delivery is best-effort and happens
// after the underlying transfer has committed; failures are logged, never
// returned to the ledger path.
func (n *Notifier) Publish(ctx context.Context, events ...Event) {
	if n == nil || n.rdb == nil {
		return
	}
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Printf("[NOTIFY] failed to marshal event for %s: %v", ev.Account, err)
			continue
		}
		if err := n.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
			log.Printf("[NOTIFY] failed to publish event for %s: %v", ev.Account, err)
		}
	}
}
