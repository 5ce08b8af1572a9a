package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/coinarena/backend/internal/notify"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartLedgerEventSubscriber subscribes to the ledger_events channel and fans
// incoming balance changes out to the subscribers of the affected account.
// Publishers race between commit and publish, so delivery goes through the
// hub's per-account sequencing to keep same-account events in commit order.
func StartLedgerEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; ledger event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, notify.Channel)
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] ledger_events subscriber started")
		for msg := range ch {
			var ev notify.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[WS] invalid ledger event payload: %v", err)
				continue
			}
			if ev.Account == "" {
				log.Printf("[WS] ledger event missing account: %s", msg.Payload)
				continue
			}

			LedgerHub.BroadcastLedgerEvent(ev.Account, ev.TransactionID, map[string]interface{}{
				"type":           "balance_update",
				"account":        ev.Account,
				"balance":        ev.Balance,
				"delta":          ev.Delta,
				"transaction_id": ev.TransactionID,
				"kind":           ev.Kind,
				"created_at":     ev.CreatedAt,
			})
		}
	}()
}
