package ws

import (
	"encoding/json"
	"testing"
)

func newTestClient(h *Hub, account string) *Client {
	c := &Client{account: account, send: make(chan []byte, 64)}
	h.register(c)
	return c
}

func TestBroadcastReachesAllAccountSubscribers(t *testing.T) {
	h := NewHub()
	c1 := newTestClient(h, "user:7")
	c2 := newTestClient(h, "user:7")
	other := newTestClient(h, "pool")

	h.BroadcastToAccount("user:7", map[string]interface{}{"balance": 300})

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var msg map[string]interface{}
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("invalid payload: %v", err)
			}
			if msg["balance"].(float64) != 300 {
				t.Errorf("unexpected balance: %v", msg["balance"])
			}
		default:
			t.Error("subscriber did not receive the broadcast")
		}
	}

	select {
	case <-other.send:
		t.Error("subscriber of a different account received the event")
	default:
	}
}

func TestBroadcastPreservesPerAccountOrder(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "user:1")

	for i := 1; i <= 5; i++ {
		h.BroadcastToAccount("user:1", map[string]interface{}{"seq": i})
	}

	for i := 1; i <= 5; i++ {
		var msg map[string]interface{}
		if err := json.Unmarshal(<-c.send, &msg); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if int(msg["seq"].(float64)) != i {
			t.Fatalf("event %d arrived out of order: got seq=%v", i, msg["seq"])
		}
	}
}

func TestBroadcastLedgerEventDropsLateArrivals(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "user:4")

	// txn 1 committed first but its publisher lost the race to txn 2
	h.BroadcastLedgerEvent("user:4", 2, map[string]interface{}{"transaction_id": 2, "balance": 300})
	h.BroadcastLedgerEvent("user:4", 1, map[string]interface{}{"transaction_id": 1, "balance": 500})
	h.BroadcastLedgerEvent("user:4", 3, map[string]interface{}{"transaction_id": 3, "balance": 250})

	for _, want := range []int{2, 3} {
		var msg map[string]interface{}
		if err := json.Unmarshal(<-c.send, &msg); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if int(msg["transaction_id"].(float64)) != want {
			t.Fatalf("expected txn %d, got %v", want, msg["transaction_id"])
		}
	}

	select {
	case data := <-c.send:
		t.Errorf("late event should have been dropped, got %s", data)
	default:
	}
}

func TestBroadcastLedgerEventTracksAccountsIndependently(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "pool")

	// a high txn id on another account must not suppress this one
	h.BroadcastLedgerEvent("user:9", 50, map[string]interface{}{"transaction_id": 50})
	h.BroadcastLedgerEvent("pool", 10, map[string]interface{}{"transaction_id": 10})

	select {
	case data := <-c.send:
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if int(msg["transaction_id"].(float64)) != 10 {
			t.Errorf("expected txn 10, got %v", msg["transaction_id"])
		}
	default:
		t.Error("pool subscriber did not receive its event")
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := &Client{account: "user:2", send: make(chan []byte, 1)}
	h.register(c)

	h.BroadcastToAccount("user:2", map[string]interface{}{"seq": 1})
	h.BroadcastToAccount("user:2", map[string]interface{}{"seq": 2}) // dropped, must not block

	var msg map[string]interface{}
	if err := json.Unmarshal(<-c.send, &msg); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if int(msg["seq"].(float64)) != 1 {
		t.Errorf("expected first event, got seq=%v", msg["seq"])
	}
	select {
	case <-c.send:
		t.Error("second event should have been dropped")
	default:
	}
}

func TestUnregisterRemovesSubscriber(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "user:3")

	if h.SubscriberCount("user:3") != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.SubscriberCount("user:3"))
	}

	h.unregister(c)
	if h.SubscriberCount("user:3") != 0 {
		t.Errorf("expected 0 subscribers after unregister, got %d", h.SubscriberCount("user:3"))
	}

	// double unregister must not panic on the closed channel
	h.unregister(c)
}
