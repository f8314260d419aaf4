// Package notify fans out credits-updated events to in-process subscribers
// such as the SSE feed.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tuition-credits/internal/metrics"
	"tuition-credits/internal/model"
)

// EventCreditsUpdated is the only event type the ledger emits.
const EventCreditsUpdated = "credits-updated"

const subscriberBuffer = 32

// Event tells consumers that an account's balance changed.
type Event struct {
	Type          string       `json:"type"`
	UserID        string       `json:"userId"`
	Balance       int64        `json:"balance"`
	TransactionID string       `json:"transactionId"`
	TxType        model.TxType `json:"txType"`
	Amount        int64        `json:"amount"`
	Timestamp     time.Time    `json:"timestamp"`
}

// NewEvent builds a credits-updated event for tx.
func NewEvent(tx model.Transaction) Event {
	return Event{
		Type:          EventCreditsUpdated,
		UserID:        tx.UserID,
		Balance:       tx.Balance,
		TransactionID: tx.ID,
		TxType:        tx.Type,
		Amount:        tx.Amount,
		Timestamp:     tx.Timestamp,
	}
}

type subscriber struct {
	userID string
}

// Hub broadcasts events to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan Event]subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]subscriber)}
}

// Publish sends ev to every matching subscriber.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, sub := range h.clients {
		if sub.userID != "" && sub.userID != ev.UserID {
			continue
		}
		select {
		case ch <- ev:
		default:
			metrics.NotificationsDropped.Inc()
			log.Debug().Str("user_id", ev.UserID).Msg("Dropped credits event for slow subscriber")
		}
	}
}

// Subscribe registers a subscriber. An empty userID receives events for all
// users. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.clients[ch] = subscriber{userID: userID}
	h.mu.Unlock()
	metrics.Subscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
			metrics.Subscribers.Dec()
		})
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
