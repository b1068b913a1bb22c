// Package events publishes wallet and transaction lifecycle events to an
// audit queue. Publishing happens after the database commit and is never
// fatal to the request.
package events

import (
	"context"
	"time"

	"github.com/chris/wallet-ledger/pkg/models"
)

// EventType names a lifecycle event.
type EventType string

const (
	WalletCreated      EventType = "wallet.created"
	WalletUpdated      EventType = "wallet.updated"
	WalletDeleted      EventType = "wallet.deleted"
	WalletDrift        EventType = "wallet.drift"
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
)

// Event is the audit record published for a single mutation.
type Event struct {
	Type          EventType         `json:"type"`
	UserId        string            `json:"userId"`
	WalletId      string            `json:"walletId,omitempty"`
	TransactionId string            `json:"transactionId,omitempty"`
	Amount        *models.Money     `json:"amount,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
	Detail        map[string]string `json:"detail,omitempty"`
}

// Publisher defines the interface for emitting audit events.
type Publisher interface {
	// Publish emits a single event.
	Publish(ctx context.Context, event *Event) error
}
