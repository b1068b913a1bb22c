package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// WalletStatus defines the possible states of a wallet.
type WalletStatus string

const (
	WalletActive WalletStatus = "active"
	WalletFrozen WalletStatus = "frozen"
	WalletClosed WalletStatus = "closed"
)

// TransactionType defines the direction of a money movement.
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// TransactionStatus defines the possible states of a transaction.
type TransactionStatus string

const (
	PENDING   TransactionStatus = "pending"
	COMPLETED TransactionStatus = "completed"
	FAILED    TransactionStatus = "failed"
)

// Wallet represents the internal domain model for a user's wallet.
// Each user owns exactly one wallet; user_id is the table key.
type Wallet struct {
	Id             string       `json:"id" dynamodbav:"id"`
	UserId         string       `json:"user_id" dynamodbav:"user_id"`
	Name           string       `json:"name" dynamodbav:"name"`
	Currency       string       `json:"currency" dynamodbav:"currency"`
	Balance        Money        `json:"balance" dynamodbav:"balance"`
	OpeningBalance Money        `json:"opening_balance" dynamodbav:"opening_balance"`
	Status         WalletStatus `json:"status" dynamodbav:"status"`
	Version        int64        `json:"version" dynamodbav:"version"`
	CreatedAt      time.Time    `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" dynamodbav:"updated_at"`
}

// Transaction represents the internal domain model for a ledger entry.
// It includes dynamodbav tags for marshalling.
type Transaction struct {
	Id          string            `dynamodbav:"id"`
	WalletId    string            `dynamodbav:"wallet_id"`
	UserId      string            `dynamodbav:"user_id"`
	Type        TransactionType   `dynamodbav:"type"`
	Amount      Money             `dynamodbav:"amount"`
	Currency    string            `dynamodbav:"currency"`
	Description string            `dynamodbav:"description,omitempty"`
	Category    string            `dynamodbav:"category,omitempty"`
	Status      TransactionStatus `dynamodbav:"status"`
	OccurredAt  time.Time         `dynamodbav:"occurred_at"`
	Metadata    map[string]string `dynamodbav:"metadata,omitempty"`
	Hash        string            `dynamodbav:"hash"`
	CreatedAt   time.Time         `dynamodbav:"created_at"`
	UpdatedAt   time.Time         `dynamodbav:"updated_at"`
}

// SignedAmount returns the balance delta this transaction applies to its
// wallet: positive for a credit, negative for a debit.
func (t *Transaction) SignedAmount() Money {
	if t.Type == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ComputeHash derives the transaction's display fingerprint. It is a
// traceability aid, not a deduplication key.
func ComputeHash(id string, txType TransactionType, amount Money, occurredAt time.Time) string {
	payload := fmt.Sprintf("%s|%s|%s|%s", id, txType, amount.String(), occurredAt.UTC().Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
