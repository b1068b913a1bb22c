// Package api defines the request and response shapes of the ledger HTTP
// surface.
package api

import (
	"time"

	"github.com/chris/wallet-ledger/pkg/models"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Wallet is the client-facing view of a wallet.
type Wallet struct {
	Id        openapi_types.UUID `json:"id"`
	UserId    string             `json:"userId"`
	Name      string             `json:"name"`
	Currency  string             `json:"currency"`
	Balance   models.Money       `json:"balance"`
	Status    string             `json:"status"`
	Version   int64              `json:"version"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewWallet is the body of POST /wallet.
type NewWallet struct {
	Name           *string       `json:"name,omitempty"`
	Currency       *string       `json:"currency,omitempty" validate:"omitempty,len=3"`
	InitialBalance *models.Money `json:"initialBalance,omitempty"`
}

// WalletPatch is the body of PATCH /wallet.
type WalletPatch struct {
	Name     *string `json:"name,omitempty"`
	Currency *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=active frozen closed"`
}

// Transaction is the client-facing view of a ledger entry.
type Transaction struct {
	Id          openapi_types.UUID `json:"id"`
	WalletId    openapi_types.UUID `json:"walletId"`
	UserId      string             `json:"userId"`
	Type        string             `json:"type"`
	Amount      models.Money       `json:"amount"`
	Currency    string             `json:"currency"`
	Description string             `json:"description,omitempty"`
	Category    string             `json:"category,omitempty"`
	Status      string             `json:"status"`
	OccurredAt  time.Time          `json:"occurredAt"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
	Hash        string             `json:"hash"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// NewTransaction is the body of POST /transactions.
type NewTransaction struct {
	WalletId    *openapi_types.UUID `json:"walletId,omitempty"`
	Type        string              `json:"type" validate:"required,oneof=credit debit"`
	Amount      models.Money        `json:"amount"`
	Currency    *string             `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description *string             `json:"description,omitempty"`
	Category    *string             `json:"category,omitempty"`
	OccurredAt  *time.Time          `json:"occurredAt,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

// TransactionPatch is the body of PATCH /transactions/{id}.
type TransactionPatch struct {
	Description *string           `json:"description,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Status      *string           `json:"status,omitempty" validate:"omitempty,oneof=pending completed failed"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FraudReport carries the advisory risk assessment attached to a created
// transaction.
type FraudReport struct {
	RiskScore int      `json:"riskScore"`
	Flagged   bool     `json:"flagged"`
	Reasons   []string `json:"reasons,omitempty"`
}

// PolicyReport carries refund-policy and compliance notices attached to a
// created transaction.
type PolicyReport struct {
	RefundPolicy  string   `json:"refundPolicy,omitempty"`
	LegalNotices  []string `json:"legalNotices,omitempty"`
	Disclaimers   []string `json:"disclaimers,omitempty"`
	Consultations []string `json:"consultations,omitempty"`
}

// CreateTransactionResponse is the body returned by POST /transactions.
// Fraud and Policy are omitted when the advisory service is unavailable.
type CreateTransactionResponse struct {
	Wallet      Wallet        `json:"wallet"`
	Transaction Transaction   `json:"transaction"`
	Fraud       *FraudReport  `json:"fraud,omitempty"`
	Policy      *PolicyReport `json:"policy,omitempty"`
}

// DeleteTransactionResponse returns the wallet with the reversal applied, so
// clients can refresh the displayed balance without a second round trip.
type DeleteTransactionResponse struct {
	Wallet Wallet `json:"wallet"`
}

// Error is the JSON error body returned by all endpoints.
type Error struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
