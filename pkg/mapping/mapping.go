package mapping

import (
	"github.com/chris/wallet-ledger/pkg/advisory"
	"github.com/chris/wallet-ledger/pkg/api"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ToApiWallet converts a domain Wallet model to an API Wallet model.
func ToApiWallet(wallet *models.Wallet) *api.Wallet {
	return &api.Wallet{
		Id:        parseID(wallet.Id),
		UserId:    wallet.UserId,
		Name:      wallet.Name,
		Currency:  wallet.Currency,
		Balance:   wallet.Balance,
		Status:    string(wallet.Status),
		Version:   wallet.Version,
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}
}

// ToApiTransaction converts a domain Transaction model to an API Transaction model.
func ToApiTransaction(tx *models.Transaction) *api.Transaction {
	return &api.Transaction{
		Id:          parseID(tx.Id),
		WalletId:    parseID(tx.WalletId),
		UserId:      tx.UserId,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Description: tx.Description,
		Category:    tx.Category,
		Status:      string(tx.Status),
		OccurredAt:  tx.OccurredAt,
		Metadata:    tx.Metadata,
		Hash:        tx.Hash,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

// ToDomainNewTransaction converts an API NewTransaction model to a domain
// Transaction model. Server-side fields (id, status, hash, timestamps) are
// filled in by the storage layer.
func ToDomainNewTransaction(userID string, newTx *api.NewTransaction) *models.Transaction {
	tx := &models.Transaction{
		UserId:   userID,
		Type:     models.TransactionType(newTx.Type),
		Amount:   newTx.Amount,
		Metadata: newTx.Metadata,
	}
	if newTx.WalletId != nil {
		tx.WalletId = newTx.WalletId.String()
	}
	if newTx.Currency != nil {
		tx.Currency = *newTx.Currency
	}
	if newTx.Description != nil {
		tx.Description = *newTx.Description
	}
	if newTx.Category != nil {
		tx.Category = *newTx.Category
	}
	if newTx.OccurredAt != nil {
		tx.OccurredAt = *newTx.OccurredAt
	}
	return tx
}

// ToApiFraudReport converts the advisory fraud assessment to its API shape.
func ToApiFraudReport(f *advisory.Fraud) *api.FraudReport {
	if f == nil {
		return nil
	}
	return &api.FraudReport{
		RiskScore: f.RiskScore,
		Flagged:   f.Flagged,
		Reasons:   f.Reasons,
	}
}

// ToApiPolicyReport converts the advisory policy notices to their API shape.
func ToApiPolicyReport(p *advisory.Policy) *api.PolicyReport {
	if p == nil {
		return nil
	}
	return &api.PolicyReport{
		RefundPolicy:  p.RefundPolicy,
		LegalNotices:  p.LegalNotices,
		Disclaimers:   p.Disclaimers,
		Consultations: p.Consultations,
	}
}

// parseID converts a stored id into the API UUID type. Stored ids are always
// server-generated UUIDs; anything else maps to the zero UUID.
func parseID(id string) openapi_types.UUID {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return openapi_types.UUID{}
	}
	return openapi_types.UUID(parsed)
}
