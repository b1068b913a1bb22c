package storage

import (
	"context"
	"time"

	"github.com/chris/wallet-ledger/pkg/models"
)

// TransactionFilter narrows and pages a transaction listing. Zero values
// mean "no constraint"; Limit defaults upstream.
type TransactionFilter struct {
	WalletID string
	Type     *models.TransactionType
	Status   *models.TransactionStatus
	From     *time.Time
	To       *time.Time
	Limit    int32
	Skip     int32
}

// TransactionPatch names the transaction fields an update may change.
// A status change to or from completed also reverses or re-applies the
// wallet balance effect atomically.
type TransactionPatch struct {
	Description *string
	Category    *string
	Status      *models.TransactionStatus
	Metadata    map[string]string
}

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its ID, scoped to the owning
	// user. Missing and foreign transactions both read as not found.
	GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error)

	// ListTransactions returns the caller's transactions newest-first,
	// narrowed and paged by the filter.
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error)
}

// TransactionManager defines the interface for mutating the ledger.
type TransactionManager interface {
	// CreateTransaction atomically applies the signed amount to the owning
	// wallet and records the transaction as completed. It returns the
	// updated wallet alongside the stored transaction.
	CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Wallet, *models.Transaction, error)

	// UpdateTransaction applies a patch to the caller's transaction.
	UpdateTransaction(ctx context.Context, userID, txID string, patch TransactionPatch) (*models.Transaction, error)

	// DeleteTransaction atomically reverses the transaction's balance effect
	// and removes the record, returning the updated wallet.
	DeleteTransaction(ctx context.Context, userID, txID string) (*models.Wallet, error)
}

// TransactionStore combines the reader and manager interfaces.
type TransactionStore interface {
	TransactionReader
	TransactionManager
}
