package storage

import (
	"context"

	"github.com/chris/wallet-ledger/pkg/models"
)

// AuditStore defines the privileged listing operations used by the
// reconciliation job. It bypasses per-user ownership scoping and must not
// be exposed to the API.
type AuditStore interface {
	// ListWallets retrieves every wallet.
	ListWallets(ctx context.Context) ([]models.Wallet, error)

	// ListWalletTransactions retrieves every transaction recorded against a
	// wallet, regardless of owner.
	ListWalletTransactions(ctx context.Context, walletID string) ([]models.Transaction, error)
}
