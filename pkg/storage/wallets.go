package storage

import (
	"context"

	"github.com/chris/wallet-ledger/pkg/models"
)

// WalletPatch names the wallet fields an update may change. Nil fields are
// left untouched.
type WalletPatch struct {
	Name     *string
	Currency *string
	Status   *models.WalletStatus
}

// WalletStore defines the interface for managing wallets.
type WalletStore interface {
	// GetWallet retrieves a user's wallet by their user ID.
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// CreateWallet creates a new wallet for a user. It fails with
	// ErrWalletExists if the user already has one.
	CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error)

	// UpdateWallet applies a patch to the user's wallet.
	UpdateWallet(ctx context.Context, userID string, patch WalletPatch) (*models.Wallet, error)

	// DeleteWallet removes the user's wallet. It fails with ErrWalletNotEmpty
	// while any transaction still references the wallet.
	DeleteWallet(ctx context.Context, userID string) error
}
