package storage

import "errors"

// ErrWalletNotFound is returned when the caller has no wallet, or names a
// wallet that does not belong to them. Foreign wallets read as absent so the
// API never confirms another user's data exists.
var ErrWalletNotFound = errors.New("wallet not found")

// ErrWalletExists is returned when creating a wallet for a user who already
// has one. Callers are expected to treat this as "fetch instead".
var ErrWalletExists = errors.New("wallet already exists")

// ErrWalletNotEmpty is returned when deleting a wallet that still has
// transactions referencing it.
var ErrWalletNotEmpty = errors.New("wallet has transactions")

// ErrWalletNotActive is returned when creating a transaction against a
// frozen or closed wallet.
var ErrWalletNotActive = errors.New("wallet is not active")

// ErrTransactionNotFound is returned when a transaction is absent or owned
// by another user.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrCurrencyMismatch is returned when a transaction's currency does not
// match its wallet's currency.
var ErrCurrencyMismatch = errors.New("transaction currency does not match wallet currency")

// ErrConflict is returned when an optimistic-lock condition failed, e.g. a
// concurrent mutation won the wallet's version check. The operation left no
// partial effects and can be retried.
var ErrConflict = errors.New("concurrent modification conflict")
