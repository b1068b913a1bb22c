// Package wallets holds the HTTP handlers for the wallet resource.
package wallets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chris/wallet-ledger/pkg/api"
	"github.com/chris/wallet-ledger/pkg/events"
	"github.com/chris/wallet-ledger/pkg/mapping"
	"github.com/chris/wallet-ledger/pkg/middleware"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
	"github.com/google/uuid"
)

const (
	defaultWalletName = "Personal Wallet"
	defaultCurrency   = "INR"
)

// Handler holds the dependencies for wallet-related handlers.
type Handler struct {
	Store     storage.ApiStore
	Publisher events.Publisher
	Logger    *slog.Logger
}

// NewHandler creates a new wallets Handler.
func NewHandler(store storage.ApiStore, publisher events.Publisher, logger *slog.Logger) *Handler {
	return &Handler{Store: store, Publisher: publisher, Logger: logger}
}

// GetWallet handles GET /wallet.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	wallet, err := h.Store.GetWallet(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			writeError(w, http.StatusNotFound, "Wallet not found")
			return
		}
		h.Logger.Error("failed to get wallet", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to retrieve wallet")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(wallet))
}

// CreateWallet handles POST /wallet.
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var newWallet api.NewWallet
	if err := json.NewDecoder(r.Body).Decode(&newWallet); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := api.Validate(&newWallet); err != nil {
		writeValidationError(w, err)
		return
	}

	balance := models.Zero()
	if newWallet.InitialBalance != nil {
		balance = *newWallet.InitialBalance
	}
	if balance.IsNegative() {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: "must not be negative", Field: "initialBalance"})
		return
	}

	name := defaultWalletName
	if newWallet.Name != nil && *newWallet.Name != "" {
		name = *newWallet.Name
	}
	currency := defaultCurrency
	if newWallet.Currency != nil {
		currency = *newWallet.Currency
	}

	now := time.Now()
	wallet := &models.Wallet{
		Id:             uuid.NewString(),
		UserId:         userID,
		Name:           name,
		Currency:       currency,
		Balance:        balance,
		OpeningBalance: balance,
		Status:         models.WalletActive,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := h.Store.CreateWallet(r.Context(), wallet)
	if err != nil {
		if errors.Is(err, storage.ErrWalletExists) {
			writeError(w, http.StatusConflict, "Wallet for this user already exists")
			return
		}
		h.Logger.Error("failed to create wallet", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to create wallet")
		return
	}

	h.publish(r, &events.Event{
		Type:     events.WalletCreated,
		UserId:   userID,
		WalletId: created.Id,
	})

	writeJSON(w, http.StatusCreated, mapping.ToApiWallet(created))
}

// UpdateWallet handles PATCH /wallet.
func (h *Handler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var patch api.WalletPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := api.Validate(&patch); err != nil {
		writeValidationError(w, err)
		return
	}

	storePatch := storage.WalletPatch{
		Name:     patch.Name,
		Currency: patch.Currency,
	}
	if patch.Status != nil {
		status := models.WalletStatus(*patch.Status)
		storePatch.Status = &status
	}

	updated, err := h.Store.UpdateWallet(r.Context(), userID, storePatch)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrWalletNotFound):
			writeError(w, http.StatusNotFound, "Wallet not found")
		case errors.Is(err, storage.ErrConflict):
			writeError(w, http.StatusConflict, "Wallet was modified concurrently, retry")
		default:
			h.Logger.Error("failed to update wallet", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Failed to update wallet")
		}
		return
	}

	// Known limitation: currency is a label. Changing it does not convert
	// recorded transaction amounts.
	if patch.Currency != nil {
		h.Logger.Warn("wallet currency changed without conversion",
			slog.String("wallet_id", updated.Id),
			slog.String("currency", *patch.Currency),
		)
	}

	h.publish(r, &events.Event{
		Type:     events.WalletUpdated,
		UserId:   userID,
		WalletId: updated.Id,
	})

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(updated))
}

// DeleteWallet handles DELETE /wallet.
func (h *Handler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Store.DeleteWallet(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, storage.ErrWalletNotFound):
			writeError(w, http.StatusNotFound, "Wallet not found")
		case errors.Is(err, storage.ErrWalletNotEmpty):
			writeError(w, http.StatusConflict, "Wallet still has transactions")
		default:
			h.Logger.Error("failed to delete wallet", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Failed to delete wallet")
		}
		return
	}

	h.publish(r, &events.Event{
		Type:   events.WalletDeleted,
		UserId: userID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// publish emits an audit event; failures are logged, never surfaced.
func (h *Handler) publish(r *http.Request, event *events.Event) {
	if h.Publisher == nil {
		return
	}
	if err := h.Publisher.Publish(r.Context(), event); err != nil {
		h.Logger.Warn("failed to publish event", slog.String("type", string(event.Type)), slog.Any("error", err))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.Error{Error: message})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: ve.Message, Field: ve.Field})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
