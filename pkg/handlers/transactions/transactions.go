// Package transactions holds the HTTP handlers for the transaction resource.
package transactions

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chris/wallet-ledger/pkg/advisory"
	"github.com/chris/wallet-ledger/pkg/api"
	"github.com/chris/wallet-ledger/pkg/events"
	"github.com/chris/wallet-ledger/pkg/mapping"
	"github.com/chris/wallet-ledger/pkg/middleware"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxPageSize = int32(100)

// Handler holds the dependencies for transaction-related handlers.
type Handler struct {
	Store     storage.ApiStore
	Advisor   advisory.Advisor
	Publisher events.Publisher
	Logger    *slog.Logger
}

// NewHandler creates a new transactions Handler.
func NewHandler(store storage.ApiStore, advisor advisory.Advisor, publisher events.Publisher, logger *slog.Logger) *Handler {
	return &Handler{Store: store, Advisor: advisor, Publisher: publisher, Logger: logger}
}

// CreateTransaction handles POST /transactions.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var newTx api.NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&newTx); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := api.Validate(&newTx); err != nil {
		writeValidationError(w, err)
		return
	}
	if !newTx.Amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: "must be greater than zero", Field: "amount"})
		return
	}

	domainTx := mapping.ToDomainNewTransaction(userID, &newTx)

	updatedWallet, createdTx, err := h.Store.CreateTransaction(r.Context(), domainTx)
	if err != nil {
		h.writeStoreError(w, err, "Failed to create transaction")
		return
	}

	resp := api.CreateTransactionResponse{
		Wallet:      *mapping.ToApiWallet(updatedWallet),
		Transaction: *mapping.ToApiTransaction(createdTx),
	}

	// The advisory is attached when available; its failure never unwinds a
	// committed transaction.
	if h.Advisor != nil {
		result, err := h.Advisor.Evaluate(r.Context(), createdTx)
		if err != nil {
			h.Logger.Warn("advisory evaluation unavailable",
				slog.String("transaction_id", createdTx.Id),
				slog.Any("error", err),
			)
		} else if result != nil {
			resp.Fraud = mapping.ToApiFraudReport(result.Fraud)
			resp.Policy = mapping.ToApiPolicyReport(result.Policy)
		}
	}

	amount := createdTx.Amount
	h.publish(r, &events.Event{
		Type:          events.TransactionCreated,
		UserId:        userID,
		WalletId:      createdTx.WalletId,
		TransactionId: createdTx.Id,
		Amount:        &amount,
	})

	writeJSON(w, http.StatusCreated, resp)
}

// ListTransactions handles GET /transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	txs, err := h.Store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		h.Logger.Error("failed to list transactions", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	apiTxs := make([]*api.Transaction, len(txs))
	for i := range txs {
		apiTxs[i] = mapping.ToApiTransaction(&txs[i])
	}

	writeJSON(w, http.StatusOK, apiTxs)
}

// GetTransaction handles GET /transactions/{id}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txID, ok := transactionID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	tx, err := h.Store.GetTransaction(r.Context(), userID, txID)
	if err != nil {
		h.writeStoreError(w, err, "Failed to retrieve transaction")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiTransaction(tx))
}

// UpdateTransaction handles PATCH /transactions/{id}.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txID, ok := transactionID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	var patch api.TransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := api.Validate(&patch); err != nil {
		writeValidationError(w, err)
		return
	}

	storePatch := storage.TransactionPatch{
		Description: patch.Description,
		Category:    patch.Category,
		Metadata:    patch.Metadata,
	}
	if patch.Status != nil {
		status := models.TransactionStatus(*patch.Status)
		storePatch.Status = &status
	}

	updated, err := h.Store.UpdateTransaction(r.Context(), userID, txID, storePatch)
	if err != nil {
		h.writeStoreError(w, err, "Failed to update transaction")
		return
	}

	h.publish(r, &events.Event{
		Type:          events.TransactionUpdated,
		UserId:        userID,
		WalletId:      updated.WalletId,
		TransactionId: updated.Id,
	})

	writeJSON(w, http.StatusOK, mapping.ToApiTransaction(updated))
}

// DeleteTransaction handles DELETE /transactions/{id}.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txID, ok := transactionID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	updatedWallet, err := h.Store.DeleteTransaction(r.Context(), userID, txID)
	if err != nil {
		h.writeStoreError(w, err, "Failed to delete transaction")
		return
	}

	h.publish(r, &events.Event{
		Type:          events.TransactionDeleted,
		UserId:        userID,
		WalletId:      updatedWallet.Id,
		TransactionId: txID,
	})

	writeJSON(w, http.StatusOK, api.DeleteTransactionResponse{
		Wallet: *mapping.ToApiWallet(updatedWallet),
	})
}

// transactionID parses the id path parameter. A malformed id can never name
// an existing transaction, so the caller responds not found.
func transactionID(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// parseFilter reads the listing query parameters.
func parseFilter(r *http.Request) (storage.TransactionFilter, error) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{Limit: 20}

	if raw := q.Get("walletId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return filter, &api.ValidationError{Field: "walletId", Message: "must be a UUID"}
		}
		filter.WalletID = parsed.String()
	}
	if raw := q.Get("type"); raw != "" {
		if raw != string(models.Credit) && raw != string(models.Debit) {
			return filter, &api.ValidationError{Field: "type", Message: "must be one of: credit debit"}
		}
		t := models.TransactionType(raw)
		filter.Type = &t
	}
	if raw := q.Get("status"); raw != "" {
		switch models.TransactionStatus(raw) {
		case models.PENDING, models.COMPLETED, models.FAILED:
			s := models.TransactionStatus(raw)
			filter.Status = &s
		default:
			return filter, &api.ValidationError{Field: "status", Message: "must be one of: pending completed failed"}
		}
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, &api.ValidationError{Field: "from", Message: "must be an RFC 3339 timestamp"}
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, &api.ValidationError{Field: "to", Message: "must be an RFC 3339 timestamp"}
		}
		filter.To = &t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 {
			return filter, &api.ValidationError{Field: "limit", Message: "must be a positive integer"}
		}
		filter.Limit = int32(n)
		if filter.Limit > maxPageSize {
			filter.Limit = maxPageSize
		}
	}
	if raw := q.Get("skip"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			return filter, &api.ValidationError{Field: "skip", Message: "must be a non-negative integer"}
		}
		filter.Skip = int32(n)
	}

	return filter, nil
}

// writeStoreError maps storage sentinels onto transport status codes.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, storage.ErrWalletNotFound):
		writeError(w, http.StatusNotFound, "Wallet not found")
	case errors.Is(err, storage.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, storage.ErrWalletNotActive):
		writeError(w, http.StatusUnprocessableEntity, "Wallet is not active")
	case errors.Is(err, storage.ErrCurrencyMismatch):
		writeError(w, http.StatusUnprocessableEntity, "Transaction currency does not match wallet currency")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "Wallet was modified concurrently, retry")
	default:
		h.Logger.Error(fallback, slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
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
