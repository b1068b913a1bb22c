package transactions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/wallet-ledger/pkg/advisory"
	advisorymocks "github.com/chris/wallet-ledger/pkg/advisory/mocks"
	"github.com/chris/wallet-ledger/pkg/api"
	"github.com/chris/wallet-ledger/pkg/events"
	eventsmocks "github.com/chris/wallet-ledger/pkg/events/mocks"
	"github.com/chris/wallet-ledger/pkg/middleware"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
	"github.com/chris/wallet-ledger/pkg/storage/mocks"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testWalletID      = "0b663501-33dc-4b36-a4a8-33ec73432b4f"
	testTransactionID = "7f3c7658-30a1-4a4c-b5bd-fb1c0cc33e23"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	return r.WithContext(middleware.WithUserID(r.Context(), "test-user"))
}

// withURLParam plants a chi route parameter so handlers can be exercised
// without the full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func testWallet(t *testing.T, balance string) *models.Wallet {
	t.Helper()
	b, err := models.MoneyFromString(balance)
	require.NoError(t, err)
	return &models.Wallet{
		Id:             testWalletID,
		UserId:         "test-user",
		Name:           "Personal Wallet",
		Currency:       "INR",
		Balance:        b,
		OpeningBalance: b,
		Status:         models.WalletActive,
		Version:        2,
	}
}

func testTransaction(t *testing.T, txType models.TransactionType, amount string) *models.Transaction {
	t.Helper()
	a, err := models.MoneyFromString(amount)
	require.NoError(t, err)
	return &models.Transaction{
		Id:       testTransactionID,
		WalletId: testWalletID,
		UserId:   "test-user",
		Type:     txType,
		Amount:   a,
		Currency: "INR",
		Status:   models.COMPLETED,
		Hash:     "deadbeef",
	}
}

func TestCreateTransaction(t *testing.T) {
	newDebit := func(t *testing.T, amount string) api.NewTransaction {
		a, err := models.MoneyFromString(amount)
		require.NoError(t, err)
		return api.NewTransaction{Type: "debit", Amount: a}
	}

	t.Run("Success With Advisory Attached", func(t *testing.T) {
		created := testTransaction(t, models.Debit, "200")
		updated := testWallet(t, "800")

		mockStore := new(mocks.Storage)
		mockStore.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.UserId == "test-user" && tx.Type == models.Debit
		})).Return(updated, created, nil)

		mockAdvisor := new(advisorymocks.Advisor)
		mockAdvisor.On("Evaluate", mock.Anything, created).Return(&advisory.Result{
			Fraud:  &advisory.Fraud{RiskScore: 12, Flagged: false},
			Policy: &advisory.Policy{RefundPolicy: "7-day refund window"},
		}, nil)

		handler := NewHandler(mockStore, mockAdvisor, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "200")))

		require.Equal(t, http.StatusCreated, rr.Code)
		var got api.CreateTransactionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "800", got.Wallet.Balance.String())
		assert.Equal(t, "completed", got.Transaction.Status)
		require.NotNil(t, got.Fraud)
		assert.Equal(t, 12, got.Fraud.RiskScore)
		require.NotNil(t, got.Policy)
		assert.Equal(t, "7-day refund window", got.Policy.RefundPolicy)
		mockStore.AssertExpectations(t)
		mockAdvisor.AssertExpectations(t)
	})

	t.Run("Advisory Down Still Commits", func(t *testing.T) {
		created := testTransaction(t, models.Debit, "200")
		updated := testWallet(t, "800")

		mockStore := new(mocks.Storage)
		mockStore.On("CreateTransaction", mock.Anything, mock.Anything).Return(updated, created, nil)

		mockAdvisor := new(advisorymocks.Advisor)
		mockAdvisor.On("Evaluate", mock.Anything, mock.Anything).Return(nil, advisory.ErrUnavailable)

		handler := NewHandler(mockStore, mockAdvisor, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "200")))

		require.Equal(t, http.StatusCreated, rr.Code)
		var got api.CreateTransactionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Nil(t, got.Fraud)
		assert.Nil(t, got.Policy)
	})

	t.Run("No Advisor Configured", func(t *testing.T) {
		created := testTransaction(t, models.Debit, "200")
		updated := testWallet(t, "800")

		mockStore := new(mocks.Storage)
		mockStore.On("CreateTransaction", mock.Anything, mock.Anything).Return(updated, created, nil)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "200")))

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Publishes Audit Event With Amount", func(t *testing.T) {
		created := testTransaction(t, models.Debit, "200")
		updated := testWallet(t, "800")

		mockStore := new(mocks.Storage)
		mockStore.On("CreateTransaction", mock.Anything, mock.Anything).Return(updated, created, nil)

		mockPublisher := new(eventsmocks.Publisher)
		mockPublisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *events.Event) bool {
			return e.Type == events.TransactionCreated &&
				e.TransactionId == created.Id &&
				e.Amount != nil && e.Amount.Equal(created.Amount)
		})).Return(nil)

		handler := NewHandler(mockStore, nil, mockPublisher, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "200")))

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Zero Amount", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "0")))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "amount", got.Field)
		mockStore.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	})

	t.Run("Missing Type", func(t *testing.T) {
		a, err := models.MoneyFromString("50")
		require.NoError(t, err)

		handler := NewHandler(new(mocks.Storage), nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", api.NewTransaction{Amount: a}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "type", got.Field)
	})

	t.Run("Frozen Wallet", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("CreateTransaction", mock.Anything, mock.Anything).Return(nil, nil, storage.ErrWalletNotActive)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "200")))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Currency Mismatch", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("CreateTransaction", mock.Anything, mock.Anything).Return(nil, nil, storage.ErrCurrencyMismatch)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "200")))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Version Conflict", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("CreateTransaction", mock.Anything, mock.Anything).Return(nil, nil, storage.ErrConflict)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, authedRequest(t, http.MethodPost, "/transactions", newDebit(t, "200")))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestListTransactions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		txs := []models.Transaction{
			*testTransaction(t, models.Credit, "500"),
			*testTransaction(t, models.Debit, "200"),
		}

		mockStore := new(mocks.Storage)
		mockStore.On("ListTransactions", mock.Anything, "test-user", mock.MatchedBy(func(f storage.TransactionFilter) bool {
			return f.Limit == 20 && f.Skip == 0
		})).Return(txs, nil)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.ListTransactions(rr, authedRequest(t, http.MethodGet, "/transactions", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got []api.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Len(t, got, 2)
		mockStore.AssertExpectations(t)
	})

	t.Run("Filter And Paging Parameters", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("ListTransactions", mock.Anything, "test-user", mock.MatchedBy(func(f storage.TransactionFilter) bool {
			return f.WalletID == testWalletID &&
				f.Type != nil && *f.Type == models.Debit &&
				f.Status != nil && *f.Status == models.COMPLETED &&
				f.Limit == 5 && f.Skip == 10
		})).Return([]models.Transaction{}, nil)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		target := "/transactions?walletId=" + testWalletID + "&type=debit&status=completed&limit=5&skip=10"
		handler.ListTransactions(rr, authedRequest(t, http.MethodGet, target, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Limit Capped At Max Page Size", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("ListTransactions", mock.Anything, "test-user", mock.MatchedBy(func(f storage.TransactionFilter) bool {
			return f.Limit == maxPageSize
		})).Return([]models.Transaction{}, nil)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.ListTransactions(rr, authedRequest(t, http.MethodGet, "/transactions?limit=5000", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Invalid Type", func(t *testing.T) {
		handler := NewHandler(new(mocks.Storage), nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.ListTransactions(rr, authedRequest(t, http.MethodGet, "/transactions?type=transfer", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "type", got.Field)
	})

	t.Run("Invalid Skip", func(t *testing.T) {
		handler := NewHandler(new(mocks.Storage), nil, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.ListTransactions(rr, authedRequest(t, http.MethodGet, "/transactions?skip=-1", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		tx := testTransaction(t, models.Credit, "500")

		mockStore := new(mocks.Storage)
		mockStore.On("GetTransaction", mock.Anything, "test-user", testTransactionID).Return(tx, nil)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodGet, "/transactions/"+testTransactionID, nil), "id", testTransactionID)
		handler.GetTransaction(rr, r)

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "500", got.Amount.String())
		assert.Equal(t, "deadbeef", got.Hash)
		mockStore.AssertExpectations(t)
	})

	t.Run("Malformed Id Reads As Not Found", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodGet, "/transactions/not-a-uuid", nil), "id", "not-a-uuid")
		handler.GetTransaction(rr, r)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStore.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("GetTransaction", mock.Anything, "test-user", testTransactionID).Return(nil, storage.ErrTransactionNotFound)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodGet, "/transactions/"+testTransactionID, nil), "id", testTransactionID)
		handler.GetTransaction(rr, r)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("Status Transition", func(t *testing.T) {
		updated := testTransaction(t, models.Credit, "500")
		updated.Status = models.FAILED

		mockStore := new(mocks.Storage)
		mockStore.On("UpdateTransaction", mock.Anything, "test-user", testTransactionID, mock.MatchedBy(func(p storage.TransactionPatch) bool {
			return p.Status != nil && *p.Status == models.FAILED
		})).Return(updated, nil)

		status := "failed"
		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodPatch, "/transactions/"+testTransactionID, api.TransactionPatch{Status: &status}), "id", testTransactionID)
		handler.UpdateTransaction(rr, r)

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "failed", got.Status)
		mockStore.AssertExpectations(t)
	})

	t.Run("Invalid Status", func(t *testing.T) {
		status := "reverted"
		handler := NewHandler(new(mocks.Storage), nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodPatch, "/transactions/"+testTransactionID, api.TransactionPatch{Status: &status}), "id", testTransactionID)
		handler.UpdateTransaction(rr, r)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Conflict", func(t *testing.T) {
		description := "rent"
		mockStore := new(mocks.Storage)
		mockStore.On("UpdateTransaction", mock.Anything, "test-user", testTransactionID, mock.Anything).Return(nil, storage.ErrConflict)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodPatch, "/transactions/"+testTransactionID, api.TransactionPatch{Description: &description}), "id", testTransactionID)
		handler.UpdateTransaction(rr, r)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("Returns Wallet With Reversal Applied", func(t *testing.T) {
		updated := testWallet(t, "500")

		mockStore := new(mocks.Storage)
		mockStore.On("DeleteTransaction", mock.Anything, "test-user", testTransactionID).Return(updated, nil)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodDelete, "/transactions/"+testTransactionID, nil), "id", testTransactionID)
		handler.DeleteTransaction(rr, r)

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.DeleteTransactionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "500", got.Wallet.Balance.String())
		mockStore.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("DeleteTransaction", mock.Anything, "test-user", testTransactionID).Return(nil, storage.ErrTransactionNotFound)

		handler := NewHandler(mockStore, nil, nil, testLogger())
		rr := httptest.NewRecorder()
		r := withURLParam(authedRequest(t, http.MethodDelete, "/transactions/"+testTransactionID, nil), "id", testTransactionID)
		handler.DeleteTransaction(rr, r)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
