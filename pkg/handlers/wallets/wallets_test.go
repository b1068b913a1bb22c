package wallets

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/wallet-ledger/pkg/api"
	"github.com/chris/wallet-ledger/pkg/events"
	eventsmocks "github.com/chris/wallet-ledger/pkg/events/mocks"
	"github.com/chris/wallet-ledger/pkg/middleware"
	"github.com/chris/wallet-ledger/pkg/models"
	"github.com/chris/wallet-ledger/pkg/storage"
	"github.com/chris/wallet-ledger/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

func testWallet(t *testing.T) *models.Wallet {
	t.Helper()
	balance, err := models.MoneyFromString("1000")
	require.NoError(t, err)
	return &models.Wallet{
		Id:             "0b663501-33dc-4b36-a4a8-33ec73432b4f",
		UserId:         "test-user",
		Name:           "Personal Wallet",
		Currency:       "INR",
		Balance:        balance,
		OpeningBalance: balance,
		Status:         models.WalletActive,
		Version:        1,
	}
}

func TestGetWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("GetWallet", mock.Anything, "test-user").Return(testWallet(t), nil)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.GetWallet(rr, authedRequest(t, http.MethodGet, "/wallet", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Wallet
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "test-user", got.UserId)
		assert.Equal(t, "1000", got.Balance.String())
		assert.Equal(t, "active", got.Status)
		mockStore.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("GetWallet", mock.Anything, "test-user").Return(nil, storage.ErrWalletNotFound)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.GetWallet(rr, authedRequest(t, http.MethodGet, "/wallet", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Missing User", func(t *testing.T) {
		handler := NewHandler(new(mocks.Storage), nil, testLogger())
		rr := httptest.NewRecorder()
		handler.GetWallet(rr, httptest.NewRequest(http.MethodGet, "/wallet", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestCreateWallet(t *testing.T) {
	t.Run("Success With Defaults", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("CreateWallet", mock.Anything, mock.MatchedBy(func(w *models.Wallet) bool {
			return w.UserId == "test-user" &&
				w.Name == "Personal Wallet" &&
				w.Currency == "INR" &&
				w.Balance.IsZero() &&
				w.Version == 1
		})).Return(testWallet(t), nil)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateWallet(rr, authedRequest(t, http.MethodPost, "/wallet", api.NewWallet{}))

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Initial Balance Becomes Opening Balance", func(t *testing.T) {
		initial, err := models.MoneyFromString("250.75")
		require.NoError(t, err)

		mockStore := new(mocks.Storage)
		mockStore.On("CreateWallet", mock.Anything, mock.MatchedBy(func(w *models.Wallet) bool {
			return w.Balance.Equal(initial) && w.OpeningBalance.Equal(initial)
		})).Return(testWallet(t), nil)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateWallet(rr, authedRequest(t, http.MethodPost, "/wallet", api.NewWallet{InitialBalance: &initial}))

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Negative Initial Balance", func(t *testing.T) {
		negative, err := models.MoneyFromString("-5")
		require.NoError(t, err)

		mockStore := new(mocks.Storage)
		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateWallet(rr, authedRequest(t, http.MethodPost, "/wallet", api.NewWallet{InitialBalance: &negative}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "initialBalance", got.Field)
		mockStore.AssertNotCalled(t, "CreateWallet", mock.Anything, mock.Anything)
	})

	t.Run("Already Exists", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("CreateWallet", mock.Anything, mock.Anything).Return(nil, storage.ErrWalletExists)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateWallet(rr, authedRequest(t, http.MethodPost, "/wallet", api.NewWallet{}))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Publishes Audit Event", func(t *testing.T) {
		created := testWallet(t)

		mockStore := new(mocks.Storage)
		mockStore.On("CreateWallet", mock.Anything, mock.Anything).Return(created, nil)

		mockPublisher := new(eventsmocks.Publisher)
		mockPublisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *events.Event) bool {
			return e.Type == events.WalletCreated && e.UserId == "test-user" && e.WalletId == created.Id
		})).Return(nil)

		handler := NewHandler(mockStore, mockPublisher, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateWallet(rr, authedRequest(t, http.MethodPost, "/wallet", api.NewWallet{}))

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Publish Failure Still Succeeds", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("CreateWallet", mock.Anything, mock.Anything).Return(testWallet(t), nil)

		mockPublisher := new(eventsmocks.Publisher)
		mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("queue unreachable"))

		handler := NewHandler(mockStore, mockPublisher, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateWallet(rr, authedRequest(t, http.MethodPost, "/wallet", api.NewWallet{}))

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Bad Currency Code", func(t *testing.T) {
		currency := "RUPEES"
		handler := NewHandler(new(mocks.Storage), nil, testLogger())
		rr := httptest.NewRecorder()
		handler.CreateWallet(rr, authedRequest(t, http.MethodPost, "/wallet", api.NewWallet{Currency: &currency}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "currency", got.Field)
	})
}

func TestUpdateWallet(t *testing.T) {
	t.Run("Freeze Wallet", func(t *testing.T) {
		frozen := testWallet(t)
		frozen.Status = models.WalletFrozen

		mockStore := new(mocks.Storage)
		mockStore.On("UpdateWallet", mock.Anything, "test-user", mock.MatchedBy(func(p storage.WalletPatch) bool {
			return p.Status != nil && *p.Status == models.WalletFrozen
		})).Return(frozen, nil)

		status := "frozen"
		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.UpdateWallet(rr, authedRequest(t, http.MethodPatch, "/wallet", api.WalletPatch{Status: &status}))

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Wallet
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "frozen", got.Status)
		mockStore.AssertExpectations(t)
	})

	t.Run("Invalid Status", func(t *testing.T) {
		status := "dormant"
		handler := NewHandler(new(mocks.Storage), nil, testLogger())
		rr := httptest.NewRecorder()
		handler.UpdateWallet(rr, authedRequest(t, http.MethodPatch, "/wallet", api.WalletPatch{Status: &status}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Version Conflict", func(t *testing.T) {
		name := "Travel"
		mockStore := new(mocks.Storage)
		mockStore.On("UpdateWallet", mock.Anything, "test-user", mock.Anything).Return(nil, storage.ErrConflict)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.UpdateWallet(rr, authedRequest(t, http.MethodPatch, "/wallet", api.WalletPatch{Name: &name}))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestDeleteWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("DeleteWallet", mock.Anything, "test-user").Return(nil)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.DeleteWallet(rr, authedRequest(t, http.MethodDelete, "/wallet", nil))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Blocked By Transactions", func(t *testing.T) {
		mockStore := new(mocks.Storage)
		mockStore.On("DeleteWallet", mock.Anything, "test-user").Return(storage.ErrWalletNotEmpty)

		handler := NewHandler(mockStore, nil, testLogger())
		rr := httptest.NewRecorder()
		handler.DeleteWallet(rr, authedRequest(t, http.MethodDelete, "/wallet", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
