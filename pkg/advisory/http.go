package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chris/wallet-ledger/pkg/models"
)

// DefaultTimeout bounds a single advisory call.
const DefaultTimeout = 3 * time.Second

// HTTPAdvisor calls the advisory service over HTTP.
type HTTPAdvisor struct {
	Client  *http.Client
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAdvisor creates an HTTPAdvisor for the given base URL. A
// non-positive timeout falls back to DefaultTimeout.
func NewHTTPAdvisor(baseURL string, timeout time.Duration) *HTTPAdvisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPAdvisor{
		Client:  &http.Client{},
		BaseURL: baseURL,
		Timeout: timeout,
	}
}

// Make sure we conform to the interface
var _ Advisor = (*HTTPAdvisor)(nil)

// evaluateRequest is the advisory service's input contract.
type evaluateRequest struct {
	TransactionId string       `json:"transactionId"`
	Type          string       `json:"type"`
	Amount        models.Money `json:"amount"`
	Currency      string       `json:"currency"`
	Category      string       `json:"category,omitempty"`
	Description   string       `json:"description,omitempty"`
}

// Evaluate posts the transaction to the advisory service. Every failure mode,
// including timeout, surfaces as ErrUnavailable so callers can treat the
// advisory as absent rather than failing the transaction.
func (a *HTTPAdvisor) Evaluate(ctx context.Context, tx *models.Transaction) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	body, err := json.Marshal(evaluateRequest{
		TransactionId: tx.Id,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Category:      tx.Category,
		Description:   tx.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal advisory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	return &result, nil
}
