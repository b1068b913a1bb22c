// Package advisory wraps the external fraud/policy advisory collaborator.
// The advisor enriches a just-created transaction with risk and compliance
// metadata; it is never on the critical path for ledger correctness.
package advisory

import (
	"context"
	"errors"

	"github.com/chris/wallet-ledger/pkg/models"
)

// ErrUnavailable is returned when the advisory service failed or timed out.
// Callers log it and return the transaction without advisory fields.
var ErrUnavailable = errors.New("advisory service unavailable")

// Fraud is the risk assessment for a single transaction.
type Fraud struct {
	RiskScore int      `json:"riskScore"`
	Flagged   bool     `json:"flagged"`
	Reasons   []string `json:"reasons,omitempty"`
}

// Policy carries refund-policy and compliance notices for a transaction.
type Policy struct {
	RefundPolicy  string   `json:"refundPolicy,omitempty"`
	LegalNotices  []string `json:"legalNotices,omitempty"`
	Disclaimers   []string `json:"disclaimers,omitempty"`
	Consultations []string `json:"consultations,omitempty"`
}

// Result is the advisory output attached to a transaction response.
type Result struct {
	Fraud  *Fraud  `json:"fraud,omitempty"`
	Policy *Policy `json:"policy,omitempty"`
}

// Advisor evaluates a finalized transaction and returns advisory metadata.
type Advisor interface {
	Evaluate(ctx context.Context, tx *models.Transaction) (*Result, error)
}
