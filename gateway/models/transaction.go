package models

import (
	"fmt"
	"strings"
	"time"
)

// Network identifies the token-transfer standard used for the payout leg.
type Network string

const (
	NetworkERC20 Network = "ERC20"
	NetworkTRC20 Network = "TRC20"
)

// ParseNetwork rejects unknown payout networks at the boundary so internal
// logic only ever sees the closed set.
func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToUpper(strings.TrimSpace(s))) {
	case NetworkERC20:
		return NetworkERC20, nil
	case NetworkTRC20:
		return NetworkTRC20, nil
	}
	return "", fmt.Errorf("unknown payout network: %q", s)
}

// Token is a settlement token accepted by the payout layer.
type Token string

const (
	TokenUSDT Token = "USDT"
	TokenUSDC Token = "USDC"
)

// Currency is the transaction currency as captured by the terminal. Fiat
// currencies settle through the configured token mapping; token currencies
// settle as themselves.
type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyEUR  Currency = "EUR"
	CurrencyUSDT Currency = "USDT"
	CurrencyUSDC Currency = "USDC"
)

func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case CurrencyUSD:
		return CurrencyUSD, nil
	case CurrencyEUR:
		return CurrencyEUR, nil
	case CurrencyUSDT:
		return CurrencyUSDT, nil
	case CurrencyUSDC:
		return CurrencyUSDC, nil
	}
	return "", fmt.Errorf("unknown currency: %q", s)
}

// TransactionRequest is the immutable value handed to the orchestrator once
// the caller has assembled all fields. The core never observes a partial
// request.
type TransactionRequest struct {
	PAN      string   // digit string
	Expiry   string   // MMYY
	CVV      string   // 3 or 4 digits
	Amount   int64    // minor units, > 0
	Currency Currency
	Network  Network
	Wallet   string // optional payout address override; empty means rotate
}

// AuthorizationDecision is the decision engine's verdict. Code "00" if and
// only if Approved.
type AuthorizationDecision struct {
	Approved      bool
	Code          string
	Message       string
	TransactionID string
	ARN           string
}

// PayoutResult captures the settlement attempt. Exactly one of TxHash or
// FailureReason is set; a failed payout is never retried here.
type PayoutResult struct {
	TxHash        string
	FailureReason string
}

// Status is the orchestrator's terminal status vocabulary, shared with the
// original terminal frontend. Do not rename values.
type Status string

const (
	StatusApproved                Status = "approved"
	StatusApprovedPayoutFailed    Status = "approved_payout_failed"
	StatusApprovedPayoutTimeout   Status = "approved_payout_timeout"
	StatusApprovedPayoutConnError Status = "approved_payout_connection_error"
	StatusRejected                Status = "rejected"
)

// TransactionOutcome is the externally visible result of one orchestration.
// JSON keys match the original gateway response contract.
type TransactionOutcome struct {
	Status        Status `json:"status"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
	ARN           string `json:"arn,omitempty"`
	PayoutTxHash  string `json:"payout_tx_hash,omitempty"`
	Field39       string `json:"field39"`
}

// TransactionRecord is the persisted history entry for one outcome. The PAN
// is reduced to its last four digits before it reaches the repository.
type TransactionRecord struct {
	TransactionID string    `json:"transaction_id"`
	TerminalID    string    `json:"terminal_id"`
	ARN           string    `json:"arn"`
	PANLast4      string    `json:"card_pan_last4"`
	Amount        int64     `json:"amount"`
	Currency      Currency  `json:"currency"`
	Network       Network   `json:"payout_type"`
	Wallet        string    `json:"merchant_wallet,omitempty"`
	Status        Status    `json:"status"`
	Message       string    `json:"message"`
	PayoutTxHash  string    `json:"payout_tx_hash,omitempty"`
	Field39       string    `json:"iso_field39"`
	CreatedAt     time.Time `json:"timestamp"`
}

// PANLast4 masks a PAN down to its trailing digits for storage and logs.
func PANLast4(pan string) string {
	if len(pan) <= 4 {
		return pan
	}
	return pan[len(pan)-4:]
}
