package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/field39"
	"github.com/alovak/crypto-pos-gateway/internal/payout"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// state names one step of a transaction's lifecycle. States are per-request;
// nothing is shared between orchestrations except the wallet rotation
// cursor inside the dispatcher.
type state string

const (
	stateReceived        state = "received"
	stateValidated       state = "validated"
	stateDecided         state = "decided"
	statePayoutAttempted state = "payout_attempted"
	stateSettled         state = "settled"
	statePayoutFailed    state = "payout_failed"
	stateDeclined        state = "declined"
)

// Dispatcher is the settlement contract the orchestrator depends on. It
// reports the wallet the attempt resolved to so the history record names
// the destination even on the rotation path. A real chain adapter can
// replace the simulated one without touching this file.
type Dispatcher interface {
	Dispatch(ctx context.Context, token models.Token, network models.Network, dest string, amount int64) (txHash, wallet string, err error)
}

// Processor orchestrates one transaction end to end: validate, decide,
// settle, record. All transitions are synchronous within the request.
type Processor struct {
	dispatcher Dispatcher
	repo       *Repository
	config     *Config
	logger     *slog.Logger
}

func NewProcessor(dispatcher Dispatcher, repo *Repository, config *Config, logger *slog.Logger) *Processor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Processor{
		dispatcher: dispatcher,
		repo:       repo,
		config:     config,
		logger:     logger.With(slog.String("component", "processor")),
	}
}

// Process runs the transaction state machine. Every failure is a value on
// the returned outcome; nothing here panics or aborts the process.
func (p *Processor) Process(ctx context.Context, req models.TransactionRequest) models.TransactionOutcome {
	logger := p.logger.With(slog.String("pan_last4", models.PANLast4(req.PAN)))
	logger.Info("transaction received", slog.String("state", string(stateReceived)))

	// Received -> Validated | Declined
	if field, ok := ValidateRequest(req); !ok {
		outcome := models.TransactionOutcome{
			Status:  models.StatusRejected,
			Message: fmt.Sprintf("Missing field: %s", field),
			Field39: field39.GeneralError,
		}
		p.finish(ctx, logger, stateDeclined, req, outcome)
		return outcome
	}
	logger.Info("transaction validated", slog.String("state", string(stateValidated)))

	// Validated -> Decided
	decision := Decide(req)
	logger.Info("authorization decided",
		slog.String("state", string(stateDecided)),
		slog.String("code", decision.Code),
		slog.Bool("approved", decision.Approved),
	)

	// Decided -> Declined
	if !decision.Approved {
		outcome := models.TransactionOutcome{
			Status:        models.StatusRejected,
			Message:       decision.Message,
			TransactionID: decision.TransactionID,
			ARN:           decision.ARN,
			Field39:       decision.Code,
		}
		p.finish(ctx, logger, stateDeclined, req, outcome)
		return outcome
	}

	// Decided -> PayoutAttempted
	token := p.settlementToken(req.Currency)
	logger.Info("payout attempt",
		slog.String("state", string(statePayoutAttempted)),
		slog.String("token", string(token)),
		slog.String("network", string(req.Network)),
	)
	txHash, wallet, err := p.dispatcher.Dispatch(ctx, token, req.Network, req.Wallet, req.Amount)
	if wallet != "" {
		// History names the rotated destination, not the empty override.
		req.Wallet = wallet
	}

	outcome := models.TransactionOutcome{
		TransactionID: decision.TransactionID,
		ARN:           decision.ARN,
		// A card approval is never reversed because of a payout-layer
		// problem; field 39 stays "00" on every approved path.
		Field39: decision.Code,
	}

	// PayoutAttempted -> Settled | PayoutFailed
	if err == nil {
		outcome.Status = models.StatusApproved
		outcome.Message = decision.Message
		outcome.PayoutTxHash = txHash
		p.finish(ctx, logger, stateSettled, req, outcome)
		return outcome
	}

	outcome.Status = payoutFailureStatus(err)
	outcome.Message = err.Error()
	p.finish(ctx, logger, statePayoutFailed, req, outcome)
	return outcome
}

func (p *Processor) settlementToken(currency models.Currency) models.Token {
	if token, ok := p.config.SettlementTokens[currency]; ok {
		return token
	}
	// Unmapped currencies flow through unchanged so the dispatcher's token
	// gate stays the single authority on what settles.
	return models.Token(currency)
}

func payoutFailureStatus(err error) models.Status {
	switch {
	case errors.Is(err, payout.ErrTimeout):
		return models.StatusApprovedPayoutTimeout
	case errors.Is(err, payout.ErrConnection):
		return models.StatusApprovedPayoutConnError
	default:
		return models.StatusApprovedPayoutFailed
	}
}

// finish logs the terminal transition and records the outcome once. A
// recording failure never changes the decision the caller sees.
func (p *Processor) finish(ctx context.Context, logger *slog.Logger, terminal state, req models.TransactionRequest, outcome models.TransactionOutcome) {
	logger.Info("transaction finished",
		slog.String("state", string(terminal)),
		slog.String("status", string(outcome.Status)),
		slog.String("field39", outcome.Field39),
	)

	if p.repo == nil {
		return
	}
	// Declines carry no transaction ID on the wire; history still needs a
	// unique key, so mint one for the record only.
	recordID := outcome.TransactionID
	if recordID == "" {
		recordID = "TXN-" + uuid.New().String()
	}
	record := &models.TransactionRecord{
		TransactionID: recordID,
		TerminalID:    p.config.TerminalID,
		ARN:           outcome.ARN,
		PANLast4:      models.PANLast4(req.PAN),
		Amount:        req.Amount,
		Currency:      req.Currency,
		Network:       req.Network,
		Wallet:        req.Wallet,
		Status:        outcome.Status,
		Message:       outcome.Message,
		PayoutTxHash:  outcome.PayoutTxHash,
		Field39:       outcome.Field39,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.repo.RecordTransaction(ctx, record); err != nil {
		if errors.Is(err, ErrConflict) {
			logger.Info("outcome already recorded", slog.String("transaction_id", outcome.TransactionID))
			return
		}
		logger.Error("recording outcome", "err", err)
	}
}
