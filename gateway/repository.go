package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
)

var (
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("conflict")
)

// Repository stores terminal transaction outcomes. The in-memory backend
// serves tests; the Postgres backend serves runtime. An outcome is recorded
// exactly once: a duplicate transaction ID yields ErrConflict on both
// backends.
type Repository struct {
	mu      sync.RWMutex
	records []*models.TransactionRecord
	index   map[string]struct{}

	db *sql.DB
}

func NewRepository() *Repository {
	return &Repository{
		records: make([]*models.TransactionRecord, 0),
		index:   make(map[string]struct{}),
	}
}

// NewPGRepository constructs a db-backed repository.
func NewPGRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RecordTransaction(ctx context.Context, record *models.TransactionRecord) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.index[record.TransactionID]; ok {
			return fmt.Errorf("transaction %s already recorded: %w", record.TransactionID, ErrConflict)
		}
		r.records = append(r.records, record)
		r.index[record.TransactionID] = struct{}{}
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO gateway.transactions(transaction_id, terminal_id, arn, pan_last4, amount, currency,
                                         payout_network, merchant_wallet, status, message, payout_tx_hash, field39, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `, record.TransactionID, record.TerminalID, record.ARN, record.PANLast4, record.Amount, string(record.Currency),
		string(record.Network), record.Wallet, string(record.Status), record.Message, record.PayoutTxHash, record.Field39, record.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("transaction %s already recorded: %w", record.TransactionID, ErrConflict)
	}
	return err
}

// ListTransactions returns the most recent records, newest first.
func (r *Repository) ListTransactions(ctx context.Context, limit int) ([]*models.TransactionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		out := make([]*models.TransactionRecord, 0, limit)
		for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, r.records[i])
		}
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT transaction_id, terminal_id, arn, pan_last4, amount, currency,
               payout_network, merchant_wallet, status, message, payout_tx_hash, field39, created_at
          FROM gateway.transactions
         ORDER BY created_at DESC
         LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.TransactionRecord
	for rows.Next() {
		var t models.TransactionRecord
		var currency, network, status string
		if err := rows.Scan(&t.TransactionID, &t.TerminalID, &t.ARN, &t.PANLast4, &t.Amount, &currency,
			&network, &t.Wallet, &status, &t.Message, &t.PayoutTxHash, &t.Field39, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Currency = models.Currency(currency)
		t.Network = models.Network(network)
		t.Status = models.Status(status)
		out = append(out, &t)
	}
	return out, rows.Err()
}

// GetTransaction looks one record up by transaction ID.
func (r *Repository) GetTransaction(ctx context.Context, transactionID string) (*models.TransactionRecord, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, t := range r.records {
			if t.TransactionID == transactionID {
				return t, nil
			}
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
        SELECT transaction_id, terminal_id, arn, pan_last4, amount, currency,
               payout_network, merchant_wallet, status, message, payout_tx_hash, field39, created_at
          FROM gateway.transactions
         WHERE transaction_id=$1
    `, transactionID)
	var t models.TransactionRecord
	var currency, network, status string
	if err := row.Scan(&t.TransactionID, &t.TerminalID, &t.ARN, &t.PANLast4, &t.Amount, &currency,
		&network, &t.Wallet, &status, &t.Message, &t.PayoutTxHash, &t.Field39, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Currency = models.Currency(currency)
	t.Network = models.Network(network)
	t.Status = models.Status(status)
	return &t, nil
}

// Ping returns DB readiness
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
