package gateway_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alovak/crypto-pos-gateway/gateway"
	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/stretchr/testify/require"
)

func testRecord(id string) *models.TransactionRecord {
	return &models.TransactionRecord{
		TransactionID: id,
		TerminalID:    "TERM001",
		ARN:           "ARN123456789012",
		PANLast4:      "9011",
		Amount:        100_00,
		Currency:      models.CurrencyUSD,
		Network:       models.NetworkERC20,
		Status:        models.StatusApproved,
		Message:       "Transaction Approved",
		Field39:       "00",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestRecordTransactionOnce(t *testing.T) {
	repo := gateway.NewRepository()

	require.NoError(t, repo.RecordTransaction(context.Background(), testRecord("TXN-1")))

	err := repo.RecordTransaction(context.Background(), testRecord("TXN-1"))
	require.ErrorIs(t, err, gateway.ErrConflict)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	repo := gateway.NewRepository()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.RecordTransaction(context.Background(), testRecord(fmt.Sprintf("TXN-%d", i))))
	}

	records, err := repo.ListTransactions(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "TXN-4", records[0].TransactionID)
	require.Equal(t, "TXN-2", records[2].TransactionID)
}

func TestGetTransaction(t *testing.T) {
	repo := gateway.NewRepository()
	require.NoError(t, repo.RecordTransaction(context.Background(), testRecord("TXN-42")))

	record, err := repo.GetTransaction(context.Background(), "TXN-42")
	require.NoError(t, err)
	require.Equal(t, "9011", record.PANLast4)

	_, err = repo.GetTransaction(context.Background(), "TXN-missing")
	require.ErrorIs(t, err, gateway.ErrNotFound)
}
