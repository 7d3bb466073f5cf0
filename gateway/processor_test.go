package gateway_test

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/alovak/crypto-pos-gateway/gateway"
	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/payout"
	"github.com/alovak/crypto-pos-gateway/internal/wallets"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type processorFixture struct {
	processor *gateway.Processor
	repo      *gateway.Repository
	eth       *payout.SimClient
	tron      *payout.SimClient
}

func newProcessorFixture(t *testing.T, payoutTimeout time.Duration) *processorFixture {
	t.Helper()

	config := gateway.DefaultConfig()
	config.PayoutTimeout = payoutTimeout

	signer := payout.NewDemoSigner([]byte("test-key"))
	eth := payout.NewEthereumClient(signer)
	tron := payout.NewTronClient(signer)

	registry := wallets.NewRegistry(config.Wallets)
	logger := slog.New(slog.NewTextHandler(io.Discard))
	dispatcher := payout.NewDispatcher(map[models.Network]payout.Client{
		models.NetworkERC20: eth,
		models.NetworkTRC20: tron,
	}, registry, payoutTimeout, logger)

	repo := gateway.NewRepository()

	return &processorFixture{
		processor: gateway.NewProcessor(dispatcher, repo, config, logger),
		repo:      repo,
		eth:       eth,
		tron:      tron,
	}
}

// Scenario A: valid Visa, 100.00 USD over ERC20 settles against a rotated
// ERC20 wallet.
func TestProcessApprovedAndSettled(t *testing.T) {
	f := newProcessorFixture(t, time.Second)

	outcome := f.processor.Process(context.Background(), models.TransactionRequest{
		PAN:      "4114755393849011",
		Expiry:   "0926",
		CVV:      "363",
		Amount:   100_00,
		Currency: models.CurrencyUSD,
		Network:  models.NetworkERC20,
	})

	require.Equal(t, models.StatusApproved, outcome.Status)
	require.Equal(t, "00", outcome.Field39)
	require.True(t, strings.HasPrefix(outcome.PayoutTxHash, "0x"))
	require.NotEmpty(t, outcome.TransactionID)
	require.NotEmpty(t, outcome.ARN)

	records, err := f.repo.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, outcome.TransactionID, records[0].TransactionID)
	require.Equal(t, "9011", records[0].PANLast4)
	require.Equal(t, models.StatusApproved, records[0].Status)
	// The rotation path still names the destination in the history record.
	require.Equal(t, "0xWallet1ERC20", records[0].Wallet)
}

// Scenario B: Discover declines with "05" and no payout is attempted.
func TestProcessDeclinedCardSkipsPayout(t *testing.T) {
	f := newProcessorFixture(t, time.Second)
	f.eth.FailWith = io.ErrUnexpectedEOF // would surface if dispatch ran

	outcome := f.processor.Process(context.Background(), models.TransactionRequest{
		PAN:      "6011000990131077",
		Expiry:   "0825",
		CVV:      "330",
		Amount:   42_00,
		Currency: models.CurrencyUSD,
		Network:  models.NetworkERC20,
	})

	require.Equal(t, models.StatusRejected, outcome.Status)
	require.Equal(t, "05", outcome.Field39)
	require.Empty(t, outcome.PayoutTxHash)

	records, err := f.repo.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.StatusRejected, records[0].Status)
}

// Scenario C: approval survives a payout timeout; field 39 stays "00".
func TestProcessPayoutTimeout(t *testing.T) {
	f := newProcessorFixture(t, 20*time.Millisecond)
	f.eth.Latency = 500 * time.Millisecond

	outcome := f.processor.Process(context.Background(), models.TransactionRequest{
		PAN:      "4114755393849011",
		Expiry:   "0926",
		CVV:      "363",
		Amount:   100_00,
		Currency: models.CurrencyUSD,
		Network:  models.NetworkERC20,
	})

	require.Equal(t, models.StatusApprovedPayoutTimeout, outcome.Status)
	require.Equal(t, "00", outcome.Field39)
	require.Empty(t, outcome.PayoutTxHash)
	require.NotEmpty(t, outcome.TransactionID)

	// Even a failed attempt records the wallet it was addressed to.
	records, err := f.repo.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "0xWallet1ERC20", records[0].Wallet)
}

func TestProcessPayoutConnectionError(t *testing.T) {
	f := newProcessorFixture(t, time.Second)
	f.tron.FailWith = &net.OpError{Op: "dial", Err: io.ErrUnexpectedEOF}

	outcome := f.processor.Process(context.Background(), models.TransactionRequest{
		PAN:      "5454957994741066",
		Expiry:   "1126",
		CVV:      "746",
		Amount:   250_00,
		Currency: models.CurrencyUSDT,
		Network:  models.NetworkTRC20,
	})

	require.Equal(t, models.StatusApprovedPayoutConnError, outcome.Status)
	require.Equal(t, "00", outcome.Field39)
	require.Empty(t, outcome.PayoutTxHash)
}

func TestProcessValidationFailure(t *testing.T) {
	f := newProcessorFixture(t, time.Second)

	outcome := f.processor.Process(context.Background(), models.TransactionRequest{
		PAN:      "4114755393849011",
		Expiry:   "0926",
		CVV:      "363",
		Currency: models.CurrencyUSD,
		Network:  models.NetworkERC20,
		// Amount missing.
	})

	require.Equal(t, models.StatusRejected, outcome.Status)
	require.Equal(t, "99", outcome.Field39)
	require.Equal(t, "Missing field: amount", outcome.Message)

	// Declines are still recorded for the history dashboard.
	records, err := f.repo.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotEmpty(t, records[0].TransactionID)
}

func TestProcessFiatSettlesThroughTokenMapping(t *testing.T) {
	f := newProcessorFixture(t, time.Second)

	outcome := f.processor.Process(context.Background(), models.TransactionRequest{
		PAN:      "4114755393849011",
		Expiry:   "0926",
		CVV:      "363",
		Amount:   100_00,
		Currency: models.CurrencyEUR,
		Network:  models.NetworkTRC20,
	})

	// EUR settles as USDT on TRC20, so the tron hash has no 0x prefix.
	require.Equal(t, models.StatusApproved, outcome.Status)
	require.False(t, strings.HasPrefix(outcome.PayoutTxHash, "0x"))
	require.NotEmpty(t, outcome.PayoutTxHash)
}

func TestProcessWalletOverride(t *testing.T) {
	f := newProcessorFixture(t, time.Second)

	outcome := f.processor.Process(context.Background(), models.TransactionRequest{
		PAN:      "4114755393849011",
		Expiry:   "0926",
		CVV:      "363",
		Amount:   100_00,
		Currency: models.CurrencyUSDC,
		Network:  models.NetworkERC20,
		Wallet:   "0xMerchantOverride",
	})

	require.Equal(t, models.StatusApproved, outcome.Status)

	records, err := f.repo.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "0xMerchantOverride", records[0].Wallet)
}
