// Package payout settles approved transactions onto a blockchain network.
// The dispatcher validates the token/network pair, resolves the destination
// through the wallet rotation registry when the caller did not pin one, and
// performs exactly one bounded transfer attempt. Retry policy belongs to
// callers, and the gateway's policy is no retry: a second attempt could
// double-pay the merchant.
package payout

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/wallets"
	"golang.org/x/exp/slog"
)

var (
	ErrUnsupported = errors.New("unsupported token or network")
	ErrTimeout     = errors.New("payout timed out")
	ErrConnection  = errors.New("payout connection failed")
)

const DefaultTimeout = 30 * time.Second

type Dispatcher struct {
	clients  map[models.Network]Client
	registry *wallets.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

func NewDispatcher(clients map[models.Network]Client, registry *wallets.Registry, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		clients:  clients,
		registry: registry,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "payout")),
	}
}

// Dispatch performs one settlement attempt and returns the transaction hash
// together with the destination wallet it settled (or tried to settle)
// against. Unsupported pairs fail before any wallet resolution or network
// I/O. An empty dest is resolved via the registry; that step is synchronous
// and never overlaps the transfer call.
func (d *Dispatcher) Dispatch(ctx context.Context, token models.Token, network models.Network, dest string, amount int64) (txHash, wallet string, err error) {
	if token != models.TokenUSDT && token != models.TokenUSDC {
		return "", "", fmt.Errorf("token %s: %w", token, ErrUnsupported)
	}
	if network != models.NetworkERC20 && network != models.NetworkTRC20 {
		return "", "", fmt.Errorf("network %s: %w", network, ErrUnsupported)
	}
	client, ok := d.clients[network]
	if !ok {
		return "", "", fmt.Errorf("no client for network %s: %w", network, ErrUnsupported)
	}

	if dest == "" {
		addr, err := d.registry.Next(token, network)
		if err != nil {
			return "", "", err
		}
		dest = addr
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	hash, err := client.Transfer(ctx, token, dest, amount)
	if err != nil {
		return "", dest, classifyTransferErr(dest, err)
	}

	d.logger.Info("payout dispatched",
		slog.String("token", string(token)),
		slog.String("network", string(network)),
		slog.String("wallet", dest),
		slog.Int64("amount", amount),
		slog.String("tx_hash", hash),
	)
	return hash, dest, nil
}

func classifyTransferErr(dest string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("transfer to %s: %w", dest, ErrTimeout)
	case isConnErr(err):
		return fmt.Errorf("transfer to %s: %w", dest, ErrConnection)
	default:
		return fmt.Errorf("transfer to %s: %w", dest, err)
	}
}

func isConnErr(err error) bool {
	if errors.Is(err, ErrConnection) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
