package payout

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
)

// Client performs a single token transfer on one network. Implementations
// must honor ctx cancellation; the dispatcher never retries them.
type Client interface {
	Transfer(ctx context.Context, token models.Token, to string, amount int64) (string, error)
}

// SimClient simulates a chain client. Hashes are derived from the transfer
// tuple plus a per-client nonce through the signer, so repeated transfers
// yield distinct handles. Latency and FailWith exist for wiring exercised in
// tests and demos; both default to zero.
type SimClient struct {
	network  models.Network
	signer   Signer
	nonce    uint64
	Latency  time.Duration
	FailWith error
}

// NewEthereumClient returns a simulated ERC20 transfer client.
func NewEthereumClient(signer Signer) *SimClient {
	return &SimClient{network: models.NetworkERC20, signer: signer}
}

// NewTronClient returns a simulated TRC20 transfer client.
func NewTronClient(signer Signer) *SimClient {
	return &SimClient{network: models.NetworkTRC20, signer: signer}
}

func (c *SimClient) Transfer(ctx context.Context, token models.Token, to string, amount int64) (string, error) {
	if c.Latency > 0 {
		timer := time.NewTimer(c.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	if c.FailWith != nil {
		return "", c.FailWith
	}

	n := atomic.AddUint64(&c.nonce, 1)
	payload := fmt.Sprintf("%s|%s|%s|%d|%d", c.network, token, to, amount, n)
	mac, err := c.signer.Sign([]byte(payload))
	if err != nil {
		return "", fmt.Errorf("signing transfer: %w", err)
	}

	hash := hex.EncodeToString(mac)
	if c.network == models.NetworkERC20 {
		return "0x" + hash, nil
	}
	return hash, nil
}
