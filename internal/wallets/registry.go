// Package wallets implements round-robin rotation of payout destination
// addresses. One cursor exists per (token, network) pair; it is the only
// cross-request mutable state in the gateway.
package wallets

import (
	"fmt"
	"sync"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
)

var ErrNoWallets = fmt.Errorf("no wallets configured")

type key struct {
	token   models.Token
	network models.Network
}

type ring struct {
	addrs []string
	next  int
}

// Registry hands out payout addresses in strict configuration order,
// wrapping after the last one. Constructed once at process start; safe for
// concurrent use.
type Registry struct {
	mu    sync.Mutex
	rings map[key]*ring
}

// NewRegistry builds a registry from a static configuration table. Address
// slices are copied so later mutation of the table cannot skew rotation.
func NewRegistry(table map[models.Token]map[models.Network][]string) *Registry {
	rings := make(map[key]*ring)
	for token, networks := range table {
		for network, addrs := range networks {
			if len(addrs) == 0 {
				continue
			}
			cp := make([]string, len(addrs))
			copy(cp, addrs)
			rings[key{token, network}] = &ring{addrs: cp}
		}
	}
	return &Registry{rings: rings}
}

// Next returns the next address for the pair and advances the cursor. The
// lock covers only the read-advance-wrap step; callers must never hold it
// across network dispatch.
func (r *Registry) Next(token models.Token, network models.Network) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, ok := r.rings[key{token, network}]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", token, network, ErrNoWallets)
	}
	addr := ring.addrs[ring.next]
	ring.next = (ring.next + 1) % len(ring.addrs)
	return addr, nil
}
