package wallets_test

import (
	"sync"
	"testing"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/wallets"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *wallets.Registry {
	return wallets.NewRegistry(map[models.Token]map[models.Network][]string{
		models.TokenUSDT: {
			models.NetworkERC20: {"0xWallet1ERC20", "0xWallet2ERC20", "0xWallet3ERC20"},
			models.NetworkTRC20: {"TGWallet1TRC20"},
		},
	})
}

func TestNextRotatesInOrder(t *testing.T) {
	registry := newTestRegistry()

	want := []string{"0xWallet1ERC20", "0xWallet2ERC20", "0xWallet3ERC20"}

	// Two full cycles must replay the configured order identically.
	for cycle := 0; cycle < 2; cycle++ {
		for _, addr := range want {
			got, err := registry.Next(models.TokenUSDT, models.NetworkERC20)
			require.NoError(t, err)
			require.Equal(t, addr, got)
		}
	}
}

func TestNextSingleAddressAlwaysReturned(t *testing.T) {
	registry := newTestRegistry()

	for i := 0; i < 5; i++ {
		got, err := registry.Next(models.TokenUSDT, models.NetworkTRC20)
		require.NoError(t, err)
		require.Equal(t, "TGWallet1TRC20", got)
	}
}

func TestNextUnknownPair(t *testing.T) {
	registry := newTestRegistry()

	_, err := registry.Next(models.TokenUSDC, models.NetworkERC20)
	require.ErrorIs(t, err, wallets.ErrNoWallets)
}

func TestNextEmptyListIsNotRegistered(t *testing.T) {
	registry := wallets.NewRegistry(map[models.Token]map[models.Network][]string{
		models.TokenUSDC: {models.NetworkTRC20: {}},
	})

	_, err := registry.Next(models.TokenUSDC, models.NetworkTRC20)
	require.ErrorIs(t, err, wallets.ErrNoWallets)
}

func TestNextConcurrentDrawsAreFair(t *testing.T) {
	registry := newTestRegistry()

	const cycles = 40
	const listLen = 3
	draws := make(chan string, cycles*listLen)

	var wg sync.WaitGroup
	for i := 0; i < cycles*listLen; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr, err := registry.Next(models.TokenUSDT, models.NetworkERC20)
			require.NoError(t, err)
			draws <- addr
		}()
	}
	wg.Wait()
	close(draws)

	// Any valid serialization of the cycle hands out each address exactly
	// cycles times: no duplicates within a wrap, nothing skipped.
	counts := map[string]int{}
	for addr := range draws {
		counts[addr]++
	}
	require.Len(t, counts, listLen)
	for addr, n := range counts {
		require.Equal(t, cycles, n, "address %s drawn %d times", addr, n)
	}
}
