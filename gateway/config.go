package gateway

import (
	"time"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
)

// Config is a configuration for the gateway application
type Config struct {
	HTTPAddr    string
	ISO8583Addr string
	// TerminalID and MerchantID are stamped on outcome records and ISO 8583
	// responses.
	TerminalID string
	MerchantID string
	// PayoutTimeout bounds one on-chain transfer attempt.
	PayoutTimeout time.Duration
	// PayoutSignKey keys the demo payout signer.
	PayoutSignKey string
	// SettlementTokens maps a transaction currency to the token the payout
	// settles in. Currencies absent from the map fail the dispatcher's
	// token gate.
	SettlementTokens map[models.Currency]models.Token
	// Wallets is the static rotation table: token -> network -> ordered
	// payout addresses.
	Wallets map[models.Token]map[models.Network][]string
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:      "localhost:9090",
		ISO8583Addr:   "localhost:8583",
		TerminalID:    "TERM001",
		MerchantID:    "MERCHANT001",
		PayoutTimeout: 30 * time.Second,
		PayoutSignKey: "dev-payout-sign-key",
		SettlementTokens: map[models.Currency]models.Token{
			models.CurrencyUSD:  models.TokenUSDT,
			models.CurrencyEUR:  models.TokenUSDT,
			models.CurrencyUSDT: models.TokenUSDT,
			models.CurrencyUSDC: models.TokenUSDC,
		},
		Wallets: map[models.Token]map[models.Network][]string{
			models.TokenUSDT: {
				models.NetworkERC20: {
					"0xWallet1ERC20",
					"0xWallet2ERC20",
					"0xWallet3ERC20",
					"0xWallet4ERC20",
					"0xWallet5ERC20",
				},
				models.NetworkTRC20: {
					"TGWallet1TRC20",
					"TGWallet2TRC20",
					"TGWallet3TRC20",
					"TGWallet4TRC20",
					"TGWallet5TRC20",
				},
			},
			models.TokenUSDC: {
				models.NetworkERC20: {
					"0xWallet1USDC",
					"0xWallet2USDC",
					"0xWallet3USDC",
					"0xWallet4USDC",
					"0xWallet5USDC",
				},
				models.NetworkTRC20: {
					"TGWallet1USDC",
					"TGWallet2USDC",
					"TGWallet3USDC",
					"TGWallet4USDC",
					"TGWallet5USDC",
				},
			},
		},
	}
}
