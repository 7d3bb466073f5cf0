package gateway_test

import (
	"fmt"
	"testing"

	"github.com/alovak/crypto-pos-gateway/gateway"
	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/stretchr/testify/require"
)

func validRequest() models.TransactionRequest {
	return models.TransactionRequest{
		PAN:      "4114755393849011",
		Expiry:   "0926",
		CVV:      "363",
		Amount:   100_00,
		Currency: models.CurrencyUSD,
		Network:  models.NetworkERC20,
	}
}

func TestDecideApprovesVisaAndMastercard(t *testing.T) {
	for _, pan := range []string{"4114755393849011", "5454957994741066"} {
		req := validRequest()
		req.PAN = pan

		decision := gateway.Decide(req)

		require.True(t, decision.Approved, "pan %s", pan)
		require.Equal(t, "00", decision.Code)
		require.NotEmpty(t, decision.TransactionID)
		require.NotEmpty(t, decision.ARN)
	}
}

func TestDecideRejectsUnsupportedBrands(t *testing.T) {
	cases := map[string]string{
		"amex":     "3782822463101088",
		"discover": "6011000990131077",
		"unknown":  "9999888877776666",
	}
	for name, pan := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			req.PAN = pan

			decision := gateway.Decide(req)

			require.False(t, decision.Approved)
			require.Equal(t, "05", decision.Code)
			require.Empty(t, decision.TransactionID)
		})
	}
}

func TestDecideRejectsMalformedFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.TransactionRequest)
	}{
		{"pan", func(r *models.TransactionRequest) { r.PAN = "" }},
		{"pan", func(r *models.TransactionRequest) { r.PAN = "4114-7553" }},
		{"expiry", func(r *models.TransactionRequest) { r.Expiry = "1326" }},
		{"expiry", func(r *models.TransactionRequest) { r.Expiry = "" }},
		{"cvv", func(r *models.TransactionRequest) { r.CVV = "12" }},
		{"cvv", func(r *models.TransactionRequest) { r.CVV = "12345" }},
		{"amount", func(r *models.TransactionRequest) { r.Amount = 0 }},
		{"amount", func(r *models.TransactionRequest) { r.Amount = -100 }},
		{"currency", func(r *models.TransactionRequest) { r.Currency = "GBP" }},
		{"payout_type", func(r *models.TransactionRequest) { r.Network = "BEP20" }},
		{"payout_type", func(r *models.TransactionRequest) { r.Network = "" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validRequest()
			c.mutate(&req)

			decision := gateway.Decide(req)

			require.False(t, decision.Approved)
			require.Equal(t, "99", decision.Code)
			require.Equal(t, fmt.Sprintf("Missing field: %s", c.name), decision.Message)
		})
	}
}

func TestDecideValidationRunsBeforeBrandCheck(t *testing.T) {
	// A Discover PAN with a missing CVV must fail on the field, not the
	// brand.
	req := validRequest()
	req.PAN = "6011000990131077"
	req.CVV = ""

	decision := gateway.Decide(req)

	require.Equal(t, "99", decision.Code)
}

func TestDecideGeneratesUniqueIdentifiers(t *testing.T) {
	seenTxn := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		decision := gateway.Decide(validRequest())
		require.True(t, decision.Approved)

		_, dup := seenTxn[decision.TransactionID]
		require.False(t, dup, "duplicate transaction id %s", decision.TransactionID)
		seenTxn[decision.TransactionID] = struct{}{}

		require.Regexp(t, `^ARN\d{12}$`, decision.ARN)
	}
}

func TestClassifyBrand(t *testing.T) {
	cases := map[string]gateway.Brand{
		"4114755393849011": gateway.BrandVisa,
		"5454957994741066": gateway.BrandMastercard,
		"3782822463101088": gateway.BrandAmex,
		"6011000990131077": gateway.BrandDiscover,
		"9999000011112222": gateway.BrandUnknown,
	}
	for pan, want := range cases {
		require.Equal(t, want, gateway.ClassifyBrand(pan))
	}
}
