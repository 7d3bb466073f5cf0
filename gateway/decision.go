package gateway

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/expiry"
	"github.com/alovak/crypto-pos-gateway/internal/field39"
	"github.com/google/uuid"
)

// Brand is the card scheme classified from the PAN prefix.
type Brand string

const (
	BrandVisa       Brand = "VISA"
	BrandMastercard Brand = "MASTERCARD"
	BrandAmex       Brand = "AMEX"
	BrandDiscover   Brand = "DISCOVER"
	BrandUnknown    Brand = "UNKNOWN"
)

// ClassifyBrand maps a PAN's leading digit to a card brand.
func ClassifyBrand(pan string) Brand {
	switch {
	case strings.HasPrefix(pan, "4"):
		return BrandVisa
	case strings.HasPrefix(pan, "5"):
		return BrandMastercard
	case strings.HasPrefix(pan, "3"):
		return BrandAmex
	case strings.HasPrefix(pan, "6"):
		return BrandDiscover
	default:
		return BrandUnknown
	}
}

// ValidateRequest runs the structural field checks. It returns the name of
// the first missing or malformed field; ok is true when the request is
// well-formed. Runs before brand classification.
func ValidateRequest(req models.TransactionRequest) (string, bool) {
	if req.PAN == "" || !isDigits(req.PAN) {
		return "pan", false
	}
	if expiry.ValidateMMYY(req.Expiry) != nil {
		return "expiry", false
	}
	if l := len(req.CVV); l < 3 || l > 4 || !isDigits(req.CVV) {
		return "cvv", false
	}
	if req.Amount <= 0 {
		return "amount", false
	}
	if _, err := models.ParseCurrency(string(req.Currency)); err != nil {
		return "currency", false
	}
	if _, err := models.ParseNetwork(string(req.Network)); err != nil {
		return "payout_type", false
	}
	return "", true
}

// Decide evaluates a transaction request without any I/O. Only Visa and
// Mastercard PANs are honored; everything else declines with "05". A fresh
// transaction ID and ARN are generated on approval.
func Decide(req models.TransactionRequest) models.AuthorizationDecision {
	if field, ok := ValidateRequest(req); !ok {
		return models.AuthorizationDecision{
			Approved: false,
			Code:     field39.GeneralError,
			Message:  fmt.Sprintf("Missing field: %s", field),
		}
	}

	switch ClassifyBrand(req.PAN) {
	case BrandVisa, BrandMastercard:
	default:
		return models.AuthorizationDecision{
			Approved: false,
			Code:     field39.DoNotHonor,
			Message:  "Card not supported (non Visa/MasterCard)",
		}
	}

	return models.AuthorizationDecision{
		Approved:      true,
		Code:          field39.Approved,
		Message:       field39.Message(field39.Approved),
		TransactionID: "TXN-" + uuid.New().String(),
		ARN:           "ARN" + randomDigits(12),
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// randomDigits generates count digits with rejection sampling so 0..9 stay
// uniform (only bytes < 250 are accepted before mod 10).
func randomDigits(count int) string {
	return digitsFrom(rand.Reader, count)
}

func digitsFrom(r io.Reader, count int) string {
	const threshold = 250 // 256 - (256 % 10)
	var sb strings.Builder
	sb.Grow(count)
	buf := make([]byte, 32)
	for sb.Len() < count {
		n, err := r.Read(buf)
		if n == 0 && err != nil {
			// An unreadable entropy source must never yield a fabricated
			// reference number. Same stance as uuid.New.
			panic(fmt.Sprintf("reading random digits: %v", err))
		}
		for i := 0; i < n && sb.Len() < count; i++ {
			if buf[i] < threshold {
				sb.WriteByte('0' + buf[i]%10)
			}
		}
	}
	return sb.String()
}
