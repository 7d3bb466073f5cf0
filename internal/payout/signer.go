package payout

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// Signer derives the transfer reference for a simulated on-chain payout.
// Implementations may be a local demo keyed MAC or a PKCS#11-backed MAC
// (build tag softhsm); swapping one for a real chain signer does not touch
// the dispatcher.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
}

// DemoSigner is the default HMAC-SHA256 implementation.
type DemoSigner struct {
	key []byte
}

func NewDemoSigner(key []byte) *DemoSigner {
	return &DemoSigner{key: key}
}

func (s *DemoSigner) Sign(payload []byte) ([]byte, error) {
	if len(s.key) == 0 {
		return nil, fmt.Errorf("payout signing key is required")
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	return h.Sum(nil), nil
}
