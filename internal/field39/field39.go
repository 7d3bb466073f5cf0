// Package field39 is the static catalog of ISO 8583 field-39 response codes
// used by the gateway. The codes are a stable vocabulary other systems depend
// on; never renumber them.
package field39

const (
	Approved          = "00"
	DoNotHonor        = "05"
	EncryptedSession  = "14"
	ExpiredCard       = "54"
	InvalidCVV        = "82"
	IssuerInoperative = "91"
	InvalidProtocol   = "92"
	GeneralError      = "99"
)

var messages = map[string]string{
	Approved:          "Transaction Approved",
	DoNotHonor:        "Do Not Honor",
	EncryptedSession:  "Terminal unable to resolve encrypted session state. Contact card issuer",
	ExpiredCard:       "Expired Card",
	InvalidCVV:        "Invalid CVV",
	IssuerInoperative: "Issuer Inoperative",
	InvalidProtocol:   "Invalid Terminal Protocol",
	GeneralError:      "General Error / Server Timeout",
}

// Message returns the human-readable reason for a response code. Unknown
// codes fall back to the general error text.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[GeneralError]
}

// Known reports whether code belongs to the catalog.
func Known(code string) bool {
	_, ok := messages[code]
	return ok
}

// Codes returns a copy of the full catalog.
func Codes() map[string]string {
	out := make(map[string]string, len(messages))
	for k, v := range messages {
		out[k] = v
	}
	return out
}
