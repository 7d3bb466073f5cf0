package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/expiry"
	"github.com/alovak/crypto-pos-gateway/internal/field39"
	"github.com/go-chi/chi/v5"
)

// API is the HTTP boundary of the gateway. It translates the terminal's
// JSON payload into an immutable TransactionRequest and hands it to the
// processor; it never sees partial requests.
type API struct {
	processor *Processor
	repo      *Repository
}

func NewAPI(processor *Processor, repo *Repository) *API {
	return &API{
		processor: processor,
		repo:      repo,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Get("/", a.home)
	r.Post("/process_payment", a.processPayment)
	r.Get("/transactions", a.listTransactions)
	r.Route("/response-codes", func(r chi.Router) {
		r.Get("/", a.listResponseCodes)
		r.Get("/{code}", a.getResponseCode)
	})
}

func (a *API) home(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ISO8583 Crypto Gateway Running"))
}

// paymentRequest matches the original gateway's inbound JSON contract.
// Amount arrives as a decimal string or number.
type paymentRequest struct {
	PAN        string      `json:"pan"`
	Expiry     string      `json:"expiry"`
	CVV        string      `json:"cvv"`
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
	PayoutType string      `json:"payout_type"`
	Wallet     string      `json:"wallet"`
}

func (a *API) processPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		// The original gateway answers every request with an outcome
		// payload, malformed ones included.
		writeJSON(w, http.StatusOK, models.TransactionOutcome{
			Status:  models.StatusRejected,
			Message: "invalid request body",
			Field39: field39.GeneralError,
		})
		return
	}

	req := models.TransactionRequest{
		PAN:    body.PAN,
		Expiry: expiry.Normalize(body.Expiry),
		CVV:    body.CVV,
		Wallet: body.Wallet,
	}
	// Enum and amount parse failures leave zero values; the processor's
	// validation names the offending field in the rejected outcome.
	if amount, err := models.ParseAmount(body.Amount.String()); err == nil {
		req.Amount = amount
	}
	if currency, err := models.ParseCurrency(body.Currency); err == nil {
		req.Currency = currency
	}
	if network, err := models.ParseNetwork(body.PayoutType); err == nil {
		req.Network = network
	}

	outcome := a.processor.Process(r.Context(), req)
	writeJSON(w, http.StatusOK, outcome)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = n
	}

	transactions, err := a.repo.ListTransactions(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (a *API) listResponseCodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, field39.Codes())
}

func (a *API) getResponseCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !field39.Known(code) {
		http.Error(w, "unknown response code", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{code, field39.Message(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
