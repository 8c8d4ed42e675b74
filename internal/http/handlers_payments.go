package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/interpay/interpay-api/internal/domain/model"
	"github.com/interpay/interpay-api/internal/service"
)

// PaymentHandlers exposes each protocol step on its own.
type PaymentHandlers struct {
	Svc *service.PaymentsService
}

// Wallets resolves the configured sending and receiving wallets.
func (h *PaymentHandlers) Wallets(w http.ResponseWriter, r *http.Request) {
	pair, err := h.Svc.Wallets(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, pair)
}

type incomingGrantRequest struct {
	ReceiverURL string `json:"receiverUrl"`
}

// RequestIncomingGrant requests an incoming-payment grant.
func (h *PaymentHandlers) RequestIncomingGrant(w http.ResponseWriter, r *http.Request) {
	var req incomingGrantRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}
	h.writeGrant(w, http.StatusCreated)(h.Svc.RequestIncomingGrant(r.Context(), req.ReceiverURL))
}

type walletGrantRequest struct {
	WalletURL string `json:"walletUrl"`
}

// RequestQuoteGrant requests a quote grant.
func (h *PaymentHandlers) RequestQuoteGrant(w http.ResponseWriter, r *http.Request) {
	var req walletGrantRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}
	h.writeGrant(w, http.StatusCreated)(h.Svc.RequestQuoteGrant(r.Context(), req.WalletURL))
}

type outgoingGrantRequest struct {
	WalletURL   string        `json:"walletUrl"`
	DebitAmount *model.Amount `json:"debitAmount"`
}

// RequestOutgoingGrant requests an interactive outgoing-payment grant.
func (h *PaymentHandlers) RequestOutgoingGrant(w http.ResponseWriter, r *http.Request) {
	var req outgoingGrantRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.writeGrant(w, http.StatusCreated)(h.Svc.RequestOutgoingGrant(r.Context(), req.WalletURL, req.DebitAmount))
}

// ContinueGrant continues a stored grant and stores the result as a new grant.
func (h *PaymentHandlers) ContinueGrant(w http.ResponseWriter, r *http.Request) {
	h.writeGrant(w, http.StatusOK)(h.Svc.ContinueGrant(r.Context(), chi.URLParam(r, "id")))
}

// GetGrant returns a stored grant.
func (h *PaymentHandlers) GetGrant(w http.ResponseWriter, r *http.Request) {
	h.writeGrant(w, http.StatusOK)(h.Svc.GetGrant(r.Context(), chi.URLParam(r, "id")))
}

func (h *PaymentHandlers) writeGrant(w http.ResponseWriter, status int) func(*service.GrantResult, error) {
	return func(res *service.GrantResult, err error) {
		if err != nil {
			WriteAppError(w, err)
			return
		}
		WriteJSON(w, status, res)
	}
}

type createIncomingPaymentRequest struct {
	GrantID     string            `json:"grantId"`
	ReceiverURL string            `json:"receiverUrl"`
	Amount      model.AmountInput `json:"amount"`
}

// CreateIncomingPayment creates an incoming payment.
func (h *PaymentHandlers) CreateIncomingPayment(w http.ResponseWriter, r *http.Request) {
	var req createIncomingPaymentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.writeCreated(w)(h.Svc.CreateIncomingPayment(r.Context(), service.CreateIncomingPaymentInput{
		GrantID:     req.GrantID,
		ReceiverURL: req.ReceiverURL,
		Amount:      req.Amount,
	}))
}

type createQuoteRequest struct {
	GrantID            string `json:"grantId"`
	WalletURL          string `json:"walletUrl"`
	IncomingPaymentURL string `json:"incomingPaymentUrl"`
}

// CreateQuote creates a quote.
func (h *PaymentHandlers) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.writeCreated(w)(h.Svc.CreateQuote(r.Context(), service.CreateQuoteInput{
		GrantID:            req.GrantID,
		WalletURL:          req.WalletURL,
		IncomingPaymentURL: req.IncomingPaymentURL,
	}))
}

type createOutgoingPaymentRequest struct {
	GrantID   string `json:"grantId"`
	WalletURL string `json:"walletUrl"`
	QuoteID   string `json:"quoteId"`
}

// CreateOutgoingPayment executes a quote.
func (h *PaymentHandlers) CreateOutgoingPayment(w http.ResponseWriter, r *http.Request) {
	var req createOutgoingPaymentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.writeCreated(w)(h.Svc.CreateOutgoingPayment(r.Context(), service.CreateOutgoingPaymentInput{
		GrantID:   req.GrantID,
		WalletURL: req.WalletURL,
		QuoteID:   req.QuoteID,
	}))
}

func (h *PaymentHandlers) writeCreated(w http.ResponseWriter) func(*service.CreatedResource, error) {
	return func(res *service.CreatedResource, err error) {
		if err != nil {
			WriteAppError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, res)
	}
}

// ListIncomingPayments lists stored incoming payments.
func (h *PaymentHandlers) ListIncomingPayments(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.ListIncomingPayments(r.Context()))
}

// ListOutgoingPayments lists stored outgoing payments.
func (h *PaymentHandlers) ListOutgoingPayments(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.ListOutgoingPayments(r.Context()))
}
