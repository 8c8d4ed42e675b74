// Package httpx provides the HTTP API for interpay.
package httpx

import (
	"net/http"

	"github.com/interpay/interpay-api/internal/domain/model"
	"github.com/interpay/interpay-api/internal/service"
)

// SettlementHandlers serves the run-service trigger.
type SettlementHandlers struct {
	Svc *service.SettlementService
}

// runServiceRequest accepts the amount under any of the names older clients send.
type runServiceRequest struct {
	Amount         model.AmountInput `json:"amount"`
	Value          model.AmountInput `json:"value"`
	IncomingAmount model.AmountInput `json:"incomingAmount"`
	Sender         string            `json:"sender"`
	Receiver       string            `json:"receiver"`
}

func (r runServiceRequest) amount() model.AmountInput {
	for _, a := range []model.AmountInput{r.Value, r.IncomingAmount, r.Amount} {
		if !a.Empty() {
			return a
		}
	}
	return model.AmountInput{}
}

// RunService starts a settlement run.
// 202 with {jobId[, redirect]} when a worker was launched, 200 with
// {status: awaiting_confirmation, stage} when a grant needs interaction first.
func (h *SettlementHandlers) RunService(w http.ResponseWriter, r *http.Request) {
	var req runServiceRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}

	out, err := h.Svc.Run(r.Context(), service.RunRequest{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Amount:   req.amount(),
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	if out.Accepted() {
		WriteJSON(w, http.StatusAccepted, out)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}
