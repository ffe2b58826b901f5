package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/competition-ledger/payments"
	"github.com/Dosada05/competition-ledger/services"
)

const maxPaymentWait = 30 * time.Second

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// InitiatePayment запускает оплату и сразу отвечает 202 с id задачи.
// С ?wait=true ждёт завершения и отвечает итоговым статусом.
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.PaymentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.EntrantID <= 0 {
		badRequestResponse(w, r, errors.New("entrant_id is required"))
		return
	}

	task, err := h.paymentService.InitiatePayment(r.Context(), actor, competitionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		headers := http.Header{"Location": []string{"/api/v1/payments/" + task.ID}}
		if err := writeJSON(w, http.StatusAccepted, jsonResponse{"payment": task.Snapshot()}, headers); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), maxPaymentWait)
	defer cancel()
	if err := task.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			// клиент ушёл или ждать слишком долго: задача продолжает работу
			if err := writeJSON(w, http.StatusAccepted, jsonResponse{"payment": task.Snapshot()}, nil); err != nil {
				serverErrorResponse(w, r, err)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payment": task.Snapshot()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	snap, err := h.paymentService.GetPayment(r.Context(), actor, paymentIDFromURL(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"payment": snap}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	snap, err := h.paymentService.CancelPayment(r.Context(), actor, paymentIDFromURL(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	status := http.StatusOK
	if snap.Status != payments.TaskCancelled {
		// задача успела завершиться до отмены
		status = http.StatusConflict
	}
	if err := writeJSON(w, status, jsonResponse{"payment": snap}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
