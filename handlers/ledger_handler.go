package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/competition-ledger/services"
)

type LedgerHandler struct {
	ledgerService services.LedgerService
}

func NewLedgerHandler(ls services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ls}
}

type entrantInput struct {
	EntrantID int64 `json:"entrant_id"`
}

func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.ledgerService.GetLedger(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ledger": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegisterTeam: бесплатная регистрация команды. Для соревнований со взносом ответ 402.
func (h *LedgerHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		TeamID int64 `json:"team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id is required"))
		return
	}

	view, err := h.ledgerService.RegisterTeam(r.Context(), actor, competitionID, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"ledger": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegisterParticipant регистрирует текущего пользователя в индивидуальном соревновании.
func (h *LedgerHandler) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.ledgerService.RegisterParticipant(r.Context(), actor, competitionID, actor.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"ledger": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LedgerHandler) Deregister(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	entrantID, err := getIDFromURL(r, "entrantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	view, err := h.ledgerService.Deregister(r.Context(), actor, competitionID, entrantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ledger": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LedgerHandler) Refund(w http.ResponseWriter, r *http.Request) {
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

	var input entrantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.EntrantID <= 0 {
		badRequestResponse(w, r, errors.New("entrant_id is required"))
		return
	}

	record, err := h.ledgerService.Refund(r.Context(), actor, competitionID, input.EntrantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"refund": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LedgerHandler) DistributePrizePool(w http.ResponseWriter, r *http.Request) {
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

	shares, err := h.ledgerService.DistributePrizePool(r.Context(), actor, competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prize_distribution": shares}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
