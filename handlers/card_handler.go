package handlers

import (
	"net/http"

	"github.com/Dosada05/competition-ledger/services"
)

type CardHandler struct {
	cardService services.CardService
}

func NewCardHandler(cs services.CardService) *CardHandler {
	return &CardHandler{cardService: cs}
}

func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	cards, err := h.cardService.ListCards(r.Context(), actor.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"cards": cards}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CardHandler) SaveCard(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CardInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	card, err := h.cardService.SaveCard(r.Context(), actor.UserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"card": card}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CardHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	cardID, err := getIDFromURL(r, "cardID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	card, err := h.cardService.SetDefault(r.Context(), actor.UserID, cardID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"card": card}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := getIDFromURL(r, "cardID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.cardService.DeleteCard(r.Context(), actor.UserID, cardID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
