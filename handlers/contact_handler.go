package handlers

import (
	"net/http"

	"github.com/Dosada05/competition-ledger/services"
)

type ContactHandler struct {
	contactService services.ContactService
}

func NewContactHandler(cs services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: cs}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.ContactInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	msg, err := h.contactService.Submit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": msg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	msgs, err := h.contactService.List(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"messages": msgs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "messageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.contactService.Delete(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
