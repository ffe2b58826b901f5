package handlers

import (
	"net/http"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/services"
)

type CompetitionHandler struct {
	competitionService services.CompetitionService
}

func NewCompetitionHandler(cs services.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{competitionService: cs}
}

func (h *CompetitionHandler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateCompetitionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	comp, err := h.competitionService.CreateCompetition(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"competition": comp}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CompetitionHandler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	comp, err := h.competitionService.GetCompetition(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competition": comp}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListCompetitions: ?type=team|individual&status=...&search=...&limit=&offset=
func (h *CompetitionHandler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.CompetitionFilter{
		Type:   models.CompetitionType(q.Get("type")),
		Status: models.CompetitionStatus(q.Get("status")),
		Search: q.Get("search"),
		Limit:  toInt(q.Get("limit"), 0),
		Offset: toInt(q.Get("offset"), 0),
	}

	comps, err := h.competitionService.ListCompetitions(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitions": comps}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CompetitionHandler) UpdateCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.UpdateCompetitionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	comp, err := h.competitionService.UpdateCompetition(r.Context(), actor, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competition": comp}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CompetitionHandler) DeleteCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.competitionService.DeleteCompetition(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
