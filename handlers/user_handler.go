package handlers

import (
	"net/http"

	"github.com/Dosada05/competition-ledger/services"
)

type UserHandler struct {
	authService services.AuthService
	teamService services.TeamService
}

func NewUserHandler(as services.AuthService, ts services.TeamService) *UserHandler {
	return &UserHandler{
		authService: as,
		teamService: ts,
	}
}

// GetUserByID отдаёт публичный профиль; email виден только самому пользователю и админу.
func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	requestedUserID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.GetUser(r.Context(), requestedUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil || (!actor.IsAdmin && actor.UserID != user.ID) {
		user.Email = ""
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) GetUserTeams(w http.ResponseWriter, r *http.Request) {
	requestedUserID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.teamService.ListUserTeams(r.Context(), requestedUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
