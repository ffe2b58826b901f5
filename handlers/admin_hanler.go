package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/competition-ledger/services"
)

type AdminHandler struct {
	adminService    services.AdminService
	snapshotService services.SnapshotService
}

func NewAdminHandler(as services.AdminService, ss services.SnapshotService) *AdminHandler {
	return &AdminHandler{adminService: as, snapshotService: ss}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), actor, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadSnapshot отдаёт все блобы одним JSON-документом, без обращения к R2.
func (h *AdminHandler) DownloadSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotService.Dump(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	headers := http.Header{"Content-Disposition": []string{`attachment; filename="ledger-snapshot.json"`}}
	if err := writeJSON(w, http.StatusOK, snap, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := h.snapshotService.Export(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"snapshot": info}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Key string `json:"key"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Key == "" {
		badRequestResponse(w, r, errors.New("key is required"))
		return
	}

	if err := h.snapshotService.Restore(r.Context(), input.Key); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"restored": input.Key}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteSnapshot удаляет снимок из R2 по ключу из ?key=.
func (h *AdminHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		badRequestResponse(w, r, errors.New("key is required"))
		return
	}
	if err := h.snapshotService.Delete(r.Context(), key); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
