package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/middleware"
	"github.com/Dosada05/competition-ledger/services"
	"github.com/Dosada05/competition-ledger/storage"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrCompetitionNotFound, http.StatusNotFound},
		{fmt.Errorf("register: %w", services.ErrDuplicateRegistration), http.StatusConflict},
		{services.ErrCapacityExceeded, http.StatusConflict},
		{services.ErrTeamTooLarge, http.StatusUnprocessableEntity},
		{services.ErrPaymentRequired, http.StatusPaymentRequired},
		{services.ErrPaymentDeclined, http.StatusPaymentRequired},
		{fmt.Errorf("%w: bad cvv", services.ErrPaymentValidationFailed), http.StatusUnprocessableEntity},
		{services.ErrNotPaid, http.StatusUnprocessableEntity},
		{services.ErrPrizeDistributionNotAllowed, http.StatusUnprocessableEntity},
		{services.ErrValidationFailed, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{services.ErrSnapshotsDisabled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, req, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestStorageCorruptResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mapServiceErrorToHTTP(rec, req, fmt.Errorf("load teams: %w", storage.ErrStorageCorrupt))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "STORAGE_CORRUPT", body.Error.Code)
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"team_id": 5}`, ""},
		{"empty", ``, "must not be empty"},
		{"unknown field", `{"team": 5}`, "unknown key"},
		{"wrong type", `{"team_id": "five"}`, "incorrect JSON type"},
		{"two values", `{"team_id": 5}{"team_id": 6}`, "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst struct {
				TeamID int64 `json:"team_id"`
			}
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, int64(5), dst.TeamID)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetIDFromURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id, err := getIDFromURL(withURLParam(req, "competitionID", "1700000000000"), "competitionID")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), id)

	_, err = getIDFromURL(withURLParam(req, "competitionID", "abc"), "competitionID")
	assert.Error(t, err)

	_, err = getIDFromURL(withURLParam(req, "competitionID", "-3"), "competitionID")
	assert.Error(t, err)

	_, err = getIDFromURL(req, "competitionID")
	assert.Error(t, err)
}

func TestActorFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := actorFromRequest(req)
	assert.Error(t, err)

	req = req.WithContext(middleware.WithClaims(req.Context(), 42, models.RoleAdmin))
	actor, err := actorFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, services.Actor{UserID: 42, IsAdmin: true}, actor)
}
