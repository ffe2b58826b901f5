package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/models"
)

const secret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(userID int64, role models.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

// echoUser отвечает id пользователя из контекста.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, err := GetUserIDFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if IsAdmin(r.Context()) {
		w.Header().Set("X-Admin", "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strconv.FormatInt(id, 10)))
})

func TestAuthenticate(t *testing.T) {
	expired := validClaims(7, models.RoleUser)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantAdmin  bool
	}{
		{"missing header", "", "", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized, false},
		{"valid user", "Bearer " + signed(t, validClaims(7, models.RoleUser), jwt.SigningMethodHS256, []byte(secret)), "", http.StatusOK, false},
		{"valid admin", "Bearer " + signed(t, validClaims(1, models.RoleAdmin), jwt.SigningMethodHS256, []byte(secret)), "", http.StatusOK, true},
		{"query token", "", signed(t, validClaims(7, models.RoleUser), jwt.SigningMethodHS256, []byte(secret)), http.StatusOK, false},
		{"wrong secret", "Bearer " + signed(t, validClaims(7, models.RoleUser), jwt.SigningMethodHS256, []byte("other")), "", http.StatusUnauthorized, false},
		{"expired", "Bearer " + signed(t, expired, jwt.SigningMethodHS256, []byte(secret)), "", http.StatusUnauthorized, false},
		{"missing user id", "Bearer " + signed(t, jwt.MapClaims{"role": "user"}, jwt.SigningMethodHS256, []byte(secret)), "", http.StatusUnauthorized, false},
	}

	handler := Authenticate(secret)(echoUser)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantAdmin, rec.Header().Get("X-Admin") == "true")
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), 5, models.RoleUser))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), 1, models.RoleAdmin))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserIDFromContext(req.Context())
	assert.Error(t, err)

	ctx := WithClaims(req.Context(), 1700000000123, models.RoleUser)
	id, err := GetUserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), id)

	role, err := GetUserRoleFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)
}
