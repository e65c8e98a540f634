package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func testIssuer() TokenIssuer {
	return TokenIssuer{
		Secret:   testSecret,
		Issuer:   "gtro-pricing",
		Audience: "gtro-admin",
		TTL:      time.Hour,
	}
}

func testValidator(now time.Time) TokenValidator {
	return TokenValidator{
		Secret:   testSecret,
		Issuer:   "gtro-pricing",
		Audience: "gtro-admin",
		Now:      func() time.Time { return now },
	}
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	token, err := testIssuer().Issue(now, "ops")
	require.NoError(t, err)

	subject, err := testValidator(now.Add(time.Minute)).ValidateAdmin(token)
	require.NoError(t, err)
	require.Equal(t, "ops", subject)
}

func TestValidateExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	token, err := testIssuer().Issue(now, "ops")
	require.NoError(t, err)

	_, err = testValidator(now.Add(2 * time.Hour)).ValidateAdmin(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongIssuer(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	issuer := testIssuer()
	issuer.Issuer = "someone-else"
	token, err := issuer.Issue(now, "ops")
	require.NoError(t, err)

	_, err = testValidator(now).ValidateAdmin(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestRequireAdminMiddleware(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	token, err := testIssuer().Issue(now, "ops")
	require.NoError(t, err)

	mw := Middleware{Validator: testValidator(now)}
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/admin/promos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/admin/promos", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/admin/promos", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
