package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authedHandler(t *testing.T) (http.Handler, *struct{ pairID, device string }) {
	t.Helper()
	seen := &struct{ pairID, device string }{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.pairID = GetPairID(r.Context())
		seen.device = GetDevice(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return DeviceAuth(testSecret)(next), seen
}

func TestDeviceAuth_ValidToken(t *testing.T) {
	h, seen := authedHandler(t)
	token := signToken(t, testSecret, jwt.MapClaims{"pair_id": "pair01", "device": "A"})

	req := httptest.NewRequest(http.MethodPost, "/analyze-mood", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen.pairID != "pair01" || seen.device != "A" {
		t.Errorf("claims in context = %q/%q", seen.pairID, seen.device)
	}
}

func TestDeviceAuth_MissingHeader(t *testing.T) {
	h, _ := authedHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze-mood", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDeviceAuth_BadFormat(t *testing.T) {
	h, _ := authedHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze-mood", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDeviceAuth_WrongSecret(t *testing.T) {
	h, _ := authedHandler(t)
	token := signToken(t, "other-secret", jwt.MapClaims{"pair_id": "pair01", "device": "A"})

	req := httptest.NewRequest(http.MethodPost, "/analyze-mood", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDeviceAuth_MissingClaims(t *testing.T) {
	h, _ := authedHandler(t)
	token := signToken(t, testSecret, jwt.MapClaims{"pair_id": "pair01"})

	req := httptest.NewRequest(http.MethodPost, "/analyze-mood", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
