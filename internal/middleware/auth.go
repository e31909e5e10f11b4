package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	pairIDKey contextKey = "pair_id"
	deviceKey contextKey = "device"
)

// DeviceAuth validates the bearer token a device receives at
// provisioning time. Claims carry pair_id and device. The middleware
// is only installed when a secret is configured; without it the upload
// endpoint is open, matching the original deployment.
func DeviceAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			pairID, device, err := validateDeviceToken(parts[1], secret)
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), pairIDKey, pairID)
			ctx = context.WithValue(ctx, deviceKey, device)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateDeviceToken parses an HMAC-signed token and extracts the
// pair_id and device claims
func validateDeviceToken(tokenString, secret string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	pairID, _ := claims["pair_id"].(string)
	device, _ := claims["device"].(string)
	if pairID == "" || device == "" {
		return "", "", fmt.Errorf("token missing pair_id or device claim")
	}
	return pairID, device, nil
}

// GetPairID extracts the authenticated pair id from context
func GetPairID(ctx context.Context) string {
	pairID, ok := ctx.Value(pairIDKey).(string)
	if !ok {
		return ""
	}
	return pairID
}

// GetDevice extracts the authenticated device tag from context
func GetDevice(ctx context.Context) string {
	device, ok := ctx.Value(deviceKey).(string)
	if !ok {
		return ""
	}
	return device
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
