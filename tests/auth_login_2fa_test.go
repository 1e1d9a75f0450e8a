package tests

import (
	"net/http"
	"testing"
	"time"
)

func TestLogin2FA(t *testing.T) {

	t.Run("Success", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-2fa")
		register(t, email, testPassword)
		secret := enableTOTP(t, login(t, email, testPassword).AccessToken)
		challenge := login(t, email, testPassword)

		// The confirmation consumed the current step; the next step's code is
		// still inside the accept window.
		code := totpCode(t, secret, time.Now().Add(30*time.Second))

		// Act
		payload := map[string]string{"user_id": challenge.UserID, "code": code}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login/2fa", payload, "")

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("login 2fa failed: status=%d message=%q", status, errEnv.Message)
		}
		var data struct {
			AccessToken string `json:"access_token"`
		}
		decodeSuccess(t, body, &data)
		if data.AccessToken == "" {
			t.Fatal("expected access token after second factor")
		}
	})

	t.Run("WrongCode", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-2fa-wrong")
		register(t, email, testPassword)
		enableTOTP(t, login(t, email, testPassword).AccessToken)
		challenge := login(t, email, testPassword)

		// Act
		payload := map[string]string{"user_id": challenge.UserID, "code": "000000"}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login/2fa", payload, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized, got status=%d", status)
		}
		errEnv := decodeError(t, body)
		if errEnv.Message != "invalid challenge session or code" {
			t.Fatalf("unexpected message %q", errEnv.Message)
		}
	})

	t.Run("ReplayRejected", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-2fa-replay")
		register(t, email, testPassword)
		secret := enableTOTP(t, login(t, email, testPassword).AccessToken)
		challenge := login(t, email, testPassword)
		code := totpCode(t, secret, time.Now().Add(30*time.Second))

		payload := map[string]string{"user_id": challenge.UserID, "code": code}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login/2fa", payload, "")
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("first login 2fa failed: status=%d message=%q", status, errEnv.Message)
		}

		// Act
		status, _ = doJSON(t, http.MethodPost, "/api/v1/auth/login/2fa", payload, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected replay to be rejected, got status=%d", status)
		}
	})
}
