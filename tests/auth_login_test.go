package tests

import (
	"net/http"
	"testing"
)

func TestLogin(t *testing.T) {

	t.Run("WithoutTwoFactor", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-login")
		register(t, email, testPassword)

		// Act
		resp := login(t, email, testPassword)

		// Assert
		if resp.AccessToken == "" {
			t.Fatal("expected access token in login response")
		}
		if resp.TwoFactorRequired {
			t.Fatal("expected two_factor_required to be false")
		}
	})

	t.Run("WithTwoFactor", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-login-2fa")
		register(t, email, testPassword)
		enableTOTP(t, login(t, email, testPassword).AccessToken)

		// Act
		resp := login(t, email, testPassword)

		// Assert
		if resp.AccessToken != "" {
			t.Fatal("expected no access token before the second factor")
		}
		if !resp.TwoFactorRequired || resp.UserID == "" {
			t.Fatal("expected two_factor_required and user_id in login response")
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-login-wrong")
		register(t, email, testPassword)

		// Act
		payload := map[string]string{"email": email, "password": "Wrong123!"}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized, got status=%d", status)
		}
		errEnv := decodeError(t, body)
		if errEnv.Message != "invalid email or password" {
			t.Fatalf("unexpected message %q", errEnv.Message)
		}
	})

	t.Run("UnknownEmailSameMessage", func(t *testing.T) {

		// Act
		payload := map[string]string{"email": uniqueEmail("real-login-ghost"), "password": testPassword}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized, got status=%d", status)
		}
		errEnv := decodeError(t, body)
		if errEnv.Message != "invalid email or password" {
			t.Fatalf("unexpected message %q", errEnv.Message)
		}
	})
}
