package tests

import (
	"net/http"
	"testing"
	"time"
)

func TestTOTPConfirm(t *testing.T) {

	t.Run("Success", func(t *testing.T) {

		// Arrange & Act
		email := uniqueEmail("real-confirm")
		register(t, email, testPassword)
		enableTOTP(t, login(t, email, testPassword).AccessToken)

		// Assert
		if !login(t, email, testPassword).TwoFactorRequired {
			t.Fatal("expected two-factor to be required after confirmation")
		}
	})

	t.Run("WithoutSetup", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-confirm-nosetup")
		register(t, email, testPassword)
		token := login(t, email, testPassword).AccessToken

		// Act
		payload := map[string]string{"code": "123456"}
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/2fa/confirm", payload, token)

		// Assert
		if status != http.StatusConflict {
			t.Fatalf("expected conflict, got status=%d", status)
		}
	})

	t.Run("WrongCodeKeepsDisabled", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-confirm-wrong")
		register(t, email, testPassword)
		token := login(t, email, testPassword).AccessToken

		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/2fa/setup", nil, token)
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("setup failed: status=%d message=%q", status, errEnv.Message)
		}

		// Act
		payload := map[string]string{"code": "000000"}
		status, _ = doJSON(t, http.MethodPost, "/api/v1/auth/2fa/confirm", payload, token)

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized, got status=%d", status)
		}
		if login(t, email, testPassword).TwoFactorRequired {
			t.Fatal("expected two-factor to stay disabled")
		}
	})
}

func TestTOTPValidate(t *testing.T) {

	t.Run("Success", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-validate")
		register(t, email, testPassword)
		token := login(t, email, testPassword).AccessToken
		secret := enableTOTP(t, token)

		// Act
		payload := map[string]string{"code": totpCode(t, secret, time.Now().Add(30*time.Second))}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/2fa/validate", payload, token)

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("validate failed: status=%d message=%q", status, errEnv.Message)
		}
	})

	t.Run("NotEnabled", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-validate-off")
		register(t, email, testPassword)
		token := login(t, email, testPassword).AccessToken

		// Act
		payload := map[string]string{"code": "123456"}
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/2fa/validate", payload, token)

		// Assert
		if status != http.StatusConflict {
			t.Fatalf("expected conflict, got status=%d", status)
		}
	})
}
