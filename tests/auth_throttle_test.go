package tests

import (
	"net/http"
	"testing"
)

// The server's failure budget, from config throttle.limit.
const throttleLimit = 5

func TestLoginThrottle(t *testing.T) {

	t.Run("LocksAfterBudget", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-throttle")
		register(t, email, testPassword)
		payload := map[string]string{"email": email, "password": "Wrong123!"}

		// Act
		for i := 0; i < throttleLimit; i++ {
			status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")
			if status != http.StatusUnauthorized {
				t.Fatalf("attempt %d: expected unauthorized, got status=%d", i+1, status)
			}
		}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")

		// Assert
		if status != http.StatusTooManyRequests {
			t.Fatalf("expected too many requests, got status=%d", status)
		}
		errEnv := decodeError(t, body)
		if errEnv.Message != "too many failed attempts, try again later" {
			t.Fatalf("unexpected message %q", errEnv.Message)
		}

		// The lock holds even for the correct password.
		good := map[string]string{"email": email, "password": testPassword}
		status, _ = doJSON(t, http.MethodPost, "/api/v1/auth/login", good, "")
		if status != http.StatusTooManyRequests {
			t.Fatalf("expected lock to hold, got status=%d", status)
		}
	})

	t.Run("SuccessResetsBudget", func(t *testing.T) {

		// Arrange
		email := uniqueEmail("real-throttle-reset")
		register(t, email, testPassword)
		bad := map[string]string{"email": email, "password": "Wrong123!"}

		for i := 0; i < throttleLimit-1; i++ {
			status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/login", bad, "")
			if status != http.StatusUnauthorized {
				t.Fatalf("attempt %d: expected unauthorized, got status=%d", i+1, status)
			}
		}

		// Act
		good := map[string]string{"email": email, "password": testPassword}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login", good, "")

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("login failed: status=%d message=%q", status, errEnv.Message)
		}

		// A fresh window: a wrong password fails on credentials again,
		// not on the failure budget.
		status, _ = doJSON(t, http.MethodPost, "/api/v1/auth/login", bad, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized after reset, got status=%d", status)
		}
	})
}
