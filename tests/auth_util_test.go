package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/gofactor/internal/pkg/otp"
)

const testPassword = "Secret123!"

// engine mirrors the server's TOTP parameters so tests can derive codes from
// the secret returned by setup.
var engine = otp.NewTOTP("gofactor", 30, 1, 6)

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

type loginData struct {
	TwoFactorRequired bool   `json:"two_factor_required"`
	UserID            string `json:"user_id"`
	AccessToken       string `json:"access_token"`
}

func register(t *testing.T, email, password string) {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/register", payload, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("register failed: status=%d message=%q", status, errEnv.Message)
	}
}

func login(t *testing.T, email, password string) loginData {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("login failed: status=%d message=%q", status, errEnv.Message)
	}

	var data loginData
	decodeSuccess(t, body, &data)

	return data
}

func totpCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := engine.GenerateCode(secret, at)
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}

	return code
}

// enableTOTP walks a fresh token through setup and confirm and returns the
// plaintext secret. The confirmation consumes the current time-step.
func enableTOTP(t *testing.T, token string) string {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/2fa/setup", nil, token)
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("totp setup failed: status=%d message=%q", status, errEnv.Message)
	}

	var setup struct {
		Secret  string `json:"secret"`
		URI     string `json:"uri"`
		QRImage string `json:"qr_image"`
	}
	decodeSuccess(t, body, &setup)
	if setup.Secret == "" || setup.URI == "" {
		t.Fatal("expected secret and uri in setup response")
	}

	confirm := map[string]string{"code": totpCode(t, setup.Secret, time.Now())}
	status, body = doJSON(t, http.MethodPost, "/api/v1/auth/2fa/confirm", confirm, token)
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("totp confirm failed: status=%d message=%q", status, errEnv.Message)
	}

	return setup.Secret
}
