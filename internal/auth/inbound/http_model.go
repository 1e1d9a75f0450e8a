package inbound

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct{}

func (RegisterResponse) Message() string {
	return "Registration successful. You can now log in."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	TwoFactorRequired bool   `json:"two_factor_required,omitempty"`
	UserID            int64  `json:"user_id,string,omitempty"`
	AccessToken       string `json:"access_token,omitempty"`
}

type Login2FARequest struct {
	UserID int64  `json:"user_id,string"`
	Code   string `json:"code"`
}

type Login2FAResponse struct {
	AccessToken string `json:"access_token"`
}

type TOTPSetupResponse struct {
	Secret  string `json:"secret"`
	URI     string `json:"uri"`
	QRImage string `json:"qr_image"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

type TOTPConfirmResponse struct{}

func (TOTPConfirmResponse) Message() string {
	return "Two-factor authentication is now enabled."
}

type TOTPValidateRequest struct {
	Code string `json:"code"`
}

type TOTPValidateResponse struct{}

func (TOTPValidateResponse) Message() string {
	return "Code verified."
}
