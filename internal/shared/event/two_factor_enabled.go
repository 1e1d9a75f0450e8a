package event

const TwoFactorEnabledDestination string = "auth.two_factor_enabled"

type TwoFactorEnabledMessage struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}
