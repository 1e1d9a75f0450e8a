package event

const UserRegisteredDestination string = "auth.user_registered"

type UserRegisteredMessage struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}
