package hash

import "fmt"

// Hash hashes plaintext secrets and verifies plaintext against stored hashes.
type Hash interface {
	// Hash takes a plaintext string and returns its hashed representation.
	Hash(str string) ([]byte, error)
	// Verify reports whether the plaintext matches the hashed value.
	Verify(hashed, str string) bool
}

// Supported password hashing drivers.
const (
	DriverBcrypt   = "bcrypt"
	DriverArgon2id = "argon2id"
)

// New returns the password hasher selected by configuration. An empty
// driver falls back to bcrypt.
func New(driver string, bcryptCost int, pepper string) (Hash, error) {
	switch driver {
	case DriverBcrypt, "":
		return NewBcrypt(bcryptCost, pepper), nil
	case DriverArgon2id:
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("hash: unknown driver %q", driver)
	}
}
