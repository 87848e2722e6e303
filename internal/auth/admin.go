package auth

import (
	"crypto/subtle"
	"errors"
)

var ErrInvalidAdminCredentials = errors.New("invalid admin username or password")

// Admin holds the single supermarket operator account configured for the
// deployment. PasswordHash is a bcrypt hash.
type Admin struct {
	Username     string
	PasswordHash string
}

// Login checks the credentials and issues an ADMIN token.
func (a Admin) Login(username, password string) (string, error) {
	if a.Username == "" || a.PasswordHash == "" {
		return "", ErrInvalidAdminCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) != 1 {
		return "", ErrInvalidAdminCredentials
	}
	if !CheckPasswordHash(password, a.PasswordHash) {
		return "", ErrInvalidAdminCredentials
	}
	return GenerateJWT(nil, a.Username, RoleAdmin)
}
