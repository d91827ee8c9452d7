// password.go wraps bcrypt for credential storage. Plaintext passwords are
// hashed at registration and never persisted; comparison goes through bcrypt's
// constant-relative-time check rather than any direct equality.
package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a salted bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword validates the cleartext password against a stored bcrypt
// hash. Mismatches and malformed hashes both map to ErrInvalidCredentials so
// the caller cannot distinguish them.
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// VerifyAdmin checks the supplied credentials against the configured operator
// identity. The bcrypt comparison runs regardless of whether the username
// matched, so a wrong username costs the same time as a wrong password.
func VerifyAdmin(username, password, wantUsername, wantHash string) error {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(wantUsername)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(wantHash), []byte(password))

	if !usernameOK || passwordErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
