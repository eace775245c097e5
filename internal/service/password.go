package service

import (
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// PasswordCost is the bcrypt cost used for new hashes; tests lower it
var PasswordCost = bcrypt.DefaultCost

// HashPassword validates the length of a new password and hashes it
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", Invalid("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
