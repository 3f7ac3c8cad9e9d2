package services

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// Password policy matching the product's sign-up form: at least 8 characters.
var passwordRegex = regexp.MustCompile(`^.{8,}$`)

const bcryptCost = 12

func IsStrongPassword(plain string) bool {
	return passwordRegex.MatchString(plain)
}

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CompareHash(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
