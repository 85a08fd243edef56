package utils

import "golang.org/x/crypto/bcrypt"

// passwordCost pins the bcrypt work factor so a library default bump never
// changes login latency unnoticed.
const passwordCost = bcrypt.DefaultCost

// HashPassword derives the storable hash for an account password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
