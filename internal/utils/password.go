package utils

import "golang.org/x/crypto/bcrypt"

// HashOperatorPassword returns the bcrypt hash stored in
// operators.password_hash. Only the provisioning tool hashes; the terminal
// itself never writes operator credentials at runtime.
func HashOperatorPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyOperatorPassword compares a stored operator hash against a login
// attempt.
func VerifyOperatorPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
