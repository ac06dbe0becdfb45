// Package password is the one-way hashing capability used by login and
// password-reset flows.
package password

import "golang.org/x/crypto/bcrypt"

// Hash returns the bcrypt digest of a plaintext password.
func Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether plain matches the stored digest.
func Compare(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
