// Package service declares the collaborators that use cases depend on but do not implement.
package service

// PasswordHasher hashes account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Check reports whether password matches hash.
	Check(password, hash string) bool

	// NeedsRehash reports whether hash was produced with weaker parameters than the current ones.
	NeedsRehash(hash string) bool
}
