package services

import (
	"fmt"

	"github.com/miu/unidesk/internal/pkg/auth"
)

// credential is a password decided for an account during a save
type credential struct {
	hash      string
	plain     string
	generated bool
}

// newCredential hashes password, or generates one when it is empty
func newCredential(password string) (credential, error) {
	generated := false
	if password == "" {
		p, err := auth.GeneratePassword(auth.GeneratedPasswordLength)
		if err != nil {
			return credential{}, fmt.Errorf("failed to generate password: %w", err)
		}
		password = p
		generated = true
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return credential{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return credential{hash: hash, plain: password, generated: generated}, nil
}
