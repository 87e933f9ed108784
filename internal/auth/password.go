package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

// ErrEmptyPassword impede hash de senha vazia.
var ErrEmptyPassword = errors.New("senha vazia")

// DefaultParams são os parâmetros Argon2id usados em produção.
var DefaultParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher gera e confere hashes de senha.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, encodedHash string) (bool, error)
}

// Argon2Hasher implementa PasswordHasher com Argon2id.
type Argon2Hasher struct {
	params *argon2id.Params
}

// NewArgon2Hasher cria o hasher; params nil usa DefaultParams.
func NewArgon2Hasher(params *argon2id.Params) *Argon2Hasher {
	if params == nil {
		params = DefaultParams
	}
	return &Argon2Hasher{params: params}
}

// Hash gera um hash Argon2id (os parâmetros ficam no próprio hash).
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	return argon2id.CreateHash(plaintext, h.params)
}

// Compare confere a senha lendo os parâmetros gravados no hash.
func (h *Argon2Hasher) Compare(plaintext, encodedHash string) (bool, error) {
	if encodedHash == "" {
		return false, nil
	}
	return argon2id.ComparePasswordAndHash(plaintext, encodedHash)
}
