package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid cobre token malformado, assinatura inválida ou segredo de outro tipo.
	ErrTokenInvalid = errors.New("token inválido")
	// ErrTokenExpired indica assinatura válida com expiração vencida.
	ErrTokenExpired = errors.New("token expirado")
	// ErrUnknownKind indica tipo de token sem configuração.
	ErrUnknownKind = errors.New("tipo de token desconhecido")
)

// TokenKind identifica a finalidade do token.
type TokenKind string

const (
	KindAccess   TokenKind = "access"
	KindRefresh  TokenKind = "refresh"
	KindRecovery TokenKind = "recovery"
)

// KindConfig guarda segredo e validade de um tipo de token.
type KindConfig struct {
	Secret string
	TTL    time.Duration
}

// Claims representa o payload dos tokens emitidos.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer emite e valida tokens HS256 por tipo.
type TokenIssuer struct {
	kinds map[TokenKind]KindConfig
	now   func() time.Time
}

// IssuerOption customiza o emissor.
type IssuerOption func(*TokenIssuer)

// WithClock injeta o relógio usado na emissão e na validação (útil em testes).
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewTokenIssuer cria o emissor com a configuração de cada tipo.
func NewTokenIssuer(kinds map[TokenKind]KindConfig, opts ...IssuerOption) *TokenIssuer {
	cfg := make(map[TokenKind]KindConfig, len(kinds))
	for k, v := range kinds {
		cfg[k] = KindConfig{Secret: v.Secret, TTL: v.TTL}
	}
	issuer := &TokenIssuer{kinds: cfg, now: time.Now}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

// TTL devolve a validade configurada para o tipo.
func (i *TokenIssuer) TTL(kind TokenKind) time.Duration {
	return i.kinds[kind].TTL
}

// Issue gera um token assinado para o subject.
func (i *TokenIssuer) Issue(kind TokenKind, subjectID string) (string, error) {
	cfg, ok := i.kinds[kind]
	if !ok || cfg.Secret == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	now := i.now().UTC()
	claims := Claims{
		ID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("assinar token %s: %w", kind, err)
	}
	return signed, nil
}

// Verify valida assinatura e expiração segundo o segredo do tipo.
func (i *TokenIssuer) Verify(kind TokenKind, tokenString string) (*Claims, error) {
	cfg, ok := i.kinds[kind]
	if !ok || cfg.Secret == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IsVerificationError indica falha de expiração ou de formato/assinatura.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenInvalid)
}
