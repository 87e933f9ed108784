package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/http/render"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/service"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyPapel   contextKey = "papel"
)

const (
	msgTokenAusente     = "O token de autenticação não existe!"
	msgFormatoInvalido  = "Formato do token de autenticação inválido!"
	msgTokenInvalido    = "Token inválido ou expirado."
	msgSessaoEncerrada  = "Refresh token inválido, autentique novamente!"
	msgTokenRequerido   = "Token requerido."
	msgErroAutenticacao = "Erro de autenticação."
	msgAcessoNegado     = "Acesso negado. Você não tem permissão para esta ação."
)

// TokenVerifier valida tokens assinados.
type TokenVerifier interface {
	Verify(kind auth.TokenKind, token string) (*auth.Claims, error)
}

// SessionChecker informa se o usuário mantém refresh token persistido.
type SessionChecker interface {
	HasSession(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserLookup carrega o usuário com o papel.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*repo.Usuario, error)
}

// PermissionChecker consulta a tabela de permissões.
type PermissionChecker interface {
	Check(route, method string, papel repo.Papel) service.Decision
}

var errFormato = errors.New("formato de token inválido")

// bearerToken extrai o token do header Authorization. Devolve "", false sem header
// e errFormato quando o header não segue "Bearer <token>".
func bearerToken(r *http.Request) (string, bool, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false, nil
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true, errFormato
	}
	return parts[1], true, nil
}

// verifiedSubject valida o access token e devolve o id do usuário.
func verifiedSubject(tokens TokenVerifier, token string) (uuid.UUID, error) {
	claims, err := tokens.Verify(auth.KindAccess, token)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, errors.Join(auth.ErrTokenInvalid, err)
	}
	return id, nil
}

// Authenticate exige access token válido e sessão ativa (refresh token persistido).
// Qualquer falha de verificação ou erro interno responde 498.
func Authenticate(tokens TokenVerifier, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present, err := bearerToken(r)
			switch {
			case !present:
				render.Error(w, r, apperr.Authentication(apperr.StatusTokenExpired, msgTokenAusente))
				return
			case err != nil:
				render.Error(w, r, apperr.Authentication(apperr.StatusTokenExpired, msgFormatoInvalido))
				return
			}

			id, err := verifiedSubject(tokens, token)
			if err != nil {
				render.Error(w, r, apperr.TokenExpired(msgTokenInvalido).Wrap(err))
				return
			}

			ok, err := sessions.HasSession(r.Context(), id)
			if err != nil {
				log.Warn().Err(err).Str("usuario_id", id.String()).Msg("autenticação: falha ao consultar sessão")
				render.Error(w, r, apperr.TokenExpired(msgTokenInvalido).Wrap(err))
				return
			}
			if !ok {
				render.Error(w, r, apperr.Unauthorized("RefreshToken", msgSessaoEncerrada))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, id.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize valida o token de forma independente, carrega o papel do usuário e
// confere a tabela de permissões para a rota e o método.
func Authorize(tokens TokenVerifier, users UserLookup, perms PermissionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := bearerToken(r)
			if token == "" || err != nil {
				render.Error(w, r, apperr.Authentication(http.StatusUnauthorized, msgTokenRequerido))
				return
			}

			id, err := verifiedSubject(tokens, token)
			if err != nil {
				if auth.IsVerificationError(err) {
					render.Error(w, r, apperr.TokenExpired(msgTokenInvalido).Wrap(err))
					return
				}
				render.Error(w, r, apperr.Authentication(http.StatusUnauthorized, msgErroAutenticacao).Wrap(err))
				return
			}

			user, err := users.FindByID(r.Context(), id)
			if err != nil {
				if _, ok := apperr.As(err); ok {
					render.Error(w, r, err)
					return
				}
				render.Error(w, r, apperr.Authentication(http.StatusUnauthorized, msgErroAutenticacao).Wrap(err))
				return
			}

			route := routeKey(r)
			papel, err := repo.ParsePapel(string(user.Papel))
			if err != nil {
				log.Warn().
					Str("usuario_id", id.String()).
					Str("papel", string(user.Papel)).
					Str("rota", route).
					Msg("papel desconhecido")
				render.Error(w, r, apperr.Forbidden(msgAcessoNegado).Wrap(service.ErrForbidden))
				return
			}
			decision := perms.Check(route, r.Method, papel)
			if decision.Matched && !decision.Allowed {
				log.Warn().
					Str("usuario_id", id.String()).
					Str("papel", string(papel)).
					Str("rota", route).
					Str("method", r.Method).
					Msg("autorização negada")
				render.Error(w, r, apperr.Forbidden(msgAcessoNegado).Wrap(service.ErrForbidden))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, id.String())
			ctx = context.WithValue(ctx, ContextKeyPapel, papel)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// routeKey usa o padrão registrado no chi; sem ele, o caminho bruto.
func routeKey(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// GetSubject recupera o id do usuário autenticado.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetPapel recupera o papel resolvido pelo Authorize.
func GetPapel(ctx context.Context) repo.Papel {
	val, _ := ctx.Value(ContextKeyPapel).(repo.Papel)
	return val
}
