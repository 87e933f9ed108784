package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/util"
)

const (
	msgCredenciaisInvalidas = "Credenciais inválidas"
	msgFalhaToken           = "Falha na criação do token"
	msgFalhaLogout          = "Falha ao encerrar a sessão. Tente novamente."
	msgTokenInvalido        = "Token inválido ou expirado."
	msgUsuarioNaoEncontrado = "Usuário não encontrado."
)

type authRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*repo.Usuario, error)
	FindByIDWithTokens(ctx context.Context, id uuid.UUID) (*repo.Usuario, error)
	FindByEmail(ctx context.Context, email string) (*repo.Usuario, error)
	FindByEmailWithSenha(ctx context.Context, email string) (*repo.Usuario, error)
	SaveTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error
	ClearTokens(ctx context.Context, id uuid.UUID) error
	UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string) error
}

// AuthService concentra login, logout e recuperação de senha.
type AuthService struct {
	repo     authRepository
	hasher   auth.PasswordHasher
	tokens   *auth.TokenIssuer
	sessions *SessionStore
	notifier RecoveryNotifier
}

// NewAuthService cria novo serviço.
func NewAuthService(r *repo.UsuarioRepository, hasher auth.PasswordHasher, tokens *auth.TokenIssuer, sessions *SessionStore, notifier RecoveryNotifier) *AuthService {
	if notifier == nil {
		notifier = LogRecoveryNotifier{}
	}
	return &AuthService{repo: r, hasher: hasher, tokens: tokens, sessions: sessions, notifier: notifier}
}

// LoginInput é o payload de login.
type LoginInput struct {
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
}

// LoginUser é o perfil público acrescido dos tokens.
type LoginUser struct {
	repo.Usuario
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshtoken"`
}

// LoginResult representa o retorno do login.
type LoginResult struct {
	User LoginUser `json:"user"`
}

// Login autentica por e-mail e senha, emite um access token novo e reaproveita
// o refresh token persistido enquanto ele for válido.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.repo.FindByEmailWithSenha(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, apperr.Unauthorized("Email", msgCredenciaisInvalidas)
		}
		return nil, err
	}

	ok, err := s.hasher.Compare(in.Senha, user.Senha)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, apperr.Unauthorized("Senha", msgCredenciaisInvalidas)
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, apperr.Unauthorized("Senha", msgCredenciaisInvalidas)
	}

	accessToken, err := s.tokens.Issue(auth.KindAccess, user.ID.String())
	if err != nil {
		return nil, apperr.Server("Token", msgFalhaToken).Wrap(err)
	}

	withTokens, err := s.repo.FindByIDWithTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.resolveRefresh(withTokens)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveTokens(ctx, user.ID, accessToken, refreshToken); err != nil {
		return nil, err
	}

	profile, err := s.repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.sessions.Remember(ctx, user.ID)

	return &LoginResult{User: LoginUser{Usuario: *profile, AccessToken: accessToken, RefreshToken: refreshToken}}, nil
}

// resolveRefresh reaproveita o refresh token persistido ou emite outro quando
// ele não existe, expirou ou está malformado.
func (s *AuthService) resolveRefresh(user *repo.Usuario) (string, error) {
	if user.RefreshToken != nil && *user.RefreshToken != "" {
		_, err := s.tokens.Verify(auth.KindRefresh, *user.RefreshToken)
		if err == nil {
			return *user.RefreshToken, nil
		}
		if !auth.IsVerificationError(err) {
			return "", apperr.Server("Token", msgFalhaToken).Wrap(err)
		}
		log.Info().Str("usuario_id", user.ID.String()).Msg("login: refresh token renovado")
	}

	refresh, err := s.tokens.Issue(auth.KindRefresh, user.ID.String())
	if err != nil {
		return "", apperr.Server("Token", msgFalhaToken).Wrap(err)
	}
	return refresh, nil
}

// Logout remove a sessão do cache e limpa os tokens persistidos do usuário.
func (s *AuthService) Logout(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Forget(ctx, id); err != nil {
		return apperr.Server("Sessão", msgFalhaLogout).Wrap(err)
	}
	if err := s.repo.ClearTokens(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Usuário", msgUsuarioNaoEncontrado)
		}
		return err
	}
	return nil
}

// LogoutWithToken identifica o usuário pelo access token informado e encerra a sessão.
func (s *AuthService) LogoutWithToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" || token == "null" || token == "undefined" {
		return apperr.New(http.StatusBadRequest, "invalidLogout", "Logout", "Requisição com sintaxe incorreta")
	}

	claims, err := s.tokens.Verify(auth.KindAccess, token)
	if err != nil {
		return apperr.TokenExpired(msgTokenInvalido).Wrap(err)
	}
	id, err := util.ParseID(claims.ID)
	if err != nil {
		return err
	}
	return s.Logout(ctx, id)
}

// RecuperacaoInput solicita o token de recuperação.
type RecuperacaoInput struct {
	Email string `json:"email" validate:"required,email"`
}

// RedefinicaoInput troca a senha a partir do token de recuperação.
type RedefinicaoInput struct {
	Token string `json:"token" validate:"required"`
	Senha string `json:"senha" validate:"required,min=8,senha_forte"`
}

// SolicitarRecuperacao emite um token de recuperação. E-mails desconhecidos
// retornam sucesso para não revelar cadastros.
func (s *AuthService) SolicitarRecuperacao(ctx context.Context, in RecuperacaoInput) error {
	if err := util.ValidateStruct(in); err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Info().Msg("recuperação: e-mail não cadastrado")
			return nil
		}
		return err
	}

	token, err := s.tokens.Issue(auth.KindRecovery, user.ID.String())
	if err != nil {
		return apperr.Server("Token", msgFalhaToken).Wrap(err)
	}
	return s.notifier.NotifyRecovery(ctx, *user, token)
}

// RedefinirSenha grava a nova senha e derruba a sessão atual.
func (s *AuthService) RedefinirSenha(ctx context.Context, in RedefinicaoInput) error {
	if err := util.ValidateStruct(in); err != nil {
		return err
	}

	claims, err := s.tokens.Verify(auth.KindRecovery, strings.TrimSpace(in.Token))
	if err != nil {
		return apperr.TokenExpired(msgTokenInvalido).Wrap(err)
	}
	id, err := util.ParseID(claims.ID)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Senha)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateSenha(ctx, id, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Usuário", msgUsuarioNaoEncontrado)
		}
		return err
	}
	return s.Logout(ctx, id)
}

// RecoveryNotifier entrega o token de recuperação ao usuário.
type RecoveryNotifier interface {
	NotifyRecovery(ctx context.Context, user repo.Usuario, token string) error
}

// LogRecoveryNotifier registra o token no log.
// TODO: enviar por e-mail quando houver provedor SMTP configurado.
type LogRecoveryNotifier struct{}

func (LogRecoveryNotifier) NotifyRecovery(_ context.Context, user repo.Usuario, token string) error {
	log.Info().
		Str("usuario_id", user.ID.String()).
		Str("email", user.Email).
		Msg("recuperação de senha solicitada")
	log.Debug().Str("usuario_id", user.ID.String()).Str("token", token).Msg("token de recuperação")
	return nil
}
