package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/util"
)

type usuarioRepository interface {
	Create(ctx context.Context, in repo.NovoUsuario) (*repo.Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*repo.Usuario, error)
	FindByEmail(ctx context.Context, email string) (*repo.Usuario, error)
	FindByNome(ctx context.Context, nome string) (*repo.Usuario, error)
	Paginate(ctx context.Context, filter repo.UsuarioFilter, page repo.Page) (repo.Paginated[repo.Usuario], error)
	Update(ctx context.Context, id uuid.UUID, patch repo.UsuarioPatch) (*repo.Usuario, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UsuarioService administra avaliadores, coordenadores e administradores.
type UsuarioService struct {
	repo     usuarioRepository
	hasher   auth.PasswordHasher
	sessions *SessionStore
}

// NewUsuarioService cria novo serviço.
func NewUsuarioService(r *repo.UsuarioRepository, hasher auth.PasswordHasher, sessions *SessionStore) *UsuarioService {
	return &UsuarioService{repo: r, hasher: hasher, sessions: sessions}
}

// UsuarioInput é o payload de criação.
type UsuarioInput struct {
	Nome           string `json:"nome" validate:"required,nao_vazio"`
	Email          string `json:"email" validate:"required,email"`
	Telefone       string `json:"telefone" validate:"telefone"`
	Senha          string `json:"senha" validate:"required,min=8,senha_forte"`
	DataNascimento string `json:"data_nascimento" validate:"required,data_br,nao_futura,idade_minima=16"`
	Papel          string `json:"papel" validate:"required,papel"`
}

// UsuarioUpdateInput é o payload de atualização parcial.
type UsuarioUpdateInput struct {
	Nome           *string `json:"nome" validate:"omitempty,nao_vazio"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Telefone       *string `json:"telefone" validate:"omitempty,telefone"`
	Senha          *string `json:"senha" validate:"omitempty,min=8,senha_forte"`
	DataNascimento *string `json:"data_nascimento" validate:"omitempty,data_br,nao_futura,idade_minima=16"`
	Papel          *string `json:"papel" validate:"omitempty,papel"`
}

// Create cadastra o usuário com a senha em hash.
func (s *UsuarioService) Create(ctx context.Context, in UsuarioInput) (*repo.Usuario, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	nascimento, err := util.ParseDataBR(in.DataNascimento)
	if err != nil {
		return nil, apperr.Validation("data_nascimento", "Data deve estar no formato DD/MM/AAAA ou DD-MM-AAAA.")
	}
	papel, err := repo.ParsePapel(in.Papel)
	if err != nil {
		return nil, apperr.Validation("papel", "Papel inválido. Use: administrador, coordenador ou avaliador.")
	}

	nome := strings.TrimSpace(in.Nome)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.ensureUnique(ctx, uuid.Nil, nome, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Senha)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, repo.NovoUsuario{
		Nome:           nome,
		Email:          email,
		SenhaHash:      hash,
		DataNascimento: nascimento,
		Telefone:       strings.TrimSpace(in.Telefone),
		Papel:          papel,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("usuario_id", created.ID.String()).Str("papel", string(created.Papel)).Msg("usuário criado")
	return created, nil
}

// ensureUnique rejeita nome ou e-mail já usados por outro usuário.
func (s *UsuarioService) ensureUnique(ctx context.Context, self uuid.UUID, nome, email string) error {
	if email != "" {
		found, err := s.repo.FindByEmail(ctx, email)
		if err == nil && found.ID != self {
			return apperr.Validation("email ou nome", msgNomeOuEmailCadastrado)
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}
	if nome != "" {
		found, err := s.repo.FindByNome(ctx, nome)
		if err == nil && found.ID != self {
			return apperr.Validation("email ou nome", msgNomeOuEmailCadastrado)
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}
	return nil
}

// Read busca o usuário pelo id.
func (s *UsuarioService) Read(ctx context.Context, id uuid.UUID) (*repo.Usuario, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundUsuario(err)
	}
	return user, nil
}

// List devolve usuários filtrados e paginados.
func (s *UsuarioService) List(ctx context.Context, filter repo.UsuarioFilter, page repo.Page) (repo.Paginated[repo.Usuario], error) {
	return s.repo.Paginate(ctx, filter, page)
}

// Update aplica alterações parciais.
func (s *UsuarioService) Update(ctx context.Context, id uuid.UUID, in UsuarioUpdateInput) (*repo.Usuario, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.Read(ctx, id); err != nil {
		return nil, err
	}

	var patch repo.UsuarioPatch
	var nome, email string
	if in.Nome != nil {
		nome = strings.TrimSpace(*in.Nome)
		patch.Nome = &nome
	}
	if in.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*in.Email))
		patch.Email = &email
	}
	if in.Telefone != nil {
		telefone := strings.TrimSpace(*in.Telefone)
		patch.Telefone = &telefone
	}
	if in.DataNascimento != nil {
		nascimento, err := util.ParseDataBR(*in.DataNascimento)
		if err != nil {
			return nil, apperr.Validation("data_nascimento", "Data deve estar no formato DD/MM/AAAA ou DD-MM-AAAA.")
		}
		patch.DataNascimento = &nascimento
	}
	if in.Papel != nil {
		papel, err := repo.ParsePapel(*in.Papel)
		if err != nil {
			return nil, apperr.Validation("papel", "Papel inválido. Use: administrador, coordenador ou avaliador.")
		}
		patch.Papel = &papel
	}
	if in.Senha != nil {
		hash, err := s.hasher.Hash(*in.Senha)
		if err != nil {
			return nil, err
		}
		patch.SenhaHash = &hash
	}

	if err := s.ensureUnique(ctx, id, nome, email); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, notFoundUsuario(err)
	}
	return updated, nil
}

// Delete remove o usuário e encerra a sessão em cache.
func (s *UsuarioService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Read(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Forget(ctx, id); err != nil {
		return apperr.Server("Sessão", msgFalhaLogout).Wrap(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundUsuario(err)
	}
	log.Info().Str("usuario_id", id.String()).Msg("usuário removido")
	return nil
}

func notFoundUsuario(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("Usuário", msgUsuarioNaoEncontrado)
	}
	return err
}
