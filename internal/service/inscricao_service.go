package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/util"
)

const (
	msgInscricaoNaoEncontrada = "Inscrição não encontrada."
	msgNomeOuEmailCadastrado  = "Nome ou email já cadastrados."
	msgInscricaoFinalizada    = "Não é possível avaliar uma inscrição finalizada."
	msgInscricaoSemPontuacao  = "A inscrição precisa ser pontuada antes da aprovação ou reprovação."
	msgStatusDecisao          = "Status deve ser APROVADO ou REPROVADO."

	pontuacaoMinima = 0
	pontuacaoMaxima = 10
)

type inscricaoRepository interface {
	Create(ctx context.Context, in repo.NovaInscricao) (*repo.Inscricao, error)
	FindByID(ctx context.Context, id uuid.UUID) (*repo.Inscricao, error)
	FindByEmail(ctx context.Context, email string) (*repo.Inscricao, error)
	FindByNome(ctx context.Context, nome string) (*repo.Inscricao, error)
	Paginate(ctx context.Context, filter repo.InscricaoFilter, page repo.Page) (repo.Paginated[repo.Inscricao], error)
	UpdateAvaliacao(ctx context.Context, id uuid.UUID, pontuacao float64, observacao *string) (*repo.Inscricao, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status repo.Status) (*repo.Inscricao, error)
}

// InscricaoService aplica as regras do ciclo de vida das inscrições.
type InscricaoService struct {
	repo inscricaoRepository
}

// NewInscricaoService cria novo serviço.
func NewInscricaoService(r *repo.InscricaoRepository) *InscricaoService {
	return &InscricaoService{repo: r}
}

// InscricaoInput é o payload público de inscrição. Pontuação e status não
// fazem parte do contrato e são descartados na decodificação.
type InscricaoInput struct {
	Nome           string            `json:"nome" validate:"required,nao_vazio"`
	Email          string            `json:"email" validate:"required,email"`
	Telefone       string            `json:"telefone" validate:"telefone"`
	DataNascimento string            `json:"data_nascimento" validate:"required,data_br,nao_futura,idade_minima=16"`
	Background     []BackgroundInput `json:"background" validate:"required,min=1,dive"`
	Experiencia    string            `json:"experiencia" validate:"min=20"`
	AreaInteresse  string            `json:"area_interesse" validate:"required,nao_vazio,min=3"`
	Observacao     *string           `json:"observacao"`
}

// BackgroundInput descreve um certificado informado.
type BackgroundInput struct {
	Certificado string `json:"certificado" validate:"min=5"`
	Descricao   string `json:"descricao" validate:"min=10"`
}

// AvaliacaoInput carrega apenas pontuação e observação.
type AvaliacaoInput struct {
	Pontuacao  *float64 `json:"pontuacao" validate:"required,min=0,max=10"`
	Observacao *string  `json:"observacao"`
}

// AprovacaoInput carrega apenas o status final.
type AprovacaoInput struct {
	Status string `json:"status" validate:"required,status"`
}

// Create registra a inscrição como PENDENTE, rejeitando nome ou e-mail repetidos.
func (s *InscricaoService) Create(ctx context.Context, in InscricaoInput) (*repo.Inscricao, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	nascimento, err := util.ParseDataBR(in.DataNascimento)
	if err != nil {
		return nil, apperr.Validation("data_nascimento", "Data deve estar no formato DD/MM/AAAA ou DD-MM-AAAA.")
	}

	nova := repo.NovaInscricao{
		Nome:           strings.TrimSpace(in.Nome),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Telefone:       strings.TrimSpace(in.Telefone),
		DataNascimento: nascimento,
		Experiencia:    in.Experiencia,
		AreaInteresse:  in.AreaInteresse,
		Observacao:     in.Observacao,
	}
	for _, b := range in.Background {
		nova.Background = append(nova.Background, repo.Background{Certificado: b.Certificado, Descricao: b.Descricao})
	}

	if err := s.ensureUnique(ctx, nova.Nome, nova.Email); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, nova)
	if err != nil {
		return nil, err
	}
	log.Info().Str("inscricao_id", created.ID.String()).Msg("inscrição criada")
	return created, nil
}

func (s *InscricaoService) ensureUnique(ctx context.Context, nome, email string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return apperr.Validation("email ou nome", msgNomeOuEmailCadastrado)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if _, err := s.repo.FindByNome(ctx, nome); err == nil {
		return apperr.Validation("email ou nome", msgNomeOuEmailCadastrado)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	return nil
}

// Evaluate grava pontuação e observação enquanto a inscrição não estiver finalizada.
func (s *InscricaoService) Evaluate(ctx context.Context, id uuid.UUID, in AvaliacaoInput) (*repo.Inscricao, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}

	current, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Finalizada() {
		return nil, apperr.Validation("status", msgInscricaoFinalizada)
	}

	updated, err := s.repo.UpdateAvaliacao(ctx, id, *in.Pontuacao, in.Observacao)
	if err != nil {
		return nil, notFoundInscricao(err)
	}
	return updated, nil
}

// Approve grava o status final de uma inscrição já pontuada.
func (s *InscricaoService) Approve(ctx context.Context, id uuid.UUID, in AprovacaoInput) (*repo.Inscricao, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	status, err := repo.ParseStatus(in.Status)
	if err != nil || !status.Finalizada() {
		return nil, apperr.Validation("status", msgStatusDecisao)
	}

	current, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Pontuacao == nil {
		return nil, apperr.Validation("pontuacao", msgInscricaoSemPontuacao)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, notFoundInscricao(err)
	}
	return updated, nil
}

// Read busca a inscrição pelo id.
func (s *InscricaoService) Read(ctx context.Context, id uuid.UUID) (*repo.Inscricao, error) {
	inscricao, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundInscricao(err)
	}
	return inscricao, nil
}

// List devolve inscrições filtradas e paginadas.
func (s *InscricaoService) List(ctx context.Context, filter repo.InscricaoFilter, page repo.Page) (repo.Paginated[repo.Inscricao], error) {
	return s.repo.Paginate(ctx, filter, page)
}

// FindEvaluated lista apenas inscrições pontuadas. Com só um limite
// informado, o outro assume o extremo da escala.
func (s *InscricaoService) FindEvaluated(ctx context.Context, filter repo.InscricaoFilter, page repo.Page) (repo.Paginated[repo.Inscricao], error) {
	filter.SomenteAvaliadas = true
	switch {
	case filter.PontuacaoMin != nil && filter.PontuacaoMax == nil:
		teto := float64(pontuacaoMaxima)
		filter.PontuacaoMax = &teto
	case filter.PontuacaoMin == nil && filter.PontuacaoMax != nil:
		piso := float64(pontuacaoMinima)
		filter.PontuacaoMin = &piso
	}
	return s.repo.Paginate(ctx, filter, page)
}

// FindEvaluatedByID busca a inscrição somente se já tiver pontuação.
func (s *InscricaoService) FindEvaluatedByID(ctx context.Context, id uuid.UUID) (*repo.Inscricao, error) {
	inscricao, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if inscricao.Pontuacao == nil {
		return nil, apperr.NotFound("Inscrição", msgInscricaoNaoEncontrada)
	}
	return inscricao, nil
}

func notFoundInscricao(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("Inscrição", msgInscricaoNaoEncontrada)
	}
	return err
}
