package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
)

var inscricaoColumns = []string{
	"id", "nome", "email", "telefone", "data_nascimento", "background", "experiencia",
	"area_interesse", "observacao", "pontuacao", "status", "criado_em", "atualizado_em",
}

var inscricaoSortable = map[string]string{
	"nome":      "nome",
	"email":     "email",
	"pontuacao": "pontuacao",
	"status":    "status",
	"createdAt": "criado_em",
}

// InscricaoRepository provê acesso à tabela de inscrições.
type InscricaoRepository struct {
	db DBTX
}

// NewInscricaoRepository cria o repositório.
func NewInscricaoRepository(db DBTX) *InscricaoRepository {
	return &InscricaoRepository{db: db}
}

// Create insere a inscrição sempre como PENDENTE e sem pontuação.
func (r *InscricaoRepository) Create(ctx context.Context, in NovaInscricao) (*Inscricao, error) {
	background := in.Background
	if background == nil {
		background = []Background{}
	}

	query, args, err := psql.Insert("inscricoes").
		Columns("id", "nome", "email", "telefone", "data_nascimento", "background", "experiencia", "area_interesse", "observacao", "status").
		Values(uuid.New(), in.Nome, in.Email, in.Telefone, in.DataNascimento, background, in.Experiencia, in.AreaInteresse, in.Observacao, string(StatusPendente)).
		Suffix(returning(inscricaoColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("montar insert inscricao: %w", err)
	}
	return r.getOne(ctx, query, args...)
}

// FindByID busca inscrição pelo identificador.
func (r *InscricaoRepository) FindByID(ctx context.Context, id uuid.UUID) (*Inscricao, error) {
	return r.findBy(ctx, squirrel.Eq{"id": id})
}

// FindByEmail busca inscrição pelo e-mail (sem diferenciar maiúsculas).
func (r *InscricaoRepository) FindByEmail(ctx context.Context, email string) (*Inscricao, error) {
	return r.findBy(ctx, squirrel.Expr("lower(email) = lower(?)", email))
}

// FindByNome busca inscrição pelo nome exato.
func (r *InscricaoRepository) FindByNome(ctx context.Context, nome string) (*Inscricao, error) {
	return r.findBy(ctx, squirrel.Eq{"nome": nome})
}

// Paginate lista inscrições filtradas e paginadas.
func (r *InscricaoRepository) Paginate(ctx context.Context, filter InscricaoFilter, page Page) (Paginated[Inscricao], error) {
	page = page.Normalize()
	conds := filter.Conditions()

	countSQL, countArgs, err := applyConditions(psql.Select("COUNT(*)").From("inscricoes"), conds).ToSql()
	if err != nil {
		return Paginated[Inscricao]{}, fmt.Errorf("montar contagem inscricoes: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return Paginated[Inscricao]{}, fmt.Errorf("contar inscricoes: %w", err)
	}

	listSQL, listArgs, err := applyConditions(psql.Select(inscricaoColumns...).From("inscricoes"), conds).
		OrderBy(orderBy(page.Sort, inscricaoSortable, "criado_em DESC")).
		Limit(uint64(page.Limit)).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return Paginated[Inscricao]{}, fmt.Errorf("montar listagem inscricoes: %w", err)
	}

	var docs []Inscricao
	if err := pgxscan.Select(ctx, r.db, &docs, listSQL, listArgs...); err != nil {
		return Paginated[Inscricao]{}, fmt.Errorf("listar inscricoes: %w", err)
	}
	return NewPaginated(docs, int(total), page), nil
}

// UpdateAvaliacao grava somente pontuação e observação.
func (r *InscricaoRepository) UpdateAvaliacao(ctx context.Context, id uuid.UUID, pontuacao float64, observacao *string) (*Inscricao, error) {
	query, args, err := psql.Update("inscricoes").
		Set("pontuacao", pontuacao).
		Set("observacao", observacao).
		Set("atualizado_em", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning(inscricaoColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("montar update avaliacao: %w", err)
	}
	return r.getOne(ctx, query, args...)
}

// UpdateStatus grava somente o status.
func (r *InscricaoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Inscricao, error) {
	query, args, err := psql.Update("inscricoes").
		Set("status", string(status)).
		Set("atualizado_em", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning(inscricaoColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("montar update status: %w", err)
	}
	return r.getOne(ctx, query, args...)
}

func (r *InscricaoRepository) findBy(ctx context.Context, pred squirrel.Sqlizer) (*Inscricao, error) {
	query, args, err := psql.Select(inscricaoColumns...).From("inscricoes").Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("montar select inscricao: %w", err)
	}
	return r.getOne(ctx, query, args...)
}

func (r *InscricaoRepository) getOne(ctx context.Context, query string, args ...any) (*Inscricao, error) {
	var out Inscricao
	if err := pgxscan.Get(ctx, r.db, &out, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inscricao: %w", err)
	}
	return &out, nil
}
