package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
)

// usuarioColumns é a projeção padrão: sem senha e sem tokens.
var usuarioColumns = []string{
	"id", "nome", "email", "data_nascimento", "telefone", "papel", "criado_em", "atualizado_em",
}

var usuarioSortable = map[string]string{
	"nome":      "nome",
	"email":     "email",
	"papel":     "papel",
	"createdAt": "criado_em",
}

func withColumns(extra ...string) []string {
	cols := make([]string, 0, len(usuarioColumns)+len(extra))
	cols = append(cols, usuarioColumns...)
	return append(cols, extra...)
}

// UsuarioRepository provê acesso à tabela de usuários.
type UsuarioRepository struct {
	db DBTX
}

// NewUsuarioRepository cria o repositório.
func NewUsuarioRepository(db DBTX) *UsuarioRepository {
	return &UsuarioRepository{db: db}
}

// Create insere um novo usuário.
func (r *UsuarioRepository) Create(ctx context.Context, in NovoUsuario) (*Usuario, error) {
	query, args, err := psql.Insert("usuarios").
		Columns("id", "nome", "email", "senha", "data_nascimento", "telefone", "papel").
		Values(uuid.New(), in.Nome, in.Email, in.SenhaHash, in.DataNascimento, in.Telefone, string(in.Papel)).
		Suffix(returning(usuarioColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("montar insert usuario: %w", err)
	}
	return r.getOne(ctx, query, args...)
}

// FindByID busca o perfil público do usuário.
func (r *UsuarioRepository) FindByID(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	return r.findBy(ctx, usuarioColumns, squirrel.Eq{"id": id})
}

// FindByIDWithTokens inclui os tokens persistidos, fora da projeção padrão.
func (r *UsuarioRepository) FindByIDWithTokens(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	return r.findBy(ctx, withColumns("accesstoken", "refreshtoken"), squirrel.Eq{"id": id})
}

// FindByEmail busca o perfil público pelo e-mail.
func (r *UsuarioRepository) FindByEmail(ctx context.Context, email string) (*Usuario, error) {
	return r.findBy(ctx, usuarioColumns, squirrel.Expr("lower(email) = lower(?)", email))
}

// FindByEmailWithSenha inclui o hash da senha para o login.
func (r *UsuarioRepository) FindByEmailWithSenha(ctx context.Context, email string) (*Usuario, error) {
	return r.findBy(ctx, withColumns("senha"), squirrel.Expr("lower(email) = lower(?)", email))
}

// FindByNome busca usuário pelo nome exato.
func (r *UsuarioRepository) FindByNome(ctx context.Context, nome string) (*Usuario, error) {
	return r.findBy(ctx, usuarioColumns, squirrel.Eq{"nome": nome})
}

// Paginate lista usuários filtrados e paginados.
func (r *UsuarioRepository) Paginate(ctx context.Context, filter UsuarioFilter, page Page) (Paginated[Usuario], error) {
	page = page.Normalize()
	conds := filter.Conditions()

	countSQL, countArgs, err := applyConditions(psql.Select("COUNT(*)").From("usuarios"), conds).ToSql()
	if err != nil {
		return Paginated[Usuario]{}, fmt.Errorf("montar contagem usuarios: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return Paginated[Usuario]{}, fmt.Errorf("contar usuarios: %w", err)
	}

	listSQL, listArgs, err := applyConditions(psql.Select(usuarioColumns...).From("usuarios"), conds).
		OrderBy(orderBy(page.Sort, usuarioSortable, "criado_em DESC")).
		Limit(uint64(page.Limit)).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return Paginated[Usuario]{}, fmt.Errorf("montar listagem usuarios: %w", err)
	}

	var docs []Usuario
	if err := pgxscan.Select(ctx, r.db, &docs, listSQL, listArgs...); err != nil {
		return Paginated[Usuario]{}, fmt.Errorf("listar usuarios: %w", err)
	}
	return NewPaginated(docs, int(total), page), nil
}

// Update aplica o patch de forma atômica e devolve o registro atualizado.
func (r *UsuarioRepository) Update(ctx context.Context, id uuid.UUID, patch UsuarioPatch) (*Usuario, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}

	b := psql.Update("usuarios")
	if patch.Nome != nil {
		b = b.Set("nome", *patch.Nome)
	}
	if patch.Email != nil {
		b = b.Set("email", *patch.Email)
	}
	if patch.SenhaHash != nil {
		b = b.Set("senha", *patch.SenhaHash)
	}
	if patch.DataNascimento != nil {
		b = b.Set("data_nascimento", *patch.DataNascimento)
	}
	if patch.Telefone != nil {
		b = b.Set("telefone", *patch.Telefone)
	}
	if patch.Papel != nil {
		b = b.Set("papel", string(*patch.Papel))
	}

	query, args, err := b.Set("atualizado_em", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning(usuarioColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("montar update usuario: %w", err)
	}
	return r.getOne(ctx, query, args...)
}

// UpdateSenha troca o hash da senha.
func (r *UsuarioRepository) UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string) error {
	query, args, err := psql.Update("usuarios").
		Set("senha", senhaHash).
		Set("atualizado_em", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("montar update senha: %w", err)
	}
	return r.execOne(ctx, query, args...)
}

// SaveTokens sobrescreve os tokens persistidos (no máximo um refresh ativo).
func (r *UsuarioRepository) SaveTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error {
	query, args, err := psql.Update("usuarios").
		Set("accesstoken", accessToken).
		Set("refreshtoken", refreshToken).
		Set("atualizado_em", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("montar update tokens: %w", err)
	}
	return r.execOne(ctx, query, args...)
}

// ClearTokens remove os tokens persistidos; idempotente para usuário existente.
func (r *UsuarioRepository) ClearTokens(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Update("usuarios").
		Set("accesstoken", nil).
		Set("refreshtoken", nil).
		Set("atualizado_em", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("montar limpeza tokens: %w", err)
	}
	return r.execOne(ctx, query, args...)
}

// Delete remove o usuário definitivamente.
func (r *UsuarioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("usuarios").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("montar delete usuario: %w", err)
	}
	return r.execOne(ctx, query, args...)
}

func (r *UsuarioRepository) findBy(ctx context.Context, columns []string, pred squirrel.Sqlizer) (*Usuario, error) {
	query, args, err := psql.Select(columns...).From("usuarios").Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("montar select usuario: %w", err)
	}
	return r.getOne(ctx, query, args...)
}

func (r *UsuarioRepository) getOne(ctx context.Context, query string, args ...any) (*Usuario, error) {
	var out Usuario
	if err := pgxscan.Get(ctx, r.db, &out, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("usuario: %w", err)
	}
	return &out, nil
}

func (r *UsuarioRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("usuario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
