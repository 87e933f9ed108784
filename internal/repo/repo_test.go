package repo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginated(t *testing.T) {
	t.Run("Should compute navigation for a middle page", func(t *testing.T) {
		out := NewPaginated([]int{1, 2}, 25, Page{Page: 2, Limit: 10})
		assert.Equal(t, 3, out.TotalPages)
		assert.Equal(t, 11, out.PagingCounter)
		assert.True(t, out.HasPrevPage)
		assert.True(t, out.HasNextPage)
		require.NotNil(t, out.PrevPage)
		require.NotNil(t, out.NextPage)
		assert.Equal(t, 1, *out.PrevPage)
		assert.Equal(t, 3, *out.NextPage)
	})
	t.Run("Should return empty docs with a single page when nothing matches", func(t *testing.T) {
		out := NewPaginated[int](nil, 0, Page{})
		assert.NotNil(t, out.Docs)
		assert.Empty(t, out.Docs)
		assert.Equal(t, 1, out.TotalPages)
		assert.Equal(t, DefaultLimit, out.Limit)
		assert.False(t, out.HasNextPage)
		assert.Nil(t, out.PrevPage)
	})
	t.Run("Should cap the limit", func(t *testing.T) {
		p := Page{Page: 1, Limit: 500}.Normalize()
		assert.Equal(t, MaxLimit, p.Limit)
	})
	t.Run("Should cap huge pages so offsets never overflow", func(t *testing.T) {
		p := Page{Page: math.MaxInt, Limit: MaxLimit}
		assert.Equal(t, uint64((MaxPage-1)*MaxLimit), p.Offset())

		out := NewPaginated[int](nil, 5, p)
		assert.Equal(t, MaxPage, out.Page)
		assert.Positive(t, out.PagingCounter)
	})
}

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{"nome": "nome", "createdAt": "criado_em"}
	assert.Equal(t, "nome ASC", orderBy("nome", allowed, "x"))
	assert.Equal(t, "criado_em DESC", orderBy("-createdAt", allowed, "x"))
	assert.Equal(t, "x", orderBy("senha; drop table", allowed, "x"))
	assert.Equal(t, "x", orderBy("", allowed, "x"))
}

func TestInscricaoFilterConditions(t *testing.T) {
	min := 5.0
	filter := InscricaoFilter{
		Nome:             "ana_",
		Status:           StatusPendente,
		PontuacaoMin:     &min,
		SomenteAvaliadas: true,
	}
	sql, args, err := applyConditions(psql.Select("id").From("inscricoes"), filter.Conditions()).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM inscricoes WHERE nome ILIKE $1 AND status = $2 AND pontuacao IS NOT NULL AND pontuacao >= $3", sql)
	assert.Equal(t, []any{`%ana\_%`, "PENDENTE", 5.0}, args)
}

func TestInscricaoRepository_Paginate(t *testing.T) {
	t.Run("Should count and list with limit and offset", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewInscricaoRepository(mock)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM inscricoes WHERE status = \$1`).
			WithArgs("APROVADO").
			WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery(`SELECT (.+) FROM inscricoes WHERE status = \$1 ORDER BY criado_em DESC LIMIT 5 OFFSET 5`).
			WithArgs("APROVADO").
			WillReturnRows(mock.NewRows(inscricaoColumns))

		out, err := repo.Paginate(context.Background(), InscricaoFilter{Status: StatusAprovado}, Page{Page: 2, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, 0, out.TotalDocs)
		assert.Equal(t, 2, out.Page)
		assert.Empty(t, out.Docs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInscricaoRepository_FindByID(t *testing.T) {
	t.Run("Should map no rows to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewInscricaoRepository(mock)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM inscricoes WHERE id = \$1 LIMIT 1`).
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.FindByID(context.Background(), id)
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUsuarioRepository_FindByEmailWithSenha(t *testing.T) {
	t.Run("Should query case-insensitively and include senha", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewUsuarioRepository(mock)

		mock.ExpectQuery(`SELECT (.+), senha FROM usuarios WHERE lower\(email\) = lower\(\$1\) LIMIT 1`).
			WithArgs("Ana@Exemplo.com").
			WillReturnRows(mock.NewRows(withColumns("senha")))

		got, err := repo.FindByEmailWithSenha(context.Background(), "Ana@Exemplo.com")
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUsuarioRepository_Tokens(t *testing.T) {
	t.Run("Should save both tokens", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewUsuarioRepository(mock)
		id := uuid.New()

		mock.ExpectExec(`UPDATE usuarios SET accesstoken = \$1, refreshtoken = \$2, atualizado_em = now\(\) WHERE id = \$3`).
			WithArgs("acc", "ref", id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SaveTokens(context.Background(), id, "acc", "ref"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Should report missing user when clearing tokens", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewUsuarioRepository(mock)
		id := uuid.New()

		mock.ExpectExec(`UPDATE usuarios SET accesstoken = \$1, refreshtoken = \$2`).
			WithArgs(nil, nil, id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.ClearTokens(context.Background(), id)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUsuarioRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewUsuarioRepository(mock)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM usuarios WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
