package repo

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// InscricaoFilter reúne os filtros aceitos na listagem de inscrições.
type InscricaoFilter struct {
	Nome             string
	Email            string
	Status           Status
	PontuacaoMin     *float64
	PontuacaoMax     *float64
	SomenteAvaliadas bool
}

// Conditions converte o filtro em predicados SQL.
func (f InscricaoFilter) Conditions() []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if nome := strings.TrimSpace(f.Nome); nome != "" {
		conds = append(conds, squirrel.ILike{"nome": contains(nome)})
	}
	if email := strings.TrimSpace(f.Email); email != "" {
		conds = append(conds, squirrel.ILike{"email": contains(email)})
	}
	if f.Status != "" {
		conds = append(conds, squirrel.Eq{"status": string(f.Status)})
	}
	if f.SomenteAvaliadas {
		conds = append(conds, squirrel.NotEq{"pontuacao": nil})
	}
	if f.PontuacaoMin != nil && *f.PontuacaoMin >= 0 {
		conds = append(conds, squirrel.GtOrEq{"pontuacao": *f.PontuacaoMin})
	}
	if f.PontuacaoMax != nil && *f.PontuacaoMax >= 0 {
		conds = append(conds, squirrel.LtOrEq{"pontuacao": *f.PontuacaoMax})
	}
	return conds
}

// UsuarioFilter reúne os filtros aceitos na listagem de usuários.
type UsuarioFilter struct {
	Nome  string
	Email string
	Papel Papel
}

// Conditions converte o filtro em predicados SQL.
func (f UsuarioFilter) Conditions() []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if nome := strings.TrimSpace(f.Nome); nome != "" {
		conds = append(conds, squirrel.ILike{"nome": contains(nome)})
	}
	if email := strings.TrimSpace(f.Email); email != "" {
		conds = append(conds, squirrel.ILike{"email": contains(email)})
	}
	if f.Papel != "" {
		conds = append(conds, squirrel.Eq{"papel": string(f.Papel)})
	}
	return conds
}

func applyConditions(b squirrel.SelectBuilder, conds []squirrel.Sqlizer) squirrel.SelectBuilder {
	for _, c := range conds {
		b = b.Where(c)
	}
	return b
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
