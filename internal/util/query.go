package util

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/repo"
)

// queryErrors acumula falhas de validação de query string.
type queryErrors []apperr.Detail

func (q *queryErrors) add(field, message string) {
	*q = append(*q, apperr.Detail{Field: field, Message: message})
}

func (q queryErrors) err() error {
	if len(q) == 0 {
		return nil
	}
	return invalidFields(q)
}

// ParsePage lê page/limite/sort com defaults 1 e 10.
func ParsePage(values url.Values) (repo.Page, error) {
	var errs queryErrors
	page := parsePage(values, &errs)
	return page, errs.err()
}

func parsePage(values url.Values, errs *queryErrors) repo.Page {
	page := repo.Page{Page: repo.DefaultPage, Limit: repo.DefaultLimit, Sort: strings.TrimSpace(values.Get("sort"))}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > repo.MaxPage {
			errs.add("page", "page deve ser um número inteiro entre 1 e 1000000.")
		} else {
			page.Page = n
		}
	}
	if raw := strings.TrimSpace(values.Get("limite")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > repo.MaxLimit {
			errs.add("limite", "limite deve ser um número inteiro entre 1 e 100.")
		} else {
			page.Limit = n
		}
	}
	return page
}

func parseNome(values url.Values, errs *queryErrors) string {
	nome := strings.TrimSpace(values.Get("nome"))
	if nome != "" && len([]rune(nome)) < 2 {
		errs.add("nome", "Nome deve ter pelo menos 2 caracteres.")
	}
	return nome
}

func parseEmail(values url.Values, errs *queryErrors) string {
	email := strings.ToLower(strings.TrimSpace(values.Get("email")))
	if email != "" && !ValidateEmail(email) {
		errs.add("email", "Email inválido.")
	}
	return email
}

func parseBound(values url.Values, key string, max int, message string, errs *queryErrors) *float64 {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > max {
		errs.add(key, message)
		return nil
	}
	v := float64(n)
	return &v
}

// ParseInscricaoQuery valida os filtros de listagem de inscrições.
func ParseInscricaoQuery(values url.Values) (repo.InscricaoFilter, repo.Page, error) {
	var errs queryErrors
	filter := repo.InscricaoFilter{
		Nome:  parseNome(values, &errs),
		Email: parseEmail(values, &errs),
	}

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status, err := repo.ParseStatus(raw)
		if err != nil {
			errs.add("status", "Status inválido. Use: PENDENTE, APROVADO ou REPROVADO.")
		}
		filter.Status = status
	}

	filter.PontuacaoMin = parseBound(values, "pontuacaoMin", 10, "A pontuação mínima deve ser um número inteiro entre 0 e 10.", &errs)
	filter.PontuacaoMax = parseBound(values, "pontuacaoMax", 100, "A pontuação máxima deve ser um número inteiro entre 0 e 100.", &errs)

	page := parsePage(values, &errs)
	return filter, page, errs.err()
}

// ParseUsuarioQuery valida os filtros de listagem de usuários.
func ParseUsuarioQuery(values url.Values) (repo.UsuarioFilter, repo.Page, error) {
	var errs queryErrors
	filter := repo.UsuarioFilter{
		Nome:  parseNome(values, &errs),
		Email: parseEmail(values, &errs),
	}

	if raw := strings.TrimSpace(values.Get("papel")); raw != "" {
		papel, err := repo.ParsePapel(raw)
		if err != nil {
			errs.add("papel", "O papel deve ser: administrador, avaliador ou coordenador.")
		}
		filter.Papel = papel
	}

	page := parsePage(values, &errs)
	return filter, page, errs.err()
}
