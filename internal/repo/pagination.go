package repo

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage mantém (page-1)*limit dentro de int mesmo em 32 bits.
	MaxPage = 1_000_000
)

// Page descreve a página solicitada.
type Page struct {
	Page  int
	Limit int
	Sort  string
}

// Normalize aplica defaults e limites.
func (p Page) Normalize() Page {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

// Offset calcula o deslocamento da página.
func (p Page) Offset() uint64 {
	p = p.Normalize()
	return uint64((p.Page - 1) * p.Limit)
}

// Paginated segue o formato do paginador de documentos usado pelo front.
type Paginated[T any] struct {
	Docs          []T  `json:"docs"`
	TotalDocs     int  `json:"totalDocs"`
	Limit         int  `json:"limit"`
	TotalPages    int  `json:"totalPages"`
	Page          int  `json:"page"`
	PagingCounter int  `json:"pagingCounter"`
	HasPrevPage   bool `json:"hasPrevPage"`
	HasNextPage   bool `json:"hasNextPage"`
	PrevPage      *int `json:"prevPage"`
	NextPage      *int `json:"nextPage"`
}

// NewPaginated monta o resultado a partir do total e dos documentos da página.
func NewPaginated[T any](docs []T, total int, page Page) Paginated[T] {
	page = page.Normalize()
	if docs == nil {
		docs = []T{}
	}

	totalPages := 1
	if total > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}

	out := Paginated[T]{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         page.Limit,
		TotalPages:    totalPages,
		Page:          page.Page,
		PagingCounter: (page.Page-1)*page.Limit + 1,
		HasPrevPage:   page.Page > 1,
		HasNextPage:   page.Page < totalPages,
	}
	if out.HasPrevPage {
		prev := page.Page - 1
		out.PrevPage = &prev
	}
	if out.HasNextPage {
		next := page.Page + 1
		out.NextPage = &next
	}
	return out
}

// orderBy traduz "campo" / "-campo" para cláusula ORDER BY segura.
func orderBy(sort string, allowed map[string]string, fallback string) string {
	sort = strings.TrimSpace(sort)
	if sort == "" {
		return fallback
	}
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = strings.TrimPrefix(sort, "-")
	}
	column, ok := allowed[sort]
	if !ok {
		return fallback
	}
	return column + " " + dir
}
