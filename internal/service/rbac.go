package service

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gestaozabele/inscricoes/internal/repo"
)

var (
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
)

// RoutePlaceholder substitui segmentos parametrizados na chave da rota.
const RoutePlaceholder = "[id]"

// RoutePermission associa um padrão de rota aos papéis aceitos por método.
type RoutePermission struct {
	Pattern string
	Methods map[string][]repo.Papel
}

type compiledPermission struct {
	pattern string
	re      *regexp.Regexp
	methods map[string]map[repo.Papel]struct{}
}

// PermissionTable é a tabela de permissões por rota, avaliada em ordem
// (o primeiro padrão que casar decide).
type PermissionTable struct {
	rules []compiledPermission
}

// Decision é o resultado da consulta à tabela.
type Decision struct {
	Matched bool
	Allowed bool
	Pattern string
}

// NewPermissionTable compila os padrões informados.
func NewPermissionTable(perms []RoutePermission) (*PermissionTable, error) {
	table := &PermissionTable{rules: make([]compiledPermission, 0, len(perms))}
	for _, perm := range perms {
		key := NormalizeRouteKey(perm.Pattern)
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(key), regexp.QuoteMeta(RoutePlaceholder), "[^/]+") + "$"
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("padrão %q: %w", perm.Pattern, err)
		}

		methods := make(map[string]map[repo.Papel]struct{}, len(perm.Methods))
		for method, papeis := range perm.Methods {
			allowed := make(map[repo.Papel]struct{}, len(papeis))
			for _, p := range papeis {
				allowed[p] = struct{}{}
			}
			methods[strings.ToUpper(method)] = allowed
		}
		table.rules = append(table.rules, compiledPermission{pattern: key, re: re, methods: methods})
	}
	return table, nil
}

// DefaultPermissionTable devolve a tabela de permissões da API.
func DefaultPermissionTable() *PermissionTable {
	admin := repo.PapelAdministrador
	coord := repo.PapelCoordenador
	aval := repo.PapelAvaliador

	table, err := NewPermissionTable([]RoutePermission{
		{Pattern: "/inscricao", Methods: map[string][]repo.Papel{http.MethodGet: {admin, coord, aval}}},
		{Pattern: "/inscricao/avaliadas", Methods: map[string][]repo.Papel{http.MethodGet: {admin, coord}}},
		{Pattern: "/inscricao/avaliadas/:id", Methods: map[string][]repo.Papel{http.MethodGet: {admin, coord}}},
		{Pattern: "/inscricao/:id", Methods: map[string][]repo.Papel{http.MethodGet: {admin, coord, aval}}},
		{Pattern: "/inscricao/:id/avaliar", Methods: map[string][]repo.Papel{http.MethodPatch: {admin, aval}}},
		{Pattern: "/inscricao/:id/aprovar", Methods: map[string][]repo.Papel{http.MethodPatch: {admin, coord}}},
		{Pattern: "/usuario", Methods: map[string][]repo.Papel{
			http.MethodGet:  {admin, coord},
			http.MethodPost: {admin},
		}},
		{Pattern: "/usuario/:id", Methods: map[string][]repo.Papel{
			http.MethodGet:    {admin},
			http.MethodPatch:  {admin},
			http.MethodDelete: {admin},
		}},
	})
	if err != nil {
		panic(err)
	}
	return table
}

// NormalizeRouteKey colapsa segmentos ":param" e "{param}" no placeholder e
// remove barras finais.
func NormalizeRouteKey(route string) string {
	segments := strings.Split(strings.TrimSpace(route), "/")
	out := segments[:0]
	for _, seg := range segments {
		if strings.HasPrefix(seg, ":") || (strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")) {
			seg = RoutePlaceholder
		}
		out = append(out, seg)
	}
	key := strings.TrimRight(strings.Join(out, "/"), "/")
	if key == "" {
		return "/"
	}
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return key
}

// Check procura a primeira regra que casa com a rota. Rotas sem regra são
// liberadas para qualquer usuário autenticado.
func (t *PermissionTable) Check(route, method string, papel repo.Papel) Decision {
	key := NormalizeRouteKey(route)
	for _, rule := range t.rules {
		if !rule.re.MatchString(key) {
			continue
		}
		allowed, ok := rule.methods[strings.ToUpper(method)]
		if !ok {
			return Decision{Matched: true, Pattern: rule.pattern}
		}
		_, permitted := allowed[papel]
		return Decision{Matched: true, Allowed: permitted, Pattern: rule.pattern}
	}
	// TODO: decidir com produto se rotas fora da tabela devem negar por padrão.
	return Decision{Allowed: true}
}
