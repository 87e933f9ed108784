package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/service"
)

type stubSessions struct {
	active map[uuid.UUID]bool
	err    error
}

func (s *stubSessions) HasSession(_ context.Context, id uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[id], nil
}

type stubUsers struct {
	users map[uuid.UUID]*repo.Usuario
	err   error
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*repo.Usuario, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func newIssuer(now func() time.Time) *auth.TokenIssuer {
	return auth.NewTokenIssuer(map[auth.TokenKind]auth.KindConfig{
		auth.KindAccess:  {Secret: strings.Repeat("a", 32), TTL: 15 * time.Minute},
		auth.KindRefresh: {Secret: strings.Repeat("r", 32), TTL: time.Hour},
	}, auth.WithClock(now))
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Subject", GetSubject(r.Context()))
	w.Header().Set("X-Papel", string(GetPapel(r.Context())))
	w.WriteHeader(http.StatusOK)
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var env struct {
		Message   string `json:"message"`
		ErrorType string `json:"errorType"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rr.Body.String())
	}
	return env.ErrorType, env.Message
}

func authenticateRouter(issuer *auth.TokenIssuer, sessions SessionChecker) http.Handler {
	r := chi.NewRouter()
	r.With(Authenticate(issuer, sessions)).Get("/privado", okHandler)
	return r
}

func TestAuthenticateMissingHeader(t *testing.T) {
	router := authenticateRouter(newIssuer(time.Now), &stubSessions{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/privado", nil))

	if rr.Code != apperr.StatusTokenExpired {
		t.Fatalf("expected 498, got %d", rr.Code)
	}
	typ, msg := errorType(t, rr)
	if typ != apperr.TypeAuthentication || msg != msgTokenAusente {
		t.Fatalf("unexpected error %q %q", typ, msg)
	}
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	router := authenticateRouter(newIssuer(time.Now), &stubSessions{})

	for _, header := range []string{"Token abc", "Bearer", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/privado", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != apperr.StatusTokenExpired {
			t.Fatalf("%q: expected 498, got %d", header, rr.Code)
		}
		if _, msg := errorType(t, rr); msg != msgFormatoInvalido {
			t.Fatalf("%q: unexpected message %q", header, msg)
		}
	}
}

func TestAuthenticateCollapsesVerificationFailures(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	current := issuedAt
	issuer := newIssuer(func() time.Time { return current })
	id := uuid.New()

	expired, _ := issuer.Issue(auth.KindAccess, id.String())
	refresh, _ := issuer.Issue(auth.KindRefresh, id.String())
	current = issuedAt.Add(time.Hour)

	router := authenticateRouter(issuer, &stubSessions{active: map[uuid.UUID]bool{id: true}})
	for name, token := range map[string]string{"expirado": expired, "outro tipo": refresh, "lixo": "abc.def.ghi"} {
		req := httptest.NewRequest(http.MethodGet, "/privado", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != apperr.StatusTokenExpired {
			t.Fatalf("%s: expected 498, got %d", name, rr.Code)
		}
		if typ, _ := errorType(t, rr); typ != apperr.TypeTokenExpired {
			t.Fatalf("%s: expected tokenExpiredError, got %q", name, typ)
		}
	}
}

func TestAuthenticateSessionChecks(t *testing.T) {
	issuer := newIssuer(time.Now)
	id := uuid.New()
	token, err := issuer.Issue(auth.KindAccess, id.String())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name     string
		sessions *stubSessions
		status   int
	}{
		{"ativa", &stubSessions{active: map[uuid.UUID]bool{id: true}}, http.StatusOK},
		{"encerrada", &stubSessions{active: map[uuid.UUID]bool{}}, http.StatusUnauthorized},
		{"falha interna", &stubSessions{err: errors.New("db fora")}, apperr.StatusTokenExpired},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/privado", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		authenticateRouter(issuer, tc.sessions).ServeHTTP(rr, req)

		if rr.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rr.Code)
		}
		if tc.status == http.StatusOK && rr.Header().Get("X-Subject") != id.String() {
			t.Fatalf("%s: subject not propagated", tc.name)
		}
	}
}

type authorizeFixture struct {
	issuer *auth.TokenIssuer
	users  *stubUsers
	router http.Handler
}

func newAuthorizeFixture(t *testing.T) *authorizeFixture {
	t.Helper()
	f := &authorizeFixture{issuer: newIssuer(time.Now), users: &stubUsers{users: map[uuid.UUID]*repo.Usuario{}}}
	gate := Authorize(f.issuer, f.users, service.DefaultPermissionTable())

	r := chi.NewRouter()
	r.With(gate).Get("/inscricao", okHandler)
	r.With(gate).Get("/inscricao/{id}", okHandler)
	r.With(gate).Patch("/inscricao/{id}/aprovar", okHandler)
	r.With(gate).Patch("/inscricao/{id}/avaliar", okHandler)
	r.With(gate).Get("/usuario/{id}", okHandler)
	r.With(gate).Get("/relatorios", okHandler)
	f.router = r
	return f
}

func (f *authorizeFixture) tokenFor(t *testing.T, papel repo.Papel) string {
	t.Helper()
	id := uuid.New()
	f.users.users[id] = &repo.Usuario{ID: id, Papel: papel}
	token, err := f.issuer.Issue(auth.KindAccess, id.String())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func (f *authorizeFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	f := newAuthorizeFixture(t)
	inscricao := "/inscricao/" + uuid.NewString()

	cases := []struct {
		papel  repo.Papel
		method string
		path   string
		status int
	}{
		{repo.PapelAvaliador, http.MethodGet, "/inscricao", http.StatusOK},
		{repo.PapelAvaliador, http.MethodPatch, inscricao + "/avaliar", http.StatusOK},
		{repo.PapelAvaliador, http.MethodPatch, inscricao + "/aprovar", http.StatusForbidden},
		{repo.PapelCoordenador, http.MethodPatch, inscricao + "/aprovar", http.StatusOK},
		{repo.PapelCoordenador, http.MethodPatch, inscricao + "/avaliar", http.StatusForbidden},
		{repo.PapelCoordenador, http.MethodGet, "/usuario/" + uuid.NewString(), http.StatusForbidden},
		{repo.PapelAdministrador, http.MethodGet, "/usuario/" + uuid.NewString(), http.StatusOK},
		{repo.PapelAvaliador, http.MethodGet, "/relatorios", http.StatusOK},
	}
	for _, tc := range cases {
		rr := f.do(tc.method, tc.path, f.tokenFor(t, tc.papel))
		if rr.Code != tc.status {
			t.Fatalf("%s %s %s: expected %d, got %d", tc.papel, tc.method, tc.path, tc.status, rr.Code)
		}
		if tc.status == http.StatusForbidden {
			if typ, msg := errorType(t, rr); typ != apperr.TypeForbidden || msg != msgAcessoNegado {
				t.Fatalf("unexpected forbidden envelope %q %q", typ, msg)
			}
		}
	}
}

func TestAuthorizeStoresPapel(t *testing.T) {
	f := newAuthorizeFixture(t)
	rr := f.do(http.MethodGet, "/inscricao", f.tokenFor(t, repo.PapelCoordenador))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Papel") != string(repo.PapelCoordenador) || rr.Header().Get("X-Subject") == "" {
		t.Fatalf("expected id and papel in context, got %v", rr.Header())
	}
}

func TestAuthorizeRejectsUnknownPapel(t *testing.T) {
	f := newAuthorizeFixture(t)
	token := f.tokenFor(t, repo.Papel("superusuario"))

	for _, path := range []string{"/relatorios", "/inscricao"} {
		rr := f.do(http.MethodGet, path, token)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", path, rr.Code)
		}
		if typ, _ := errorType(t, rr); typ != apperr.TypeForbidden {
			t.Fatalf("%s: unexpected error type %q", path, typ)
		}
	}
}

func TestAuthorizeTokenFailures(t *testing.T) {
	f := newAuthorizeFixture(t)

	rr := f.do(http.MethodGet, "/inscricao", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rr.Code)
	}
	if _, msg := errorType(t, rr); msg != msgTokenRequerido {
		t.Fatalf("unexpected message %q", msg)
	}

	rr = f.do(http.MethodGet, "/inscricao", "nao-e-jwt")
	if rr.Code != apperr.StatusTokenExpired {
		t.Fatalf("malformed token: expected 498, got %d", rr.Code)
	}
}

func TestAuthorizeDirectoryFailures(t *testing.T) {
	f := newAuthorizeFixture(t)

	orphan, _ := f.issuer.Issue(auth.KindAccess, uuid.NewString())
	rr := f.do(http.MethodGet, "/inscricao", orphan)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", rr.Code)
	}
	if _, msg := errorType(t, rr); msg != msgErroAutenticacao {
		t.Fatalf("unexpected message %q", msg)
	}

	token := f.tokenFor(t, repo.PapelAdministrador)
	f.users.err = apperr.NotFound("Usuário", "Usuário não encontrado.")
	rr = f.do(http.MethodGet, "/inscricao", token)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("application error must pass through: got %d", rr.Code)
	}
}

func TestValidateIDParam(t *testing.T) {
	r := chi.NewRouter()
	r.With(ValidateIDParam("id")).Get("/inscricao/{id}", okHandler)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/inscricao/123", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/inscricao/"+uuid.NewString(), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
