package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/config"
	httpmiddleware "github.com/gestaozabele/inscricoes/internal/http/middleware"
	"github.com/gestaozabele/inscricoes/internal/http/render"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/service"
	"github.com/gestaozabele/inscricoes/internal/util"
)

// AuthProvider cobre login, logout e recuperação de senha.
type AuthProvider interface {
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	LogoutWithToken(ctx context.Context, token string) error
	SolicitarRecuperacao(ctx context.Context, in service.RecuperacaoInput) error
	RedefinirSenha(ctx context.Context, in service.RedefinicaoInput) error
}

// InscricaoProvider cobre o ciclo de vida das inscrições.
type InscricaoProvider interface {
	Create(ctx context.Context, in service.InscricaoInput) (*repo.Inscricao, error)
	Read(ctx context.Context, id uuid.UUID) (*repo.Inscricao, error)
	List(ctx context.Context, filter repo.InscricaoFilter, page repo.Page) (repo.Paginated[repo.Inscricao], error)
	FindEvaluated(ctx context.Context, filter repo.InscricaoFilter, page repo.Page) (repo.Paginated[repo.Inscricao], error)
	FindEvaluatedByID(ctx context.Context, id uuid.UUID) (*repo.Inscricao, error)
	Evaluate(ctx context.Context, id uuid.UUID, in service.AvaliacaoInput) (*repo.Inscricao, error)
	Approve(ctx context.Context, id uuid.UUID, in service.AprovacaoInput) (*repo.Inscricao, error)
}

// UsuarioProvider cobre a gestão de usuários.
type UsuarioProvider interface {
	Create(ctx context.Context, in service.UsuarioInput) (*repo.Usuario, error)
	Read(ctx context.Context, id uuid.UUID) (*repo.Usuario, error)
	List(ctx context.Context, filter repo.UsuarioFilter, page repo.Page) (repo.Paginated[repo.Usuario], error)
	Update(ctx context.Context, id uuid.UUID, in service.UsuarioUpdateInput) (*repo.Usuario, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReadinessCheck é uma dependência consultada em /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps agrupa serviços e gates usados pelo roteador.
type Deps struct {
	Auth        AuthProvider
	Inscricoes  InscricaoProvider
	Usuarios    UsuarioProvider
	Tokens      httpmiddleware.TokenVerifier
	Sessions    httpmiddleware.SessionChecker
	Users       httpmiddleware.UserLookup
	Permissions httpmiddleware.PermissionChecker
	Checks      []ReadinessCheck
}

type Handler struct {
	cfg           *config.Config
	auth          AuthProvider
	inscricoes    InscricaoProvider
	usuarios      UsuarioProvider
	checks        []ReadinessCheck
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve o roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	render.HideInternalErrors(cfg.IsProduction())

	h := &Handler{
		cfg:           cfg,
		auth:          deps.Auth,
		inscricoes:    deps.Inscricoes,
		usuarios:      deps.Usuarios,
		checks:        deps.Checks,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.NotFound(render.NotFound)
	r.MethodNotAllowed(render.MethodNotAllowed)

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Post("/login", h.Login)
		public.Post("/logout", h.Logout)
		if cfg.PasswordRecovery {
			public.Post("/recuperar-senha", h.SolicitarRecuperacao)
			public.Post("/redefinir-senha", h.RedefinirSenha)
		}
		public.Post("/inscricao", h.CreateInscricao)
	})

	// Os gates entram via With para que o padrão completo da rota já esteja
	// resolvido quando Authorize consulta a tabela de permissões.
	gated := r.With(
		httpmiddleware.Authenticate(deps.Tokens, deps.Sessions),
		httpmiddleware.Authorize(deps.Tokens, deps.Users, deps.Permissions),
		httpmiddleware.UserRateLimit(h.authLimiter),
	)
	withID := gated.With(httpmiddleware.ValidateIDParam("id"))

	gated.Get("/inscricao", h.ListInscricoes)
	gated.Get("/inscricao/avaliadas", h.ListInscricoesAvaliadas)
	withID.Get("/inscricao/avaliadas/{id}", h.GetInscricaoAvaliada)
	withID.Get("/inscricao/{id}", h.GetInscricao)
	withID.Patch("/inscricao/{id}/avaliar", h.AvaliarInscricao)
	withID.Patch("/inscricao/{id}/aprovar", h.AprovarInscricao)

	gated.Get("/usuario", h.ListUsuarios)
	gated.Post("/usuario", h.CreateUsuario)
	withID.Get("/usuario/{id}", h.GetUsuario)
	withID.Patch("/usuario/{id}", h.UpdateUsuario)
	withID.Delete("/usuario/{id}", h.DeleteUsuario)

	return r
}

// Root confirma que a API está no ar.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, nil, "API funcionando conforme planejado.")
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

// Ready consulta as dependências registradas (Postgres e, se houver, Redis).
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	var failures []apperr.Detail
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			status[c.Name] = "indisponível"
			failures = append(failures, apperr.Detail{Field: c.Name, Message: err.Error()})
			continue
		}
		status[c.Name] = "ok"
	}

	if len(failures) > 0 {
		render.Error(w, r, apperr.New(http.StatusServiceUnavailable, apperr.TypeOperational, "Ready", "Dependências indisponíveis.").
			WithDetails(failures...))
		return
	}
	render.JSON(w, http.StatusOK, status, "")
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return util.ParseID(chi.URLParam(r, "id"))
}
