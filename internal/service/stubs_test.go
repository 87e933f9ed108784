package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/repo"
)

var testHasher = auth.NewArgon2Hasher(&argon2id.Params{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
})

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTokens(clock *testClock) *auth.TokenIssuer {
	return auth.NewTokenIssuer(map[auth.TokenKind]auth.KindConfig{
		auth.KindAccess:   {Secret: strings.Repeat("a", 32), TTL: 24 * time.Hour},
		auth.KindRefresh:  {Secret: strings.Repeat("r", 32), TTL: 7 * 24 * time.Hour},
		auth.KindRecovery: {Secret: strings.Repeat("c", 32), TTL: 30 * time.Minute},
	}, auth.WithClock(clock.Now))
}

// stubUsuarioRepo guarda usuários em memória.
type stubUsuarioRepo struct {
	users map[uuid.UUID]*repo.Usuario
	err   error
}

func newStubUsuarioRepo(users ...repo.Usuario) *stubUsuarioRepo {
	s := &stubUsuarioRepo{users: make(map[uuid.UUID]*repo.Usuario)}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	return s
}

func public(u repo.Usuario) *repo.Usuario {
	u.Senha = ""
	u.AccessToken = nil
	u.RefreshToken = nil
	return &u
}

func (s *stubUsuarioRepo) Create(ctx context.Context, in repo.NovoUsuario) (*repo.Usuario, error) {
	u := repo.Usuario{
		ID:             uuid.New(),
		Nome:           in.Nome,
		Email:          in.Email,
		Senha:          in.SenhaHash,
		DataNascimento: in.DataNascimento,
		Telefone:       in.Telefone,
		Papel:          in.Papel,
	}
	s.users[u.ID] = &u
	return public(u), nil
}

func (s *stubUsuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*repo.Usuario, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return public(*u), nil
}

func (s *stubUsuarioRepo) FindByIDWithTokens(ctx context.Context, id uuid.UUID) (*repo.Usuario, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := *public(*u)
	out.AccessToken = u.AccessToken
	out.RefreshToken = u.RefreshToken
	return &out, nil
}

func (s *stubUsuarioRepo) byField(match func(*repo.Usuario) bool) (*repo.Usuario, error) {
	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *stubUsuarioRepo) FindByEmail(ctx context.Context, email string) (*repo.Usuario, error) {
	u, err := s.byField(func(u *repo.Usuario) bool { return strings.EqualFold(u.Email, email) })
	if err != nil {
		return nil, err
	}
	return public(*u), nil
}

func (s *stubUsuarioRepo) FindByEmailWithSenha(ctx context.Context, email string) (*repo.Usuario, error) {
	u, err := s.byField(func(u *repo.Usuario) bool { return strings.EqualFold(u.Email, email) })
	if err != nil {
		return nil, err
	}
	out := *public(*u)
	out.Senha = u.Senha
	return &out, nil
}

func (s *stubUsuarioRepo) FindByNome(ctx context.Context, nome string) (*repo.Usuario, error) {
	u, err := s.byField(func(u *repo.Usuario) bool { return u.Nome == nome })
	if err != nil {
		return nil, err
	}
	return public(*u), nil
}

func (s *stubUsuarioRepo) Paginate(ctx context.Context, filter repo.UsuarioFilter, page repo.Page) (repo.Paginated[repo.Usuario], error) {
	var docs []repo.Usuario
	for _, u := range s.users {
		if filter.Papel == "" || u.Papel == filter.Papel {
			docs = append(docs, *public(*u))
		}
	}
	return repo.NewPaginated(docs, len(docs), page), nil
}

func (s *stubUsuarioRepo) Update(ctx context.Context, id uuid.UUID, patch repo.UsuarioPatch) (*repo.Usuario, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if patch.Nome != nil {
		u.Nome = *patch.Nome
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.SenhaHash != nil {
		u.Senha = *patch.SenhaHash
	}
	if patch.Telefone != nil {
		u.Telefone = *patch.Telefone
	}
	if patch.DataNascimento != nil {
		u.DataNascimento = *patch.DataNascimento
	}
	if patch.Papel != nil {
		u.Papel = *patch.Papel
	}
	return public(*u), nil
}

func (s *stubUsuarioRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubUsuarioRepo) SaveTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error {
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.AccessToken = &accessToken
	u.RefreshToken = &refreshToken
	return nil
}

func (s *stubUsuarioRepo) ClearTokens(ctx context.Context, id uuid.UUID) error {
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.AccessToken = nil
	u.RefreshToken = nil
	return nil
}

func (s *stubUsuarioRepo) UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string) error {
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Senha = senhaHash
	return nil
}

// stubInscricaoRepo guarda inscrições em memória.
type stubInscricaoRepo struct {
	items       map[uuid.UUID]*repo.Inscricao
	lastFilter  repo.InscricaoFilter
	updateCalls int
}

func newStubInscricaoRepo(items ...repo.Inscricao) *stubInscricaoRepo {
	s := &stubInscricaoRepo{items: make(map[uuid.UUID]*repo.Inscricao)}
	for i := range items {
		it := items[i]
		s.items[it.ID] = &it
	}
	return s
}

func (s *stubInscricaoRepo) Create(ctx context.Context, in repo.NovaInscricao) (*repo.Inscricao, error) {
	it := repo.Inscricao{
		ID:             uuid.New(),
		Nome:           in.Nome,
		Email:          in.Email,
		Telefone:       in.Telefone,
		DataNascimento: in.DataNascimento,
		Background:     in.Background,
		Experiencia:    in.Experiencia,
		AreaInteresse:  in.AreaInteresse,
		Observacao:     in.Observacao,
		Status:         repo.StatusPendente,
	}
	s.items[it.ID] = &it
	out := it
	return &out, nil
}

func (s *stubInscricaoRepo) FindByID(ctx context.Context, id uuid.UUID) (*repo.Inscricao, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := *it
	return &out, nil
}

func (s *stubInscricaoRepo) FindByEmail(ctx context.Context, email string) (*repo.Inscricao, error) {
	for _, it := range s.items {
		if strings.EqualFold(it.Email, email) {
			out := *it
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *stubInscricaoRepo) FindByNome(ctx context.Context, nome string) (*repo.Inscricao, error) {
	for _, it := range s.items {
		if it.Nome == nome {
			out := *it
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *stubInscricaoRepo) Paginate(ctx context.Context, filter repo.InscricaoFilter, page repo.Page) (repo.Paginated[repo.Inscricao], error) {
	s.lastFilter = filter
	var docs []repo.Inscricao
	for _, it := range s.items {
		if filter.SomenteAvaliadas && it.Pontuacao == nil {
			continue
		}
		docs = append(docs, *it)
	}
	return repo.NewPaginated(docs, len(docs), page), nil
}

func (s *stubInscricaoRepo) UpdateAvaliacao(ctx context.Context, id uuid.UUID, pontuacao float64, observacao *string) (*repo.Inscricao, error) {
	s.updateCalls++
	it, ok := s.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	it.Pontuacao = &pontuacao
	it.Observacao = observacao
	out := *it
	return &out, nil
}

func (s *stubInscricaoRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status repo.Status) (*repo.Inscricao, error) {
	s.updateCalls++
	it, ok := s.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	it.Status = status
	out := *it
	return &out, nil
}

type stubRedis struct {
	store  map[string]string
	delErr error
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if s.delErr != nil {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(s.delErr)
		return cmd
	}
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

type capturingNotifier struct {
	user  repo.Usuario
	token string
	calls int
}

func (n *capturingNotifier) NotifyRecovery(ctx context.Context, user repo.Usuario, token string) error {
	n.user = user
	n.token = token
	n.calls++
	return nil
}
