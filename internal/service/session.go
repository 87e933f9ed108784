package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/repo"
)

const sessionActive = "ativa"

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type tokenDirectory interface {
	FindByIDWithTokens(ctx context.Context, id uuid.UUID) (*repo.Usuario, error)
}

// SessionStore responde se o usuário ainda tem refresh token persistido,
// com cache em Redis na frente do banco.
type SessionStore struct {
	redis redisCommander
	dir   tokenDirectory
	ttl   time.Duration
}

// NewSessionStore cria o store; redisClient nil consulta sempre o banco.
func NewSessionStore(redisClient *redis.Client, dir *repo.UsuarioRepository, ttl time.Duration) *SessionStore {
	s := &SessionStore{dir: dir, ttl: ttl}
	if redisClient != nil {
		s.redis = redisClient
	}
	return s
}

func sessionKey(id uuid.UUID) string {
	return "sessao:" + id.String()
}

// Remember marca a sessão como ativa no cache.
func (s *SessionStore) Remember(ctx context.Context, id uuid.UUID) {
	if s == nil || s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, sessionKey(id), sessionActive, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("usuario_id", id.String()).Msg("sessão: falha ao gravar cache")
	}
}

// Forget remove a sessão do cache. Falha aqui deixaria a sessão válida até o
// TTL expirar, por isso o erro sobe para quem está revogando.
func (s *SessionStore) Forget(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("sessão: limpar cache de %s: %w", id, err)
	}
	return nil
}

// HasSession consulta o cache e, na ausência, o refresh token do usuário no banco.
// A leitura nunca repõe o cache: só o login marca a sessão como ativa.
// Usuário inexistente devolve repo.ErrNotFound.
func (s *SessionStore) HasSession(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.redis != nil {
		val, err := s.redis.Get(ctx, sessionKey(id)).Result()
		switch {
		case err == nil && val == sessionActive:
			return true, nil
		case err != nil && !errors.Is(err, redis.Nil):
			log.Warn().Err(err).Msg("sessão: cache indisponível, consultando banco")
		}
	}

	user, err := s.dir.FindByIDWithTokens(ctx, id)
	if err != nil {
		return false, err
	}
	return user.RefreshToken != nil && *user.RefreshToken != "", nil
}
