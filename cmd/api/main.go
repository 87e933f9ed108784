package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/config"
	"github.com/gestaozabele/inscricoes/internal/db"
	internalhttp "github.com/gestaozabele/inscricoes/internal/http"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)

	ctx := context.Background()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, cfg.DBDSN); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns, cfg.DBConnectTimeout)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	checks := []internalhttp.ReadinessCheck{{Name: "db", Check: pool.Ping}}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()

		checks = append(checks, internalhttp.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	} else {
		log.Warn().Msg("REDIS_URL vazio: cache de sessão desativado")
	}

	tokens := auth.NewTokenIssuer(map[auth.TokenKind]auth.KindConfig{
		auth.KindAccess:   {Secret: cfg.AccessToken.Secret, TTL: cfg.AccessToken.TTL},
		auth.KindRefresh:  {Secret: cfg.RefreshToken.Secret, TTL: cfg.RefreshToken.TTL},
		auth.KindRecovery: {Secret: cfg.RecoveryToken.Secret, TTL: cfg.RecoveryToken.TTL},
	})
	hasher := auth.NewArgon2Hasher(nil)

	usuarios := repo.NewUsuarioRepository(pool)
	inscricoes := repo.NewInscricaoRepository(pool)
	sessions := service.NewSessionStore(redisClient, usuarios, tokens.TTL(auth.KindRefresh))

	if !cfg.PasswordRecovery {
		log.Warn().Msg("PASSWORD_RECOVERY_ENABLED=false: rotas de recuperação de senha desativadas")
	}

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		Auth:        service.NewAuthService(usuarios, hasher, tokens, sessions, service.LogRecoveryNotifier{}),
		Inscricoes:  service.NewInscricaoService(inscricoes),
		Usuarios:    service.NewUsuarioService(usuarios, hasher, sessions),
		Tokens:      tokens,
		Sessions:    sessions,
		Users:       usuarios,
		Permissions: service.DefaultPermissionTable(),
		Checks:      checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("env", cfg.AppEnv).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupLogger usa saída legível em desenvolvimento e JSON em produção.
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}
