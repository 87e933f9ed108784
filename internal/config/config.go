package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xhit/go-str2duration/v2"
)

// EnvProduction desliga detalhes de erro nas respostas.
const EnvProduction = "production"

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port             int
	AppEnv           string
	DBDSN            string
	DBMaxConns       int32
	DBConnectTimeout time.Duration
	AutoMigrate      bool
	PasswordRecovery bool
	RedisURL         string
	AccessToken      TokenConfig
	RefreshToken     TokenConfig
	RecoveryToken    TokenConfig
	AllowOrigins     []string
	RateLimitPublic  RateLimitConfig
	RateLimitAuth    RateLimitConfig
}

// TokenConfig guarda segredo e validade de um tipo de token.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// IsProduction indica execução em produção.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "5011")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "development")))

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil || maxConns <= 0 {
		return nil, errors.New("DB_MAX_CONNS inválido")
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.DBConnectTimeout, err = parseDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	autoMigrate, err := strconv.ParseBool(getEnv("AUTO_MIGRATE", "true"))
	if err != nil {
		return nil, errors.New("AUTO_MIGRATE inválido")
	}
	cfg.AutoMigrate = autoMigrate

	// o token só chega ao usuário pelo log de debug; produção liga explicitamente
	recovery, err := strconv.ParseBool(getEnv("PASSWORD_RECOVERY_ENABLED", strconv.FormatBool(!cfg.IsProduction())))
	if err != nil {
		return nil, errors.New("PASSWORD_RECOVERY_ENABLED inválido")
	}
	cfg.PasswordRecovery = recovery

	// vazio desliga o cache de sessão
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	if cfg.AccessToken, err = loadToken("JWT_SECRET_ACCESS_TOKEN", "JWT_ACCESS_TOKEN_EXPIRATION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshToken, err = loadToken("JWT_SECRET_REFRESH_TOKEN", "JWT_REFRESH_TOKEN_EXPIRATION", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RecoveryToken, err = loadToken("JWT_SECRET_PASSWORD_RECOVERY", "JWT_PASSWORD_RECOVERY_EXPIRATION", 30*time.Minute); err != nil {
		return nil, err
	}

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	return cfg, nil
}

func loadToken(secretKey, ttlKey string, defTTL time.Duration) (TokenConfig, error) {
	secret := strings.TrimSpace(getEnv(secretKey, ""))
	if len(secret) < 32 {
		return TokenConfig{}, errors.New(secretKey + " deve ter pelo menos 32 caracteres")
	}
	ttl, err := parseDurationEnv(ttlKey, defTTL)
	if err != nil {
		return TokenConfig{}, err
	}
	return TokenConfig{Secret: secret, TTL: ttl}, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

// parseDurationEnv aceita sufixo de dias ("7d") além do formato padrão do Go.
func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	dur, err := str2duration.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
