package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Gate      GateSettings      `mapstructure:"gate"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Oracle    OracleSettings    `mapstructure:"oracle"`
	Cache     CacheSettings     `mapstructure:"cache"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GateSettings tunes the session validation gate.
type GateSettings struct {
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheKeyPrefix string        `mapstructure:"cache_key_prefix"`
	BearerScheme   string        `mapstructure:"bearer_scheme"`
	PublicRoutes   []string      `mapstructure:"public_routes"`
	OracleTimeout  time.Duration `mapstructure:"oracle_timeout"`
}

// JWTSettings configures the primary access-token verification stage.
type JWTSettings struct {
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

// OracleSettings selects how the revocation oracle is reached.
// Mode "http" calls the Shield identity service; mode "postgres" queries the
// shared session table directly.
type OracleSettings struct {
	Mode          string `mapstructure:"mode"`
	ShieldBaseURL string `mapstructure:"shield_base_url"`
}

// CacheSettings selects the validity-cache backend: "memory" or "redis".
type CacheSettings struct {
	Backend       string        `mapstructure:"backend"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the audit-event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

type TelemetrySettings struct {
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("PAIRE")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.allowed_origins",
		"gate.cache_ttl",
		"gate.cache_key_prefix",
		"gate.bearer_scheme",
		"gate.public_routes",
		"gate.oracle_timeout",
		"jwt.secret",
		"jwt.issuer",
		"jwt.audience",
		"oracle.mode",
		"oracle.shield_base_url",
		"cache.backend",
		"cache.sweep_interval",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"telemetry.metrics_namespace",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "shield-gate")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8081)
	v.SetDefault("app.allowed_origins", []string{"*"})

	v.SetDefault("gate.cache_ttl", "1m")
	v.SetDefault("gate.cache_key_prefix", "shield:session_valid")
	v.SetDefault("gate.bearer_scheme", "Bearer")
	v.SetDefault("gate.public_routes", defaultPublicRoutes())
	v.SetDefault("gate.oracle_timeout", "3s")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "paire")
	v.SetDefault("jwt.audience", "paire")

	v.SetDefault("oracle.mode", "http")
	v.SetDefault("oracle.shield_base_url", "http://localhost:5200")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.sweep_interval", "5m")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "shield")
	v.SetDefault("postgres.password", "shield_password")
	v.SetDefault("postgres.database", "paire")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "shield")
	v.SetDefault("kafka.async", true)

	v.SetDefault("telemetry.metrics_namespace", "paire")
}

// defaultPublicRoutes lists the route prefixes the gate never rejects:
// the authentication endpoints themselves, API documentation, and health.
func defaultPublicRoutes() []string {
	return []string{
		"/api/auth/login",
		"/api/auth/register",
		"/api/auth/forgot-password",
		"/api/auth/reset-password",
		"/api/auth/confirm-email",
		"/api/auth/resend-confirmation",
		"/swagger",
		"/healthz",
		"/readyz",
	}
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "PAIRE_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
