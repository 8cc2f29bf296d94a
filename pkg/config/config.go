package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	API          APIConfig
	DB           DBConfig
	Redis        RedisConfig
	Outbound     OutboundConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Outbound.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WISHLIFY_APP_ENV" required:"true"`
	Port         string `envconfig:"WISHLIFY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WISHLIFY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WISHLIFY_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"WISHLIFY_LOG_FORMAT" default:"json"`

	// MetricsAddr is where the background workers expose /metrics; empty disables it.
	MetricsAddr string `envconfig:"WISHLIFY_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// ConsoleLogs reports whether logs should use the human-readable writer.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"WISHLIFY_SERVICE_KIND" default:"api"`
}

// APIConfig holds settings for the JSON routes under /api.
type APIConfig struct {
	CORSOrigins []string `envconfig:"WISHLIFY_API_CORS_ORIGINS" default:"http://localhost:3000"`
}

type DBConfig struct {
	DSN    string `envconfig:"WISHLIFY_DB_DSN"`
	Driver string `envconfig:"WISHLIFY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WISHLIFY_DB_HOST"`
	LegacyPort     int    `envconfig:"WISHLIFY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WISHLIFY_DB_USER"`
	LegacyPassword string `envconfig:"WISHLIFY_DB_PASSWORD"`
	LegacyName     string `envconfig:"WISHLIFY_DB_NAME"`
	LegacySSLMode  string `envconfig:"WISHLIFY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WISHLIFY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WISHLIFY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WISHLIFY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WISHLIFY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WISHLIFY_REDIS_URL"`
	Address      string        `envconfig:"WISHLIFY_REDIS_ADDR"`
	Password     string        `envconfig:"WISHLIFY_REDIS_PASSWORD"`
	DB           int           `envconfig:"WISHLIFY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WISHLIFY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WISHLIFY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WISHLIFY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WISHLIFY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WISHLIFY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// OutboundConfig drives the /go redirect: fallback target, attribution defaults and
// the partner tags compiled into the affiliate rule table.
type OutboundConfig struct {
	SiteRoot  string `envconfig:"WISHLIFY_OUTBOUND_SITE_ROOT" default:"/"`
	UTMSource string `envconfig:"WISHLIFY_OUTBOUND_UTM_SOURCE" default:"wishlify"`
	UTMMedium string `envconfig:"WISHLIFY_OUTBOUND_UTM_MEDIUM" default:"wishlist"`
	AmazonTag string `envconfig:"WISHLIFY_OUTBOUND_AMAZON_TAG" default:"wishlify-20"`
	// PartnerTags are appended after the built-in rules as host:param=tag entries,
	// e.g. "etsy.com:ref=wishlify,bol.com:partnerid=123".
	PartnerTags []string `envconfig:"WISHLIFY_OUTBOUND_PARTNER_TAGS"`

	LookupTimeout     time.Duration `envconfig:"WISHLIFY_OUTBOUND_LOOKUP_TIMEOUT" default:"2s"`
	ClickWriteTimeout time.Duration `envconfig:"WISHLIFY_OUTBOUND_CLICK_WRITE_TIMEOUT" default:"3s"`
	ClickQueueSize    int           `envconfig:"WISHLIFY_OUTBOUND_CLICK_QUEUE_SIZE" default:"1024"`
	ClickWorkers      int           `envconfig:"WISHLIFY_OUTBOUND_CLICK_WORKERS" default:"4"`
	LookupCacheTTL    time.Duration `envconfig:"WISHLIFY_OUTBOUND_LOOKUP_CACHE_TTL" default:"5m"`
}

func (o OutboundConfig) validate() error {
	root := strings.TrimSpace(o.SiteRoot)
	if root == "" {
		return fmt.Errorf("%s must not be empty", EnvOutboundSiteRoot)
	}
	if !strings.HasPrefix(root, "/") {
		u, err := url.Parse(root)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be a path or an absolute http(s) url", EnvOutboundSiteRoot)
		}
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate          bool `envconfig:"WISHLIFY_AUTO_MIGRATE" default:"false"`
	ExportClickAnalytics bool `envconfig:"WISHLIFY_FEATURE_EXPORT_CLICK_ANALYTICS" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"WISHLIFY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WISHLIFY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"WISHLIFY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WISHLIFY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AnalyticsTopic        string `envconfig:"WISHLIFY_PUBSUB_ANALYTICS_TOPIC" default:"wl-analytics-events"`
	AnalyticsSubscription string `envconfig:"WISHLIFY_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"wl-analytics-events-sub"`
}

type BigQueryConfig struct {
	Dataset             string `envconfig:"WISHLIFY_BIGQUERY_DATASET" default:"wishlify"`
	OutboundClicksTable string `envconfig:"WISHLIFY_BIGQUERY_OUTBOUND_CLICKS_TABLE" default:"outbound_clicks"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WISHLIFY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WISHLIFY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WISHLIFY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig drives the housekeeping worker.
type CronConfig struct {
	Interval            time.Duration `envconfig:"WISHLIFY_CRON_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"WISHLIFY_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays    int           `envconfig:"WISHLIFY_CRON_DLQ_RETENTION_DAYS" default:"90"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
