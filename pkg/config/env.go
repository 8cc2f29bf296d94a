package config

// EnvPrefix is passed to envconfig; every field carries its full variable name so the
// prefix only matters for the fallback lookup.
const EnvPrefix = "WISHLIFY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "WISHLIFY_APP_ENV"
	EnvPort     = "WISHLIFY_APP_PORT"
	EnvLogLevel = "WISHLIFY_LOG_LEVEL"

	EnvDBDSN  = "WISHLIFY_DB_DSN"
	EnvDBHost = "WISHLIFY_DB_HOST"
	EnvDBUser = "WISHLIFY_DB_USER"
	EnvDBName = "WISHLIFY_DB_NAME"

	EnvRedisURL  = "WISHLIFY_REDIS_URL"
	EnvRedisAddr = "WISHLIFY_REDIS_ADDR"

	EnvOutboundSiteRoot    = "WISHLIFY_OUTBOUND_SITE_ROOT"
	EnvOutboundAmazonTag   = "WISHLIFY_OUTBOUND_AMAZON_TAG"
	EnvOutboundPartnerTags = "WISHLIFY_OUTBOUND_PARTNER_TAGS"
	EnvOutboundQueueSize   = "WISHLIFY_OUTBOUND_CLICK_QUEUE_SIZE"

	EnvExportClickAnalytics = "WISHLIFY_FEATURE_EXPORT_CLICK_ANALYTICS"

	EnvGCPProjectID           = "WISHLIFY_GCP_PROJECT_ID"
	EnvPubSubAnalyticsTopic   = "WISHLIFY_PUBSUB_ANALYTICS_TOPIC"
	EnvPubSubAnalyticsSub     = "WISHLIFY_PUBSUB_ANALYTICS_SUBSCRIPTION"
	EnvBigQueryDataset        = "WISHLIFY_BIGQUERY_DATASET"
	EnvBigQueryOutboundClicks = "WISHLIFY_BIGQUERY_OUTBOUND_CLICKS_TABLE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
