package config

import "time"

type Config struct {
	Port            int           `long:"port" description:"HTTP server port" default:"8080" env:"PORT"`
	ShutdownTimeout time.Duration `long:"shutdown-timeout" description:"Timeout for server shutdown" default:"5s"`
	Debug           bool          `long:"debug" description:"Development logging" env:"DEBUG"`

	DBPath string `long:"db-path" description:"SQLite DB file path" default:"/mirror-storage/mirror.db" env:"DB_PATH"`

	Shop           string        `long:"shop" description:"Shop domain, e.g. example.myshopify.com" env:"SHOP_DOMAIN" required:"true"`
	AccessToken    string        `long:"access-token" description:"Admin API access token" env:"SHOP_ACCESS_TOKEN" required:"true"`
	APIVersion     string        `long:"api-version" description:"Admin API version" default:"2024-10" env:"SHOP_API_VERSION"`
	MinInterval    time.Duration `long:"min-interval" description:"Minimum spacing between API requests" default:"500ms" env:"SHOP_MIN_INTERVAL"`
	MaxAttempts    int           `long:"max-attempts" description:"Attempts per request for 429 and transport errors" default:"3" env:"SHOP_MAX_ATTEMPTS"`
	RetryBase      time.Duration `long:"retry-base" description:"First backoff delay, doubled per attempt" default:"1s" env:"SHOP_RETRY_BASE"`
	PageSize       int           `long:"page-size" description:"Items per page" default:"250" env:"SHOP_PAGE_SIZE"`
	MaxPages       int           `long:"max-pages" description:"Page cap per listing" default:"1000" env:"SHOP_MAX_PAGES"`
	MaxItems       int           `long:"max-items" description:"Item cap per listing" default:"250000" env:"SHOP_MAX_ITEMS"`
	RequestTimeout time.Duration `long:"request-timeout" description:"Timeout of a regular request" default:"30s" env:"SHOP_REQUEST_TIMEOUT"`

	ExportRoot        string `long:"export-root" description:"Local folder for export archives" default:"/mirror-storage/exports" env:"EXPORT_ROOT"`
	EvictionPolicy    string `long:"export-eviction" description:"Archive retention (e.g. 5/delete or 1d/7d,30d/delete)" env:"EXPORT_EVICTION_POLICY"`
	ExportAfterBackup bool   `long:"export-after-backup" description:"Write an archive after every successful backup" env:"EXPORT_AFTER_BACKUP"`

	HookCmd     string        `long:"hook-cmd" description:"Command run after a backup (e.g. notify.sh {{.run_id}} {{.status}})" env:"HOOK_COMMAND"`
	HookTimeout time.Duration `long:"hook-timeout" description:"Timeout of the post-backup command" default:"5m" env:"HOOK_TIMEOUT"`

	S3URL           string `long:"s3-url" description:"S3 endpoint URL" env:"S3_URL"`
	AccessKeyID     string `long:"s3-access-key-id" description:"S3 access key ID" env:"S3_KEY_ID"`
	AccessKeySecret string `long:"s3-access-key-secret" description:"S3 access key secret" env:"S3_KEY_SECRET"`
	BucketName      string `long:"s3-bucket" description:"S3 bucket name" env:"S3_BUCKET"`
	Region          string `long:"s3-region" description:"S3 region" default:"us-east-1"`
	S3Enabled       bool   `long:"s3-enabled" description:"Mirror export archives to S3" env:"S3_ENABLED"`
	S3SslVerify     bool   `long:"s3-ssl-verify" description:"Verify S3 certificates" env:"S3_SSL_VERIFY"`
}
