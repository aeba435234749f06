package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultPortalBaseURL is the public host of the judicial portal (EJE, CABA)
	DefaultPortalBaseURL = "https://eje.juscaba.gob.ar"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	// Turso (remote libsql); local sqlite is used when empty
	TursoDatabaseURL string
	TursoAuthToken   string
	// Portal
	PortalBaseURL string
	PortalUser    string
	PortalPass    string
	ChromePath    string
	Portal        PortalTimings
	// Scheduling
	SyncSchedule string // cron spec, empty disables the scheduler
	SyncTimezone string
	// Failure snapshots (Cloudflare R2 or local dir)
	SnapshotDir       string
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
	// Email alerts (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged to console instead of sent
	AlertEmail    string
	// HTTP
	SearchRateLimit int // portal searches per minute per client
}

// PortalTimings holds the bounded waits used while driving the portal
type PortalTimings struct {
	PageSize           int
	NavigationWait     time.Duration
	LoginWait          time.Duration
	LoginRedirectWait  time.Duration
	PaginationWait     time.Duration
	OptionWait         time.Duration
	SettleDelay        time.Duration
	RenderPollInterval time.Duration
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "db/expedientes.db"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		TursoDatabaseURL: getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:   getSecret("TURSO_AUTH_TOKEN"),
		PortalBaseURL:    strings.TrimSuffix(getEnv("PORTAL_BASE_URL", DefaultPortalBaseURL), "/"),
		PortalUser:       getSecret("PJ_USER"),
		PortalPass:       getSecret("PJ_PASS"),
		ChromePath:       getEnv("CHROME_PATH", ""),
		Portal: PortalTimings{
			PageSize:           getEnvInt("PORTAL_PAGE_SIZE", 50),
			NavigationWait:     getEnvDuration("PORTAL_NAVIGATION_WAIT", 30*time.Second),
			LoginWait:          getEnvDuration("PORTAL_LOGIN_WAIT", 20*time.Second),
			LoginRedirectWait:  getEnvDuration("PORTAL_LOGIN_REDIRECT_WAIT", 30*time.Second),
			PaginationWait:     getEnvDuration("PORTAL_PAGINATION_WAIT", 20*time.Second),
			OptionWait:         getEnvDuration("PORTAL_OPTION_WAIT", 10*time.Second),
			SettleDelay:        getEnvDuration("PORTAL_SETTLE_DELAY", 5*time.Second),
			RenderPollInterval: getEnvDuration("PORTAL_RENDER_POLL", 500*time.Millisecond),
		},
		SyncSchedule:      getEnv("SYNC_SCHEDULE", ""),
		SyncTimezone:      getEnv("SYNC_TIMEZONE", "America/Argentina/Buenos_Aires"),
		SnapshotDir:       getEnv("SNAPSHOT_DIR", "tmp/snapshots"),
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getSecret("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		ResendAPIKey:      getSecret("RESEND_API_KEY"),
		EmailFrom:         getEnv("EMAIL_FROM", "noreply@expedientes.local"),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Gestor de Expedientes"),
		EmailTestMode:     getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		AlertEmail:        getEnv("ALERT_EMAIL", ""),
		SearchRateLimit:   getEnvInt("SEARCH_RATE_LIMIT", 10),
	}
}

// HasPortalCredentials reports whether both portal credentials came from the environment
func (c *Config) HasPortalCredentials() bool {
	return c.PortalUser != "" && c.PortalPass != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// getSecret reads a value that must never be echoed to the log
func getSecret(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("[WARNING] Invalid value for %s (%q), using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go durations ("20s") or plain seconds ("20")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("[WARNING] Invalid duration for %s (%q), using %s", key, value, defaultValue)
	return defaultValue
}
