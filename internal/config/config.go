package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds server configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string // postgres:// URL, sqlite file path or ":memory:"
	RedisURL            string
	SessionTTL          time.Duration
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	SeedOnStart         bool // load the demo dataset when the store is empty
}

// ClientConfig holds configuration for lifelinesctl and the sync engine.
type ClientConfig struct {
	APIURL        string
	LocalDB       string
	SyncInterval  time.Duration
	ProbeTimeout  time.Duration
	RemoteTimeout time.Duration
}

func readEnv() {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// Load loads server config from env and optional .env file.
func Load() (*Config, error) {
	readEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("SESSION_TTL", "24h")
	viper.SetDefault("SEED_ON_START", true)

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" && env != "production" {
		dbURL = "lifelines.db"
	}
	redisURL := viper.GetString("REDIS_URL")
	if redisURL == "" && env != "production" {
		redisURL = "redis://localhost:6379/0"
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		SessionTTL:          durationOr(viper.GetDuration("SESSION_TTL"), 24*time.Hour),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SeedOnStart:         viper.GetBool("SEED_ON_START"),
	}, nil
}

// LoadClient loads lifelinesctl config. Flags override these values in the CLI.
func LoadClient() (*ClientConfig, error) {
	readEnv()

	apiURL := strings.TrimRight(viper.GetString("LIFELINES_API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	localDB := viper.GetString("LIFELINES_LOCAL_DB")
	if localDB == "" {
		localDB = "lifelines-local.db"
	}

	return &ClientConfig{
		APIURL:        apiURL,
		LocalDB:       localDB,
		SyncInterval:  durationOr(viper.GetDuration("LIFELINES_SYNC_INTERVAL"), 8*time.Second),
		ProbeTimeout:  durationOr(viper.GetDuration("LIFELINES_PROBE_TIMEOUT"), 3*time.Second),
		RemoteTimeout: durationOr(viper.GetDuration("LIFELINES_REMOTE_TIMEOUT"), 5*time.Second),
	}, nil
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
