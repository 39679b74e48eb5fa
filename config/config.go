package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the API service settings read from the environment.
type Config struct {
	Port      string
	Debug     bool
	LogFormat string
	LogFile   string

	StorageConnectionString string
	MeetingsTable           string
	TasksTable              string
	EventsQueue             string

	RedisConnectionString string
	CacheTTL              time.Duration
	DeduperTTL            time.Duration

	AuthDomain      string
	AuthAudience    string
	LocalAuthMode   bool
	LocalAuthSecret string
	JWKSRefresh     time.Duration

	SummarizeURL     string
	ServiceAnonKey   string
	SupabaseURL      string
	SummarizeTimeout time.Duration
}

// LoadDotEnv primes the process environment from path. A missing file is
// not an error; variables already set win over the file.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the API configuration. Missing store, cache or auth settings
// are reported as errors; the summarization settings are checked per call.
func Load() (Config, error) {
	cfg, err := LoadWorker()
	if err != nil {
		return Config{}, err
	}
	if cfg.LocalAuthMode {
		if cfg.LocalAuthSecret == "" {
			return Config{}, errors.New("LOCAL_AUTH_SHARED_SECRET is required when LOCAL_AUTH_MODE is enabled")
		}
	} else if cfg.AuthDomain == "" || cfg.AuthAudience == "" {
		return Config{}, errors.New("missing auth config")
	}
	return cfg, nil
}

// LoadWorker reads the configuration of the background services, which
// need the store and the cache but no auth.
func LoadWorker() (Config, error) {
	cfg := Config{
		Port:      String("PORT", "8080"),
		LogFormat: String("LOG_FORMAT", "text"),
		LogFile:   os.Getenv("LOG_FILE"),

		StorageConnectionString: os.Getenv("STORAGE_CONNECTION_STRING"),
		MeetingsTable:           String("MEETINGS_TABLE", "meetings"),
		TasksTable:              String("TASKS_TABLE", "tasks"),
		EventsQueue:             String("EVENTS_QUEUE", "recap-events"),

		RedisConnectionString: os.Getenv("REDIS_CONNECTION_STRING"),

		AuthDomain:      os.Getenv("AUTH_DOMAIN"),
		AuthAudience:    os.Getenv("AUTH_AUDIENCE"),
		LocalAuthSecret: os.Getenv("LOCAL_AUTH_SHARED_SECRET"),

		SummarizeURL:   os.Getenv("SUMMARIZE_MEETING_URL"),
		ServiceAnonKey: os.Getenv("SERVICE_ANON_KEY"),
		SupabaseURL:    os.Getenv("SUPABASE_URL"),
	}

	var err error
	if cfg.Debug, err = Bool("DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.LocalAuthMode, err = Bool("LOCAL_AUTH_MODE", false); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = Duration("CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.DeduperTTL, err = Duration("DEDUPER_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.JWKSRefresh, err = Duration("JWKS_CACHE_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SummarizeTimeout, err = Duration("SUMMARIZE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.StorageConnectionString == "" {
		return Config{}, errors.New("missing storage config")
	}
	if cfg.RedisConnectionString == "" {
		return Config{}, errors.New("missing redis config")
	}
	return cfg, nil
}

// ProjectRef returns the first host label of the Supabase URL, used to name
// the project's auth cookie. It is empty when the URL is unset or invalid.
func (c Config) ProjectRef() string {
	return ProjectRef(c.SupabaseURL)
}

func ProjectRef(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := u.Hostname()
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}
	return host
}

// String returns the value of key or def when unset.
func String(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func Bool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// Duration parses key as a Go duration. Zero and negative values are
// rejected.
func Duration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", key)
	}
	return d, nil
}
