package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/notepulse-hq/note-pulse/internal/domain"
)

// Config holds the application configuration loaded from files and
// environment variables. It is assembled once at startup and passed
// explicitly into constructors; nothing reads ambient state after Load.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	LogLevel string `mapstructure:"log_level"`

	BaseURL       string `mapstructure:"note_base_url"`
	Cookie        string `mapstructure:"note_cookie"`
	Username      string `mapstructure:"note_username"`
	CookieSetDate string `mapstructure:"cookie_set_date"`

	DataDir        string `mapstructure:"data_dir"`
	MetaCachePath  string `mapstructure:"meta_cache_path"`
	PublishersFile string `mapstructure:"publishers_file"`
	CategoriesFile string `mapstructure:"categories_file"`

	LikesPageSize      int           `mapstructure:"likes_page_size"`
	PageIntervalMs     int64         `mapstructure:"page_interval_ms"`
	ArticleIntervalMs  int64         `mapstructure:"article_interval_ms"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	MetaStalenessDays  int           `mapstructure:"meta_staleness_days"`
	PageInterval       time.Duration `mapstructure:"-"`
	ArticleInterval    time.Duration `mapstructure:"-"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	MetaStaleness      time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and an optional .env.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	v.SetDefault("app_name", "note-pulse")
	v.SetDefault("log_level", "info")
	v.SetDefault("note_base_url", "https://note.com")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("meta_cache_path", "./data/meta_cache.db")
	v.SetDefault("publishers_file", "")
	v.SetDefault("categories_file", "./data/article_categories.csv")
	v.SetDefault("likes_page_size", 50)
	v.SetDefault("page_interval_ms", 1000)
	v.SetDefault("article_interval_ms", 1500)
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("meta_staleness_days", 7)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.LikesPageSize <= 0 {
		return nil, fmt.Errorf("invalid likes_page_size (must be positive)")
	}
	if cfg.PageIntervalMs < 0 || cfg.ArticleIntervalMs < 0 {
		return nil, fmt.Errorf("request intervals must not be negative")
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive)")
	}
	if cfg.MetaStalenessDays <= 0 {
		return nil, fmt.Errorf("invalid meta_staleness_days (must be positive)")
	}
	cfg.PageInterval = time.Duration(cfg.PageIntervalMs) * time.Millisecond
	cfg.ArticleInterval = time.Duration(cfg.ArticleIntervalMs) * time.Millisecond
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	cfg.MetaStaleness = time.Duration(cfg.MetaStalenessDays) * 24 * time.Hour

	return &cfg, nil
}

// ValidateCookie checks the session cookie for the common misconfigurations
// seen in practice. Only the stats run needs this; the likes endpoint is
// public.
func ValidateCookie(cookie string) error {
	if cookie == "" {
		return fmt.Errorf("NOTE_COOKIE is empty; set it in .env or the environment")
	}
	if !strings.Contains(cookie, "=") {
		return fmt.Errorf("NOTE_COOKIE is not in key=value form")
	}
	if strings.HasPrefix(cookie, "NOTE_COOKIE=") {
		return fmt.Errorf("NOTE_COOKIE contains its own variable name; set only the value")
	}
	return nil
}

// minPlausibleCookieLength is shorter than any real note session cookie.
// Values below it are almost always a partial copy-paste.
const minPlausibleCookieLength = 50

// CookieSuspiciouslyShort reports whether the cookie is too short to be a
// full session value. Not an error: the request may still work, so callers
// only warn.
func CookieSuspiciouslyShort(cookie string) bool {
	return cookie != "" && len(cookie) < minPlausibleCookieLength
}

// CookieLifetimeDays is how long a note session cookie is known to survive.
const CookieLifetimeDays = 90

// CookieDaysRemaining reports the estimated days until the cookie expires,
// based on when it was set. Returns false when no set date is configured or
// it does not parse.
func CookieDaysRemaining(setDate string, now time.Time) (int, bool) {
	if setDate == "" {
		return 0, false
	}
	set, err := domain.ParseDate(setDate)
	if err != nil {
		return 0, false
	}
	elapsed := int(now.In(domain.JST).Sub(set) / (24 * time.Hour))
	return CookieLifetimeDays - elapsed, true
}
