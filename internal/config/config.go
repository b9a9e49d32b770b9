// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
// Blog identity and URL layout can additionally be overridden from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	LogLevel string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache). An empty host disables page caching.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	PageCacheTTL   time.Duration

	Blog    Blog
	Ping    Ping
	Storage Storage
}

// Blog holds the blog identity, URL segments and paging constants. These
// are passed explicitly to the page assembler rather than read from globals.
type Blog struct {
	Name         string `yaml:"name"`
	Owner        string `yaml:"owner"`
	CanonicalURL string `yaml:"canonical_url"`
	Description  string `yaml:"description"`
	Version      string `yaml:"-"`

	TagPath     string `yaml:"tag_path"`
	DatePath    string `yaml:"date_path"`
	ArticlePath string `yaml:"article_path"`
	MediaPath   string `yaml:"media_path"`
	RSS2Path    string `yaml:"rss2_path"`
	ArchivePath string `yaml:"archive_path"`

	MaxArticlesPerPage int `yaml:"max_articles_per_page"`
	TotalRecent        int `yaml:"total_recent"`
}

// Ping configures the update-notification pings sent after content changes.
type Ping struct {
	URLs     []string
	Timeout  time.Duration
	Interval time.Duration // minimum spacing between ping rounds
}

// Storage configures the optional S3 mirror of the RSS feed.
type Storage struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	FeedKey   string
}

// Version is reported to templates as the blog software version.
const Version = "0.3"

// DefaultBlog returns the built-in blog identity and URL layout.
func DefaultBlog() Blog {
	return Blog{
		Name:               "PicoBlog",
		Owner:              "Joe Example",
		CanonicalURL:       "http://localhost:8080/",
		Description:        "A small blog",
		Version:            Version,
		TagPath:            "tag",
		DatePath:           "date",
		ArticlePath:        "id",
		MediaPath:          "static",
		RSS2Path:           "rss2",
		ArchivePath:        "archive",
		MaxArticlesPerPage: 5,
		TotalRecent:        10,
	}
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "picoblog"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "picoblog"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		PageCacheTTL:   durationOrDefault("PAGE_CACHE_TTL", 5*time.Minute),

		Blog: DefaultBlog(),

		Ping: Ping{
			URLs:     splitList(os.Getenv("PING_URLS")),
			Timeout:  durationOrDefault("PING_TIMEOUT", 10*time.Second),
			Interval: durationOrDefault("PING_INTERVAL", time.Minute),
		},

		Storage: Storage{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    envOrDefault("S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
			FeedKey:   envOrDefault("S3_FEED_KEY", "rss2.xml"),
		},
	}

	if v := os.Getenv("BLOG_NAME"); v != "" {
		cfg.Blog.Name = v
	}
	if v := os.Getenv("BLOG_OWNER"); v != "" {
		cfg.Blog.Owner = v
	}
	if v := os.Getenv("BLOG_URL"); v != "" {
		cfg.Blog.CanonicalURL = v
	}
	cfg.Blog.MaxArticlesPerPage = intOrDefault("BLOG_PAGE_SIZE", cfg.Blog.MaxArticlesPerPage)
	cfg.Blog.TotalRecent = intOrDefault("BLOG_TOTAL_RECENT", cfg.Blog.TotalRecent)

	if path := os.Getenv("BLOG_CONFIG"); path != "" {
		if err := loadBlogFile(path, &cfg.Blog); err != nil {
			return nil, err
		}
	}

	if err := cfg.Blog.Validate(); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// loadBlogFile overlays the non-empty values of a YAML blog file onto b.
func loadBlogFile(path string, b *Blog) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read blog config %s: %w", path, err)
	}

	var file Blog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse blog config %s: %w", path, err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&b.Name, file.Name)
	overlay(&b.Owner, file.Owner)
	overlay(&b.CanonicalURL, file.CanonicalURL)
	overlay(&b.Description, file.Description)
	overlay(&b.TagPath, file.TagPath)
	overlay(&b.DatePath, file.DatePath)
	overlay(&b.ArticlePath, file.ArticlePath)
	overlay(&b.MediaPath, file.MediaPath)
	overlay(&b.RSS2Path, file.RSS2Path)
	overlay(&b.ArchivePath, file.ArchivePath)
	if file.MaxArticlesPerPage > 0 {
		b.MaxArticlesPerPage = file.MaxArticlesPerPage
	}
	if file.TotalRecent > 0 {
		b.TotalRecent = file.TotalRecent
	}
	return nil
}

// Validate checks that URL segments are usable as single path components.
func (b Blog) Validate() error {
	segments := map[string]string{
		"tag_path":     b.TagPath,
		"date_path":    b.DatePath,
		"article_path": b.ArticlePath,
		"rss2_path":    b.RSS2Path,
		"archive_path": b.ArchivePath,
	}
	for name, seg := range segments {
		if seg == "" || strings.Contains(seg, "/") {
			return fmt.Errorf("blog %s must be a single non-empty path segment, got %q", name, seg)
		}
	}
	if b.MaxArticlesPerPage < 1 || b.TotalRecent < 0 {
		return fmt.Errorf("blog paging constants out of range")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CacheEnabled reports whether a Valkey host was configured.
func (c *Config) CacheEnabled() bool {
	return c.ValkeyHost != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOrDefault parses a Go duration from the environment, falling back
// when unset or malformed.
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// intOrDefault parses an integer from the environment.
func intOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
