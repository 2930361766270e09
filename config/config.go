package config

import (
	"io"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mindmate/respcache"
	"github.com/mindmate/respcache/apiclient"
	"github.com/mindmate/respcache/eviction"
	"github.com/mindmate/respcache/expiration"
	"github.com/mindmate/respcache/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Client  ClientConfig  `yaml:"client"`
	Debug   DebugConfig   `yaml:"debug"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// SweepInterval below zero turns the background sweep off.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	Shards            int    `yaml:"shards"`
	MaxEntries        int    `yaml:"max_entries"`
	Eviction          string `yaml:"eviction"`   // lru, lfu, fifo
	Expiration        string `yaml:"expiration"` // write, access
	RevalidateWorkers int    `yaml:"revalidate_workers"`
	RevalidateQueue   int    `yaml:"revalidate_queue"`
}

type ClientConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	TTL           time.Duration `yaml:"ttl"`
}

type DebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns a configuration that runs without a file.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			DefaultTTL:        respcache.DefaultTTL,
			SweepInterval:     respcache.DefaultSweepInterval,
			Shards:            respcache.DefaultShards,
			Eviction:          string(eviction.LRU),
			Expiration:        string(expiration.Write),
			RevalidateWorkers: respcache.DefaultRevalidateWorkers,
			RevalidateQueue:   respcache.DefaultRevalidateQueue,
		},
		Client: ClientConfig{
			BaseURL:       "http://localhost:8000",
			Timeout:       10 * time.Second,
			RatePerSecond: 10,
			Burst:         20,
			TTL:           respcache.DefaultTTL,
		},
		Debug: DebugConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "respcache",
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(data)
}

// Parse is Load without the file.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return cfg, nil
}

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Cache.Shards < 0 {
		return errors.New("cache.shards must not be negative")
	}
	if c.Cache.Shards > respcache.MaxShards {
		return errors.Errorf("cache.shards must be at most %d", respcache.MaxShards)
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("cache.max_entries must not be negative")
	}
	if _, err := eviction.ParsePolicyType(c.Cache.Eviction); err != nil {
		return errors.Wrap(err, "cache.eviction")
	}
	if _, ok := expiration.New(expiration.Kind(strings.ToLower(c.Cache.Expiration))); !ok {
		return errors.Errorf("cache.expiration: unknown strategy %q", c.Cache.Expiration)
	}
	if c.Cache.RevalidateWorkers < 0 || c.Cache.RevalidateQueue < 0 {
		return errors.New("cache.revalidate_workers and cache.revalidate_queue must not be negative")
	}

	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("client.base_url: %q is not an absolute url", c.Client.BaseURL)
	}
	if c.Client.Timeout < 0 {
		return errors.New("client.timeout must not be negative")
	}
	if c.Client.RatePerSecond < 0 || c.Client.Burst < 0 {
		return errors.New("client.rate_per_second and client.burst must not be negative")
	}

	if c.Debug.Enabled && c.Debug.Addr == "" {
		return errors.New("debug.addr is required when debug is enabled")
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.Errorf("log.format: unknown format %q", c.Log.Format)
	}

	if c.Metrics.Enabled && !namespacePattern.MatchString(c.Metrics.Namespace) {
		return errors.Errorf("metrics.namespace: %q is not a valid prometheus name", c.Metrics.Namespace)
	}
	return nil
}

/*
CacheConfig maps the cache section onto respcache.Config.
clock, logger and metrics are runtime collaborators; nil ones get respcache defaults.
*/
func (c *Config) CacheConfig(clock clockwork.Clock, logger *slog.Logger, metrics types.Metrics) respcache.Config {
	ev, _ := eviction.ParsePolicyType(c.Cache.Eviction)
	exp, _ := expiration.New(expiration.Kind(strings.ToLower(c.Cache.Expiration)))

	return respcache.Config{
		DefaultTTL:        c.Cache.DefaultTTL,
		SweepInterval:     c.Cache.SweepInterval,
		Shards:            c.Cache.Shards,
		MaxEntries:        c.Cache.MaxEntries,
		Eviction:          ev,
		Expiration:        exp,
		RevalidateWorkers: c.Cache.RevalidateWorkers,
		RevalidateQueue:   c.Cache.RevalidateQueue,
		Clock:             clock,
		Logger:            logger,
		Metrics:           metrics,
	}
}

// ClientConfig maps the client section onto apiclient.Config.
func (c *Config) ClientConfig() apiclient.Config {
	return apiclient.Config{
		BaseURL:       c.Client.BaseURL,
		Timeout:       c.Client.Timeout,
		RatePerSecond: c.Client.RatePerSecond,
		Burst:         c.Client.Burst,
		TTL:           c.Client.TTL,
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.Errorf("log.level: unknown level %q", s)
	}
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
