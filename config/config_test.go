package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindmate/respcache/eviction"
	"github.com/mindmate/respcache/expiration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "respcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  default_ttl: 90s
  sweep_interval: 1m
  max_entries: 1000
  eviction: LFU
  expiration: access
client:
  base_url: https://api.mindmate.example
  rate_per_second: 2.5
log:
  level: debug
  format: json
metrics:
  namespace: mindmate
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, "https://api.mindmate.example", cfg.Client.BaseURL)
	assert.Equal(t, 2.5, cfg.Client.RatePerSecond)
	assert.Equal(t, "mindmate", cfg.Metrics.Namespace)

	// untouched sections keep defaults
	assert.Equal(t, 16, cfg.Cache.Shards)
	assert.Equal(t, 20, cfg.Client.Burst)
	assert.Equal(t, "127.0.0.1:9090", cfg.Debug.Addr)

	cc := cfg.CacheConfig(nil, nil, nil)
	assert.Equal(t, eviction.LFU, cc.Eviction)
	assert.IsType(t, expiration.ExpireAfterAccess{}, cc.Expiration)
	assert.Equal(t, 90*time.Second, cc.DefaultTTL)

	assert.Equal(t, 2.5, cfg.ClientConfig().RatePerSecond)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "bad yaml", yaml: "cache: [", wantErr: "parsing"},
		{name: "negative shards", yaml: "cache: {shards: -1}", wantErr: "cache.shards"},
		{name: "too many shards", yaml: "cache: {shards: 100000}", wantErr: "cache.shards"},
		{name: "negative max entries", yaml: "cache: {max_entries: -5}", wantErr: "cache.max_entries"},
		{name: "unknown eviction", yaml: "cache: {eviction: random}", wantErr: "cache.eviction"},
		{name: "unknown expiration", yaml: "cache: {expiration: never}", wantErr: "cache.expiration"},
		{name: "relative base url", yaml: "client: {base_url: /api}", wantErr: "client.base_url"},
		{name: "negative rate", yaml: "client: {rate_per_second: -1}", wantErr: "client.rate_per_second"},
		{name: "debug without addr", yaml: "debug: {enabled: true, addr: ''}", wantErr: "debug.addr"},
		{name: "bad level", yaml: "log: {level: loud}", wantErr: "log.level"},
		{name: "bad format", yaml: "log: {format: xml}", wantErr: "log.format"},
		{name: "bad namespace", yaml: "metrics: {namespace: 'my-app'}", wantErr: "metrics.namespace"},
		{name: "disabled sweep", yaml: "cache: {sweep_interval: -1s}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Warn("shown", "key", "user:42")
	assert.Contains(t, buf.String(), `"key":"user:42"`)

	buf.Reset()
	LogConfig{}.NewLogger(&buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
