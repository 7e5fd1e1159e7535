package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrussa/orderbridge/internal/config"
)

var importerKeys = []string{
	"SHOPIFY_STORE", "SHOPIFY_TOKEN", "SHOPIFY_API_VERSION",
	"EVERSTOX_SHOP_ID", "EVERSTOX_API_HOST", "EVERSTOX_API_TOKEN",
	"TAG_WHITELIST", "TAG_BLACKLIST", "TAG_RULES_FILE",
	"DRY_RUN", "LOOKBACK_DAYS", "POSTGRES_DSN", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"ARTIFACT_BUCKET", "ARTIFACT_PREFIX", "ARTIFACT_ENDPOINT", "ARTIFACT_REGION",
	"ARTIFACT_ACCESS_KEY", "ARTIFACT_SECRET_KEY",
	"LOG_LEVEL", "LOG_FORMAT", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"HTTP_ADDR", "CACHE_WARM_LIMIT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range importerKeys {
		t.Setenv(k, "")
	}
}

func noFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_ErrWhenShopifyMissing(t *testing.T) {
	clearEnv(t)
	_, err := config.LoadFrom(noFile(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "set SHOPIFY_STORE")
	require.Contains(t, err.Error(), "set SHOPIFY_TOKEN")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPIFY_STORE", "demo")
	t.Setenv("SHOPIFY_TOKEN", "shpat_x")

	cfg, err := config.LoadFrom(noFile(t))
	require.NoError(t, err)

	require.Equal(t, "demo", cfg.ShopifyStore)
	require.Equal(t, "2024-04", cfg.ShopifyAPIVersion)
	require.Equal(t, "api.demo.everstox.com", cfg.EverstoxAPIHost)
	require.Empty(t, cfg.EverstoxShopID)
	require.True(t, cfg.DryRun)
	require.Equal(t, 14, cfg.LookbackDays)
	require.Nil(t, cfg.KafkaBrokers)
	require.Equal(t, "everstox.orders", cfg.KafkaTopic)
	require.Equal(t, "orderbridge", cfg.Artifact.Prefix)
	require.Equal(t, "us-east-1", cfg.Artifact.Region)
	require.Equal(t, config.Log{Level: "info", Format: "console"}, cfg.Log)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPIFY_STORE", "https://demo.myshopify.com")
	t.Setenv("SHOPIFY_TOKEN", "shpat_x")
	t.Setenv("EVERSTOX_SHOP_ID", "shop-42")
	t.Setenv("EVERSTOX_API_HOST", "localhost:8443")
	t.Setenv("DRY_RUN", "false")
	t.Setenv("LOOKBACK_DAYS", "30")
	t.Setenv("KAFKA_BROKERS", "rp1:9092, rp2:9092")
	t.Setenv("KAFKA_TOPIC", "orders.prepared")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.LoadFrom(noFile(t))
	require.NoError(t, err)

	require.Equal(t, "shop-42", cfg.EverstoxShopID)
	require.Equal(t, "localhost:8443", cfg.EverstoxAPIHost)
	require.False(t, cfg.DryRun)
	require.Equal(t, 30, cfg.LookbackDays)
	require.Equal(t, []string{"rp1:9092", "rp2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "orders.prepared", cfg.KafkaTopic)
	require.Equal(t, config.Log{Level: "debug", Format: "json"}, cfg.Log)
}

func TestLoad_LookbackDays_InvalidValues(t *testing.T) {
	for _, v := range []string{"abc", "0", "-5"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SHOPIFY_STORE", "demo")
			t.Setenv("SHOPIFY_TOKEN", "x")
			t.Setenv("LOOKBACK_DAYS", v)

			cfg, err := config.LoadFrom(noFile(t))
			require.NoError(t, err)
			require.Equal(t, 14, cfg.LookbackDays)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"log level", map[string]string{"LOG_LEVEL": "loud"}, "invalid LOG_LEVEL"},
		{"log format", map[string]string{"LOG_FORMAT": "xml"}, "invalid LOG_FORMAT"},
		{"lookback too long", map[string]string{"LOOKBACK_DAYS": "400"}, "invalid LOOKBACK_DAYS"},
		{"secret without key", map[string]string{"ARTIFACT_SECRET_KEY": "s"}, "set ARTIFACT_ACCESS_KEY"},
		{"bad endpoint", map[string]string{"ARTIFACT_ENDPOINT": "not a url"}, "invalid ARTIFACT_ENDPOINT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SHOPIFY_STORE", "demo")
			t.Setenv("SHOPIFY_TOKEN", "x")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadFrom(noFile(t))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHOPIFY_STORE=from-file\nSHOPIFY_TOKEN=tok\nTAG_BLACKLIST=wholesale\n"), 0o600))
	t.Setenv("SHOPIFY_TOKEN", "from-env")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.ShopifyStore)
	require.Equal(t, "from-env", cfg.ShopifyToken)
	require.Equal(t, "wholesale", cfg.TagBlacklist)
}

func TestLoad_EnvFileUnreadable(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	_, err := config.LoadFrom(dir)
	require.Error(t, err)
}

func TestImporter_Rules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blacklist:\n  - b2b\nwhitelist:\n  - vip\n"), 0o600))

	cfg := config.Importer{TagBlacklist: "wholesale", TagRulesFile: path}
	rules, err := cfg.Rules()
	require.NoError(t, err)
	require.Equal(t, []string{"wholesale", "b2b"}, rules.Blacklist)
	require.Equal(t, []string{"vip"}, rules.Whitelist)

	cfg.TagRulesFile = filepath.Join(t.TempDir(), "nope.yaml")
	_, err = cfg.Rules()
	require.ErrorContains(t, err, "read tag rules")

	cfg.TagRulesFile = ""
	rules, err = cfg.Rules()
	require.NoError(t, err)
	require.Equal(t, []string{"wholesale"}, rules.Blacklist)
	require.Nil(t, rules.Whitelist)
}

func TestLoadAPI_ErrWhenPostgresDSNMissing(t *testing.T) {
	clearEnv(t)
	_, err := config.LoadAPIFrom(noFile(t))
	require.ErrorContains(t, err, "set POSTGRES_DSN")
}

func TestLoadAPI_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://u:p@h/db?sslmode=disable")

	cfg, err := config.LoadAPIFrom(noFile(t))
	require.NoError(t, err)
	require.Equal(t, ":8081", cfg.HTTPAddr)
	require.Equal(t, 100, cfg.CacheWarmLimit)
}

func TestLoadAPI_CacheWarmLimit(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"42", 42},
		{"0", 0},
		{"abc", 100},
		{"-5", 100},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("POSTGRES_DSN", "postgres://u:p@h/db")
			t.Setenv("CACHE_WARM_LIMIT", tt.value)

			cfg, err := config.LoadAPIFrom(noFile(t))
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.CacheWarmLimit)
		})
	}
}
