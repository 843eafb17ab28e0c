package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{DSN: "postgres://localhost/fusionrag"},
		Cache:    CacheConfig{Driver: CacheDriverRueidis},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing dsn")
	}
}

func TestValidate_CacheDrivers(t *testing.T) {
	for _, driver := range []string{CacheDriverRueidis, CacheDriverGoRedis} {
		t.Run(driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = driver
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for driver %q: %v", driver, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Cache.Driver = "memcached"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `cache.driver must be "rueidis" or "goredis", got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_TelemetryEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled telemetry without endpoint")
	}

	cfg.Telemetry.OTLPEndpoint = "localhost:4317"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Cache.Driver != CacheDriverRueidis {
		t.Errorf("expected Driver=rueidis, got %q", cfg.Cache.Driver)
	}
	if got := cfg.Cache.DefaultTTL(); got != 600*time.Second {
		t.Errorf("expected DefaultTTL=600s, got %v", got)
	}
	if cfg.Retrieval.DefaultK != 5 {
		t.Errorf("expected DefaultK=5, got %d", cfg.Retrieval.DefaultK)
	}
	if cfg.Retrieval.KeywordK != 4 {
		t.Errorf("expected KeywordK=4, got %d", cfg.Retrieval.KeywordK)
	}
	if cfg.Retrieval.Rerank.Model != "rerank-english-v3.0" {
		t.Errorf("expected rerank model rerank-english-v3.0, got %q", cfg.Retrieval.Rerank.Model)
	}
	if cfg.Retrieval.Rerank.Enabled {
		t.Error("rerank should be disabled by default")
	}
	if cfg.Telemetry.ServiceName != "fusionrag" {
		t.Errorf("expected ServiceName=fusionrag, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestApplyDefaults_GenerationKeyFallsBackToEmbedding(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "sk-emb"}}
	cfg.ApplyDefaults()

	if cfg.Generation.APIKey != "sk-emb" {
		t.Errorf("expected generation key to inherit embedding key, got %q", cfg.Generation.APIKey)
	}
}

func TestCacheConfig_Enabled(t *testing.T) {
	if (CacheConfig{}).Enabled() {
		t.Error("empty url must disable the cache")
	}
	if (CacheConfig{URL: "   "}).Enabled() {
		t.Error("blank url must disable the cache")
	}
	if !(CacheConfig{URL: "redis://localhost:6379"}).Enabled() {
		t.Error("url must enable the cache")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FUSIONRAG_TEST_SET", "value")
	t.Setenv("FUSIONRAG_TEST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"key: ${FUSIONRAG_TEST_SET}", "key: value"},
		{"key: ${FUSIONRAG_TEST_SET:-fallback}", "key: value"},
		{"key: ${FUSIONRAG_TEST_EMPTY:-fallback}", "key: fallback"},
		{"key: ${FUSIONRAG_TEST_UNSET}", "key: "},
		{"key: ${FUSIONRAG_TEST_UNSET:-}", "key: "},
		{"plain: text", "plain: text"},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse_EnvKnobs(t *testing.T) {
	t.Setenv("DB_REDIS_URL", "redis://cache:6379")
	t.Setenv("DB_CACHE_TTL_S", "0")
	t.Setenv("DB_USE_RERANK", "true")
	t.Setenv("COHERE_RERANK_MODEL", "")

	data := []byte(`
http:
  port: 9090
database:
  dsn: postgres://localhost/fusionrag
cache:
  url: ${DB_REDIS_URL:-}
  default_ttl_sec: ${DB_CACHE_TTL_S:-600}
retrieval:
  rerank:
    enabled: ${DB_USE_RERANK:-false}
    model: ${COHERE_RERANK_MODEL:-rerank-english-v3.0}
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Cache.URL != "redis://cache:6379" {
		t.Errorf("cache url = %q", cfg.Cache.URL)
	}
	if got := cfg.Cache.DefaultTTL(); got != 0 {
		t.Errorf("explicit zero ttl must mean no expiry, got %v", got)
	}
	if !cfg.Retrieval.Rerank.Enabled {
		t.Error("rerank should be enabled")
	}
	if cfg.Retrieval.Rerank.Model != "rerank-english-v3.0" {
		t.Errorf("rerank model = %q", cfg.Retrieval.Rerank.Model)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("http: [unterminated"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fusionrag")
	t.Setenv("OTEL_ENABLED", "")

	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(env)
			if err != nil {
				t.Fatalf("Load(%q): %v", env, err)
			}
			if cfg.HTTP.Port == 0 {
				t.Error("port not set")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
