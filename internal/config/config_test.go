package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kanban.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
redis:
  url: "redis://cache:6380/2"
  namespace: "team-a"
boards: ["b1", "b2"]
subscriber:
  max_retries: 3
  retry_delay: "250ms"
server:
  listen: ":9090"
links:
  base: "https://example.test/r"
log:
  level: "debug"
  format: "json"
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "team-a", config.Redis.Namespace)
	assert.Equal(t, []string{"b1", "b2"}, config.Boards)
	assert.Equal(t, ":9090", config.Server.Listen)
	assert.Equal(t, "https://example.test/r", config.Links.Base)

	opts, err := config.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	sub := config.SubscriberOptions()
	assert.Equal(t, 3, sub.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, sub.RetryDelay)
}

func TestLoad_Defaults(t *testing.T) {
	config, err := Load(writeConfig(t, `version: "1.0"`))
	require.NoError(t, err)

	assert.Equal(t, DefaultRedisURL, config.Redis.URL)
	assert.Equal(t, DefaultNamespace, config.Redis.Namespace)
	assert.Equal(t, 5, *config.Subscriber.MaxRetries)
	assert.Zero(t, config.SubscriberOptions().RetryDelay)
	assert.Equal(t, DefaultListen, config.Server.Listen)
	assert.Equal(t, "/lightning/r", config.Links.Base)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Empty(t, config.Boards)

	assert.Equal(t, config, Default())
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/kanban.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	config, err := Load(writeConfig(t, `version: "1.0"
boards:
  - this is invalid
    yaml: [syntax
`))
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate_Errors(t *testing.T) {
	zero, negative := 0, -1
	tests := []struct {
		name   string
		config KanbanConfig
		want   string
	}{
		{"unsupported version", KanbanConfig{Version: "2.0"}, "unsupported version: 2.0"},
		{"bad redis url", KanbanConfig{Version: "1.0", Redis: &RedisConfig{URL: "http://nope"}}, "redis.url"},
		{"namespace with colon", KanbanConfig{Version: "1.0", Redis: &RedisConfig{Namespace: "a:b"}}, "redis.namespace"},
		{"empty board", KanbanConfig{Version: "1.0", Boards: []string{""}}, "empty board id"},
		{"duplicate board", KanbanConfig{Version: "1.0", Boards: []string{"b1", "b1"}}, "duplicate board id 'b1'"},
		{"zero retries", KanbanConfig{Version: "1.0", Subscriber: &SubscriberConfig{MaxRetries: &zero}}, "max_retries must be >= 1"},
		{"negative retries", KanbanConfig{Version: "1.0", Subscriber: &SubscriberConfig{MaxRetries: &negative}}, "max_retries must be >= 1"},
		{"bad delay", KanbanConfig{Version: "1.0", Subscriber: &SubscriberConfig{RetryDelay: "soon"}}, "subscriber.retry_delay"},
		{"negative delay", KanbanConfig{Version: "1.0", Subscriber: &SubscriberConfig{RetryDelay: "-1s"}}, "must not be negative"},
		{"bad level", KanbanConfig{Version: "1.0", Log: &LogConfig{Level: "loud"}}, "log.level"},
		{"bad format", KanbanConfig{Version: "1.0", Log: &LogConfig{Format: "xml"}}, "invalid log.format: xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	config := Default()
	config.Log.Level = "debug"
	config.Log.Format = "json"

	l := log.New()
	require.NoError(t, config.ConfigureLogger(l))
	assert.Equal(t, log.DebugLevel, l.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, l.Formatter)
}
