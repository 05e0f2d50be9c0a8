package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte("instance:\n  name: node-1\n"))
	require.NoError(t, err)

	assert.Equal(t, "node-1", cfg.Instance.Name)
	assert.Equal(t, "scrapebot.db", cfg.Database.Path)
	assert.Equal(t, 20, cfg.Screenshots.History)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Nil(t, cfg.S3())
	assert.Nil(t, cfg.Push())

	sc := cfg.SessionConfig()
	assert.Equal(t, "chrome", sc.Browser)
	assert.Equal(t, 1024, sc.Width)
	assert.Equal(t, 768, sc.Height)
	assert.Equal(t, "en", sc.Language)
	assert.True(t, sc.Headless)
	assert.Zero(t, sc.SettleTimeout)
	assert.Equal(t, 30*time.Second, sc.QueryTimeout)
}

func TestParseFull(t *testing.T) {
	t.Setenv("SCRAPEBOT_TEST_SECRET", "s3cr3t")

	doc := `
instance:
  name: node-2
  browser: chromium
  width: 1280
  height: 900
  user_agent: test-agent
  language: de
  timeout: 2s
  query_timeout: 5s
  headless: false
database:
  path: /tmp/bot.db
screenshots:
  dir: shots
  history: 5
  s3:
    bucket: shots
    region: eu-west-1
    access_key: AKIA
    secret_key: "{{ env.SCRAPEBOT_TEST_SECRET }}"
metrics:
  pushgateway: http://push:9091
  password: pw
`
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)

	sc := cfg.SessionConfig()
	assert.Equal(t, "chromium", sc.Browser)
	assert.Equal(t, "test-agent", sc.UserAgent)
	assert.False(t, sc.Headless)
	assert.Equal(t, 2*time.Second, sc.SettleTimeout)
	assert.Equal(t, 5*time.Second, sc.QueryTimeout)

	s3 := cfg.S3()
	require.NotNil(t, s3)
	assert.Equal(t, "s3cr3t", s3.SecretKey)
	assert.Equal(t, "eu-west-1", s3.Region)

	push := cfg.Push()
	require.NotNil(t, push)
	assert.Equal(t, "scrapebot", push.Job)

	assert.Contains(t, cfg.Secrets(), "s3cr3t")
	assert.Contains(t, cfg.Secrets(), "pw")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "bad yaml", doc: "instance: [", wantErr: "parsing config YAML"},
		{name: "missing env", doc: "instance:\n  name: \"{{ env.SCRAPEBOT_TEST_UNSET }}\"\n", wantErr: "SCRAPEBOT_TEST_UNSET"},
		{name: "bad timeout", doc: "instance:\n  name: n\n  timeout: soon\n", wantErr: "instance.timeout"},
		{name: "s3 without bucket", doc: "instance:\n  name: n\nscreenshots:\n  s3:\n    region: x\n", wantErr: "bucket is required"},
		{name: "half credentials", doc: "instance:\n  name: n\nscreenshots:\n  s3:\n    bucket: b\n    access_key: a\n", wantErr: "set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scrapebot.yml")
	require.NoError(t, os.WriteFile(path, []byte("instance:\n  name: node-3\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "node-3", cfg.Instance.Name)

	_, err = config.Load(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scrapebot.yml")
	doc := "instance:\n  name: n\ndatabase:\n  path: data/bot.db\nscreenshots:\n  dir: /var/shots\nlog:\n  dir: logs\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "bot.db"), cfg.Database.Path)
	assert.Equal(t, "/var/shots", cfg.Screenshots.Dir)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.Log.Dir)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "", config.ResolvePath("/base", ""))
	assert.Equal(t, "/abs/x", config.ResolvePath("/base", "/abs/x"))
	assert.Equal(t, filepath.Join("/base", "rel"), config.ResolvePath("/base", "rel"))
}
