package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed_triage/internal/model"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FEED_TRIAGE_HOME", "/data/triage")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/data/triage/entries.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "/data/triage/settings.yaml", cfg.Triage.SettingsPath)
	assert.Equal(t, "/data/triage/artifacts", cfg.Triage.ArtifactDir)
	assert.Equal(t, 30, cfg.Triage.TagTopN)
	assert.Equal(t, 2, cfg.Triage.MinDocFreq)
	require.NotNil(t, cfg.Triage.MinChi2)
	assert.Equal(t, 0.02, *cfg.Triage.MinChi2)
	assert.Equal(t, 5*time.Minute, cfg.Triage.RankTimeout)
	assert.Len(t, cfg.Triage.Alphas, 6)
	assert.Equal(t, 30*time.Minute, cfg.Triage.WatchInterval)
	assert.True(t, cfg.Triage.Noise())
	assert.False(t, cfg.RabbitMQ.Enabled())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TRIAGE_DB_PASSWORD", "s3cret")
	path := writeFile(t, "config.yaml", `
storage:
  driver: postgres
  postgres:
    host: db
    user: triage
    password: ${TRIAGE_DB_PASSWORD}
rabbitmq:
  url: amqp://guest:guest@mq:5672/
triage:
  score_noise: false
  watch_interval: 1h
  alphas: [0.1, 1]
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t,
		"host=db port=5432 user=triage password=s3cret dbname=feed_triage sslmode=disable",
		cfg.Storage.Postgres.DSN())
	assert.True(t, cfg.RabbitMQ.Enabled())
	assert.Equal(t, "rankings", cfg.RabbitMQ.RoutingKey)
	assert.False(t, cfg.Triage.Noise())
	assert.Equal(t, time.Hour, cfg.Triage.WatchInterval)
	assert.Equal(t, []float64{0.1, 1}, cfg.Triage.Alphas)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "storage:\n  driver: mysql\n"))
	assert.ErrorContains(t, err, "mysql")

	_, err = Load(writeFile(t, "alpha.yaml", "triage:\n  alphas: [0, 1]\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "timeout.yaml", "triage:\n  rank_timeout: -1s\n"))
	assert.ErrorContains(t, err, "rank_timeout")

	_, err = Load(writeFile(t, "interval.yaml", "triage:\n  watch_interval: -5m\n"))
	assert.ErrorContains(t, err, "watch_interval")

	_, err = Load(writeFile(t, "chi2.yaml", "triage:\n  min_chi2: -0.5\n"))
	assert.ErrorContains(t, err, "min_chi2")

	_, err = Load(writeFile(t, "broken.yaml", "storage: [\n"))
	assert.ErrorContains(t, err, "parse config")
}

func TestSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	missing, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Nil(t, missing)

	want := &Settings{
		Algo: "linear",
		AlgoParams: model.Parameters{
			Cutoff:                -0.125,
			RMSE:                  0.3,
			ModelArtifactRef:      "linear-classifier-1.gob",
			VectorizerArtifactRef: "linear-vectorizer-1.gob",
			Precision:             0.7,
			Recall:                0.6,
		},
	}
	require.NoError(t, SaveSettings(path, want))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSettings_LegacyTagSubscriber(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
algo: tagsubscriber
tags: [space, science]
domains: [nasa.gov]
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "tagsubscriber", s.Algo)
	assert.Equal(t, []string{"space", "science"}, s.AlgoParams.Tags)
	assert.Equal(t, []string{"nasa.gov"}, s.AlgoParams.Domains)
	assert.Nil(t, s.Tags)
}

func TestLoadSettings_TagModel(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
algo: TagModel
algo_params:
  tags: [space]
  domains: []
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"space"}, s.AlgoParams.Tags)
	assert.Empty(t, s.AlgoParams.Domains)
}

func TestLoad_ZeroMinChi2IsKept(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", "triage:\n  min_chi2: 0\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.Triage.MinChi2)
	assert.Zero(t, *cfg.Triage.MinChi2)
}
