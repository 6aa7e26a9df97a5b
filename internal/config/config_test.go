package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

var dbVars = []string{
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE",
	"DB_TABLE", "DB_AUTH_METHOD", "DB_APP_NAME", "DB_CONNECT_TIMEOUT", "DB_GOOGLE_INSTANCE",
}

// clearEnv unsets the DB_* variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range dbVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "ocean_db")
	t.Setenv("DB_USER", "sammy")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load(Options{ProjectDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Connection.Host)
	assert.Equal(t, oceanq.DefaultPort, cfg.Connection.Port)
	assert.Equal(t, "ocean_db", cfg.Connection.Database)
	assert.Equal(t, "sammy", cfg.Connection.Username)
	assert.Equal(t, oceanq.DefaultSSLMode, cfg.Connection.SSLMode)
	assert.Equal(t, oceanq.AuthMethodStandard, cfg.Connection.AuthMethod)
	assert.Equal(t, oceanq.DefaultTableName, cfg.Table)
	assert.Equal(t, oceanq.DefaultSourceFile, cfg.Source)
}

func TestLoad_AllVariables(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("DB_TABLE", "ocean.argo_2019")
	t.Setenv("DB_AUTH_METHOD", "AWS-IAM")
	t.Setenv("DB_APP_NAME", "oceanq-test")
	t.Setenv("DB_CONNECT_TIMEOUT", "15s")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load(Options{ProjectDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.Connection.Port)
	assert.Equal(t, "secret", cfg.Connection.Password)
	assert.Equal(t, "require", cfg.Connection.SSLMode)
	assert.Equal(t, "ocean.argo_2019", cfg.Table)
	assert.Equal(t, oceanq.AuthMethodAWSIAM, cfg.Connection.AuthMethod)
	assert.Equal(t, "oceanq-test", cfg.Connection.AppName)
	assert.Equal(t, 15*time.Second, cfg.Connection.ConnectTimeout)
	assert.Equal(t, "eu-west-1", cfg.Connection.AWSRegion)
}

func TestLoad_MissingRequiredNamesEveryVariable(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{ProjectDir: t.TempDir()})
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, oceanq.ErrInvalidConfig), "expected ErrInvalidConfig, got: %v", err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"port too large", "DB_PORT", "70000", "DB_PORT"},
		{"unknown auth", "DB_AUTH_METHOD", "kerberos", "DB_AUTH_METHOD"},
		{"bad sslmode", "DB_SSLMODE", "sometimes", "DB_SSLMODE"},
		{"bad table", "DB_TABLE", "argo-data", "DB_TABLE"},
		{"google without instance", "DB_AUTH_METHOD", "google-iam", "DB_GOOGLE_INSTANCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(Options{ProjectDir: t.TempDir()})
			require.Error(t, err)
			assert.True(t, errors.Is(err, oceanq.ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_EmptyValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_TABLE", "")

	cfg, err := Load(Options{ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, oceanq.DefaultPort, cfg.Connection.Port)
	assert.Equal(t, oceanq.DefaultTableName, cfg.Table)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "DB_HOST=filehost\nDB_NAME=filedb\nDB_USER=fileuser\nDB_PORT=5433\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	cfg, err := Load(Options{EnvFile: envFile, ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "filehost", cfg.Connection.Host)
	assert.Equal(t, "filedb", cfg.Connection.Database)
	assert.Equal(t, 5433, cfg.Connection.Port)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_HOST=filehost\n"), 0644))

	cfg, err := Load(Options{EnvFile: envFile, ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Connection.Host)
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "nope.env"), ProjectDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, oceanq.ErrInvalidConfig))
}

func TestLoad_ProjectFileBelowEnvironment(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	dir := t.TempDir()
	content := "table: argo_2020\nsource: data/ARGO_2020.csv\nsslmode: disable\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0644))

	cfg, err := Load(Options{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "argo_2020", cfg.Table)
	assert.Equal(t, "data/ARGO_2020.csv", cfg.Source)
	assert.Equal(t, "disable", cfg.Connection.SSLMode)

	t.Setenv("DB_TABLE", "argo_override")
	cfg, err = Load(Options{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "argo_override", cfg.Table)
}

func TestLoadProject_FileNotFound(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoadProject_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("{{invalid"), 0644))

	cfg, err := LoadProject(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadProject_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(""), 0644))

	cfg, err := LoadProject(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ProjectConfig{}, *cfg)
}
