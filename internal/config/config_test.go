package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUDITDEDUP_POOL_SIZE",
		"AUDITDEDUP_SIEVE_SIZE",
		"AUDITDEDUP_INPUT",
		"AUDITDEDUP_OUTPUT",
		"AUDITDEDUP_BYPASS_EXPR",
		"AUDITDEDUP_DEBUG",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("auditdedup", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestParseEnvConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseEnvConfig()
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.PoolSize)
	assert.Equal(t, 4096, cfg.SieveSize)
	assert.Equal(t, "-", cfg.Input)
	assert.Equal(t, "/var/log/audit/dedup.log", cfg.Output)
	assert.Empty(t, cfg.BypassExpr)
	assert.False(t, cfg.Debug)
}

func TestParseEnvConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUDITDEDUP_POOL_SIZE", "64")
	t.Setenv("AUDITDEDUP_SIEVE_SIZE", "0")
	t.Setenv("AUDITDEDUP_OUTPUT", "-")
	t.Setenv("AUDITDEDUP_BYPASS_EXPR", `syscall contains "sshd"`)
	t.Setenv("AUDITDEDUP_DEBUG", "true")

	cfg, err := ParseEnvConfig()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.PoolSize)
	assert.Equal(t, 0, cfg.SieveSize)
	assert.Equal(t, "-", cfg.Output)
	assert.Equal(t, `syscall contains "sshd"`, cfg.BypassExpr)
	assert.True(t, cfg.Debug)
}

func TestParseEnvConfig_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUDITDEDUP_POOL_SIZE", "lots")

	_, err := ParseEnvConfig()
	require.Error(t, err)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUDITDEDUP_POOL_SIZE", "64")
	t.Setenv("AUDITDEDUP_OUTPUT", "/tmp/env.log")

	fs := newFlagSet(t, "-n", "128", "--output", "-", "--debug")

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.PoolSize) // flag wins
	assert.Equal(t, "-", cfg.Output)   // flag wins
	assert.Equal(t, 4096, cfg.SieveSize)
	assert.True(t, cfg.Debug)
}

func TestLoad_UnsetFlagsKeepEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUDITDEDUP_SIEVE_SIZE", "10")
	t.Setenv("AUDITDEDUP_BYPASS_EXPR", "seq == 1")

	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.SieveSize)
	assert.Equal(t, "seq == 1", cfg.BypassExpr)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero pool", []string{"--pool-size=0"}, "pool size"},
		{"negative sieve", []string{"--sieve-size=-1"}, "sieve size"},
		{"empty output", []string{"--output="}, "output"},
		{"empty input", []string{"--input="}, "input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(newFlagSet(t, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOTELConfig_GetEndpoint(t *testing.T) {
	cfg := &OTELConfig{}
	assert.Empty(t, cfg.GetEndpoint(), "export disabled without an endpoint")

	cfg.ExporterEndpoint = "collector:4318"
	assert.Equal(t, "collector:4318", cfg.GetEndpoint())

	cfg.MetricsEndpoint = "metrics:4318"
	assert.Equal(t, "metrics:4318", cfg.GetEndpoint())
}

func TestParseOTELConfig_Defaults(t *testing.T) {
	for _, key := range []string{"OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := ParseOTELConfig()
	require.NoError(t, err)
	assert.Equal(t, "auditdedup", cfg.ServiceName)
	assert.Empty(t, cfg.GetEndpoint())
}

func TestOTELConfig_ParseResourceAttributes(t *testing.T) {
	cfg := &OTELConfig{ResourceAttributes: "host.name=web1, deployment.environment = prod,broken,=nokey"}

	attrs := cfg.ParseResourceAttributes()
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("host.name", "web1"),
		attribute.String("deployment.environment", "prod"),
	}, attrs)

	assert.Nil(t, (&OTELConfig{}).ParseResourceAttributes())
}
