package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, values map[string]string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(t, nil))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "sqlite://circuit.db", cfg.DatabaseURL)
	require.Equal(t, 168*time.Hour, cfg.TokenTTL)
	require.Equal(t, 720*time.Hour, cfg.DraftTTL)
	require.Equal(t, EnvDevelopment, cfg.Environment)
	require.False(t, cfg.DebugSQL)
}

func TestFromViperRejectsBadDuration(t *testing.T) {
	_, err := FromViper(newViper(t, map[string]string{"DRAFT_TTL": "forever"}))
	require.Error(t, err)
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg, err := FromViper(newViper(t, map[string]string{"ENVIRONMENT": "Production"}))
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "s3cret"
	require.NoError(t, cfg.Validate())
}

func TestValidateFillsDevelopmentSecret(t *testing.T) {
	cfg, err := FromViper(newViper(t, nil))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.NotEmpty(t, cfg.JWTSecret)
}
