package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	defaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]interface{}{"JWT_SECRET": "s"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 200*time.Millisecond, cfg.CacheTimeout)
	assert.Equal(t, 0.9, cfg.PaymentSuccess)
	assert.Equal(t, "memory", cfg.OTPBackend)
	assert.Equal(t, cfg.PublicBaseURL, cfg.GoogleCallback)
	assert.Empty(t, cfg.Admins)
}

func TestJWTSecretRequired(t *testing.T) {
	_, err := FromViper(newViper(nil))
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestAdminsParsed(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]interface{}{
		"JWT_SECRET":        "s",
		"ADMIN_CREDENTIALS": `[{"email":"root@x.com","password":"pw"}]`,
	}))
	require.NoError(t, err)
	require.Len(t, cfg.Admins, 1)
	assert.Equal(t, "root@x.com", cfg.Admins[0].Email)
}

func TestInvalidValues(t *testing.T) {
	_, err := FromViper(newViper(map[string]interface{}{"JWT_SECRET": "s", "ADMIN_CREDENTIALS": "{"}))
	assert.Error(t, err)

	_, err = FromViper(newViper(map[string]interface{}{"JWT_SECRET": "s", "PAYMENT_SUCCESS_RATE": 1.5}))
	assert.Error(t, err)

	_, err = FromViper(newViper(map[string]interface{}{"JWT_SECRET": "s", "STORE_BACKEND": "sqlite"}))
	assert.Error(t, err)
}

func TestTrailingSlashTrimmed(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]interface{}{
		"JWT_SECRET":   "s",
		"FRONTEND_URL": "https://wheels.example/",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://wheels.example", cfg.FrontendURL)
}
