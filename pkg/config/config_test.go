package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER_ORDER", "paydunya,taarih")
	t.Setenv("PAYMENT_PROVIDER_PAYDUNYA_MASTER_KEY", "master-key-123456")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, []string{"paydunya", "taarih"}, cfg.PaymentProviders.Order)
	assert.Equal(t, "master-key-123456", cfg.PaymentProviders.Paydunya.MasterKey)
	assert.Equal(t, "test", cfg.PaymentProviders.Paydunya.Mode)
	assert.Equal(t, "paydunya", cfg.PaymentProviders.Paydunya.Name)
	assert.Equal(t, "+221", cfg.PaymentProviders.Taarih.CallingCode)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "payments:events", cfg.EventBus.Redis.Stream)
	assert.True(t, cfg.Idempotency.Enabled)
	assert.Equal(t, StoreMemory, cfg.Idempotency.Store)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, 2*time.Minute, cfg.Server.PollTimeout)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestFindEnvFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "cmd", "server")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	envPath := filepath.Join(root, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("APP_ENV=test\n"), 0o600))

	found, err := findEnvFile("", nested)
	require.NoError(t, err)
	assert.Equal(t, envPath, found)

	found, err = findEnvFile(envPath, "/")
	require.NoError(t, err)
	assert.Equal(t, envPath, found)

	_, err = findEnvFile("missing.env", nested)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = findEnvFile(filepath.Join(root, "missing.env"), nested)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.test")
	content := "PAYMENT_PROVIDER_ORDER=bogus\nPAYMENT_PROVIDER_BOGUS_INSTANT_EVENTS=false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Cleanup(func() {
		_ = os.Unsetenv("PAYMENT_PROVIDER_ORDER")
		_ = os.Unsetenv("PAYMENT_PROVIDER_BOGUS_INSTANT_EVENTS")
	})

	cfg, err := Load(".env.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"bogus"}, cfg.PaymentProviders.Order)
	assert.False(t, cfg.PaymentProviders.Bogus.InstantEvents)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER_ORDER", "paydunya,paypal")

	_, err := Load("does-not-exist.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestValidate(t *testing.T) {
	valid := func() *App {
		return &App{
			PaymentProviders: &PaymentProviders{
				Order:    []string{"paydunya", "taarih", "stripe", "bogus"},
				Paydunya: &Paydunya{Mode: "live"},
				Taarih:   &Taarih{Mode: "test"},
			},
			EventBus:    &EventBus{Drivers: []string{"redis", "nats"}},
			Idempotency: &Idempotency{Enabled: true, Store: "redis"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*App)
		want   error
	}{
		{name: "valid", mutate: func(*App) {}},
		{
			name:   "empty order",
			mutate: func(a *App) { a.PaymentProviders.Order = nil },
			want:   ErrEmptyProviderOrder,
		},
		{
			name:   "bad paydunya mode",
			mutate: func(a *App) { a.PaymentProviders.Paydunya.Mode = "sandbox" },
			want:   ErrInvalidMode,
		},
		{
			name:   "bad taarih mode",
			mutate: func(a *App) { a.PaymentProviders.Taarih.Mode = "" },
			want:   ErrInvalidMode,
		},
		{
			name:   "unknown driver",
			mutate: func(a *App) { a.EventBus.Drivers = []string{"rabbitmq"} },
			want:   ErrUnknownBusDriver,
		},
		{
			name:   "unknown idempotency store",
			mutate: func(a *App) { a.Idempotency.Store = "memcached" },
			want:   ErrUnknownCacheStore,
		},
		{
			name: "disabled idempotency skips store check",
			mutate: func(a *App) {
				a.Idempotency.Enabled = false
				a.Idempotency.Store = "memcached"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue("short"))
	assert.Equal(t, "sk****cdef", maskValue("sk_live_abcdef"))
}
