package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/l33tdawg/cfp-directory-plugins/internal/datastore"
)

func newTestSettings(t *testing.T) (SettingsService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := datastore.New(rdb, "settings-test-secret", zerolog.Nop())
	return NewSettingsService(store, zerolog.Nop()), mr
}

func TestSettingsDefaultsWhenUnset(t *testing.T) {
	svc, _ := newTestSettings(t)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), got)
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	svc, _ := newTestSettings(t)
	ctx := context.Background()

	want := DefaultSettings()
	want.Provider = "anthropic"
	want.Model = "claude-sonnet-4-20250514"
	want.BudgetLimitUSD = 25
	want.DuplicateDetection = false

	require.NoError(t, svc.Save(ctx, want))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAPIKeyLifecycle(t *testing.T) {
	svc, _ := newTestSettings(t)
	ctx := context.Background()

	has, err := svc.HasAPIKey(ctx)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, svc.SetAPIKey(ctx, "sk-test-12345"))

	has, err = svc.HasAPIKey(ctx)
	require.NoError(t, err)
	require.True(t, has)

	key, err := svc.APIKey(ctx)
	require.NoError(t, err)
	require.Equal(t, "sk-test-12345", key)

	require.NoError(t, svc.DeleteAPIKey(ctx))

	has, err = svc.HasAPIKey(ctx)
	require.NoError(t, err)
	require.False(t, has)
}

func TestAPIKeyEncryptedAtRest(t *testing.T) {
	svc, mr := newTestSettings(t)
	ctx := context.Background()

	require.NoError(t, svc.SetAPIKey(ctx, "sk-very-secret-value"))

	for _, key := range mr.Keys() {
		raw, err := mr.Get(key)
		require.NoError(t, err)
		require.NotContains(t, raw, "sk-very-secret-value")
	}
}
