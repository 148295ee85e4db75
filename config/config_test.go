package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	oidckit "github.com/PaulFidika/vippskit/oidc"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, n := range []string{
		"VIPPS_ENVIRONMENT", "ENV", "APP_ENV", "ENVIRONMENT", "VIPPS_AUTHORITY", "VIPPS_CLIENT_ID",
		"VIPPS_USERINFO_TIMEOUT", "VIPPS_USERINFO_CACHE_TTL", "VIPPS_USERINFO_RATE_LIMIT", "REDIS_ADDR", "REDIS_PASSWORD",
		"DATABASE_URL", "VIPPS_DB_SCHEMA", "VIPPS_LOCALE",
	} {
		t.Setenv(n, "")
		require.NoError(t, os.Unsetenv(n))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, oidckit.EnvironmentTest, cfg.Env())
	assert.Equal(t, 10*time.Second, cfg.UserInfoTimeout)
	assert.Equal(t, "", cfg.ExtraAuthority())
	assert.Equal(t, "https://apitest.vipps.no/access-management-1.0/access/", cfg.DiscoveryIssuer())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("VIPPS_AUTHORITY", "https://login.example.no/")
	t.Setenv("VIPPS_USERINFO_CACHE_TTL", "90s")
	t.Setenv("VIPPS_USERINFO_RATE_LIMIT", "30")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, oidckit.EnvironmentProduction, cfg.Env())
	assert.Equal(t, "https://login.example.no/", cfg.ExtraAuthority())
	assert.Equal(t, "https://login.example.no/", cfg.DiscoveryIssuer())
	assert.Equal(t, 90*time.Second, cfg.UserInfoCacheTTL)
	assert.Equal(t, 30, cfg.UserInfoRateLimit)
}

func TestFromEnv_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIPPS_USERINFO_TIMEOUT", "soon")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_BadRateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIPPS_USERINFO_RATE_LIMIT", "lots")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestExtraAuthority_BlankIsNone(t *testing.T) {
	cfg := Config{Authority: "   "}
	assert.Equal(t, "", cfg.ExtraAuthority())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vipps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
authority: https://file.example.no/
userinfo_timeout: 3s
database_schema: profiles
`), 0o600))
	t.Setenv("VIPPS_AUTHORITY", "https://env.example.no/")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, oidckit.EnvironmentProduction, cfg.Env())
	assert.Equal(t, "https://env.example.no/", cfg.Authority)
	assert.Equal(t, 3*time.Second, cfg.UserInfoTimeout)
	assert.Equal(t, "profiles", cfg.DatabaseSchema)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFromEnv_Locale(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, language.MustParse("nb"), cfg.DateLocale())

	t.Setenv("VIPPS_LOCALE", "en-GB")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, language.MustParse("en-GB"), cfg.DateLocale())

	t.Setenv("VIPPS_LOCALE", "not_a_locale!")
	_, err = FromEnv()
	assert.Error(t, err)
	assert.Equal(t, language.Norwegian, Config{Locale: "not_a_locale!"}.DateLocale())
}
