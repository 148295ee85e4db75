// Package config loads vippskit settings from a YAML file and the environment.
//
// Environment variables always win over the file:
//
//	VIPPS_ENVIRONMENT         test | production (falls back to ENV, APP_ENV, ENVIRONMENT)
//	VIPPS_AUTHORITY           extra trusted authority URL; blank means none
//	VIPPS_CLIENT_ID           OAuth client id
//	VIPPS_USERINFO_TIMEOUT    Go duration, e.g. 10s
//	VIPPS_USERINFO_CACHE_TTL  Go duration; 0 disables caching
//	VIPPS_USERINFO_RATE_LIMIT userinfo fetches per subject per minute; 0 disables limiting
//	REDIS_ADDR, REDIS_PASSWORD
//	VIPPS_LOCALE              BCP 47 tag selecting birth date formats, e.g. nb
//	DATABASE_URL, VIPPS_DB_SCHEMA
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	oidckit "github.com/PaulFidika/vippskit/oidc"
)

// Config holds every setting the kit reads.
type Config struct {
	Environment       string        `yaml:"environment"`
	Authority         string        `yaml:"authority"`
	ClientID          string        `yaml:"client_id"`
	UserInfoTimeout   time.Duration `yaml:"userinfo_timeout"`
	UserInfoCacheTTL  time.Duration `yaml:"userinfo_cache_ttl"`
	UserInfoRateLimit int           `yaml:"userinfo_rate_limit"`
	RedisAddr         string        `yaml:"redis_addr"`
	RedisPassword     string        `yaml:"redis_password"`
	DatabaseURL       string        `yaml:"database_url"`
	DatabaseSchema    string        `yaml:"database_schema"`
	Locale            string        `yaml:"locale"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Environment:     string(oidckit.EnvironmentTest),
		UserInfoTimeout: 10 * time.Second,
		DatabaseSchema:  "vipps",
		Locale:          "nb",
	}
}

// FromEnv builds a Config from defaults and environment variables.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML file and then applies environment overrides. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Env returns the parsed Vipps environment.
func (c Config) Env() oidckit.Environment {
	return oidckit.ParseEnvironment(c.Environment)
}

// ExtraAuthority returns the configured authority, or "" when it is blank.
func (c Config) ExtraAuthority() string {
	if strings.TrimSpace(c.Authority) == "" {
		return ""
	}
	return c.Authority
}

// DiscoveryIssuer is the issuer used for OIDC discovery: the configured
// authority when set, otherwise the default for the environment.
func (c Config) DiscoveryIssuer() string {
	if a := c.ExtraAuthority(); a != "" {
		return a
	}
	return oidckit.DefaultsFor(c.Env()).Issuer
}

// DateLocale returns the parsed locale, or Norwegian when it is blank or invalid.
func (c Config) DateLocale() language.Tag {
	if tag, err := language.Parse(strings.TrimSpace(c.Locale)); err == nil {
		return tag
	}
	return language.Norwegian
}

func (c Config) validate() error {
	if v := strings.TrimSpace(c.Locale); v != "" {
		if _, err := language.Parse(v); err != nil {
			return fmt.Errorf("config: locale %q: %w", v, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := firstEnv("VIPPS_ENVIRONMENT", "ENV", "APP_ENV", "ENVIRONMENT"); v != "" {
		c.Environment = string(oidckit.ParseEnvironment(v))
	}
	setString(&c.Authority, "VIPPS_AUTHORITY")
	setString(&c.ClientID, "VIPPS_CLIENT_ID")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DatabaseSchema, "VIPPS_DB_SCHEMA")
	setString(&c.Locale, "VIPPS_LOCALE")
	if err := setDuration(&c.UserInfoTimeout, "VIPPS_USERINFO_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.UserInfoCacheTTL, "VIPPS_USERINFO_CACHE_TTL"); err != nil {
		return err
	}
	return setInt(&c.UserInfoRateLimit, "VIPPS_USERINFO_RATE_LIMIT")
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

func setString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, name string) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = n
	return nil
}
