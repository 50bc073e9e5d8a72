package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration required by the gateway process.
// Values come from the environment, optionally seeded by a .env file in the working directory.
// No handler should read raw environment variables.
type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Media     MediaConfig
	Routes    RoutesConfig
	Redis     RedisConfig
	DB        DBConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env  string
	Port int

	// SiteURL is the absolute base used for redirects. Empty means "derive from the request".
	SiteURL string

	// UIUpstreamURL serves the web front end pages behind the route gate. Optional.
	UIUpstreamURL string

	// TrustedProxies are the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means none: the client IP is always the socket peer.
	TrustedProxies []string
}

type BackendConfig struct {
	BaseURL   string
	ProductID string
	Timeout   time.Duration
}

type MediaConfig struct {
	APIKey    string
	APISecret string
	TokenTTL  time.Duration
}

type RoutesConfig struct {
	// Protected is ordered; membership is prefix match.
	Protected  []string
	SigninPath string
}

type RedisConfig struct {
	Addr string
}

type DBConfig struct {
	// URL is a Postgres DSN. It contains secrets; never log it.
	URL string
}

type RateLimitConfig struct {
	PerMinute int
}

const (
	keyAppEnv          = "APP_ENV"
	keyAppPort         = "APP_PORT"
	keySiteURL         = "SITE_URL"
	keyUIUpstreamURL   = "UI_UPSTREAM_URL"
	keyTrustedProxies  = "TRUSTED_PROXIES"
	keyAPIBaseURL      = "API_BASE_URL"
	keyProductID       = "PRODUCT_ID"
	keyBackendTimeout  = "BACKEND_TIMEOUT"
	keyLiveKitKey      = "LIVEKIT_API_KEY"
	keyLiveKitSecret   = "LIVEKIT_API_SECRET"
	keyLiveKitTTL      = "LIVEKIT_TOKEN_TTL"
	keyProtectedRoutes = "PROTECTED_ROUTES"
	keySigninPath      = "SIGNIN_PATH"
	keyRedisAddr       = "REDIS_ADDR"
	keyDatabaseURL     = "DATABASE_URL"
	keyRateLimit       = "RATE_LIMIT_PER_MINUTE"
)

// DefaultProtectedRoutes are the dashboard areas that require a session cookie.
var DefaultProtectedRoutes = []string{"/dashboard", "/spaces", "/bridges", "/studio", "/billing", "/profile"}

// Load reads .env (if present), overlays the environment and validates the result.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()
	v.SetDefault(keyAppPort, "8080")
	v.SetDefault(keyBackendTimeout, "15s")
	v.SetDefault(keyLiveKitTTL, "6h")
	v.SetDefault(keyProtectedRoutes, strings.Join(DefaultProtectedRoutes, ","))
	v.SetDefault(keySigninPath, "/auth/signin")
	v.SetDefault(keyRateLimit, "30")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = str(v, keyAppEnv)
	{
		n, err := mustInt(v, keyAppPort)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.SiteURL = strings.TrimRight(str(v, keySiteURL), "/")
	c.App.UIUpstreamURL = strings.TrimRight(str(v, keyUIUpstreamURL), "/")
	c.App.TrustedProxies = splitList(str(v, keyTrustedProxies))

	c.Backend.BaseURL = strings.TrimRight(str(v, keyAPIBaseURL), "/")
	c.Backend.ProductID = str(v, keyProductID)
	{
		d, err := mustDuration(v, keyBackendTimeout)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Backend.Timeout = d
	}

	c.Media.APIKey = str(v, keyLiveKitKey)
	// Secrets are not trimmed; whitespace may be significant.
	c.Media.APISecret = v.GetString(keyLiveKitSecret)
	{
		d, err := mustDuration(v, keyLiveKitTTL)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Media.TokenTTL = d
	}

	c.Routes.Protected = splitList(str(v, keyProtectedRoutes))
	c.Routes.SigninPath = str(v, keySigninPath)

	c.Redis.Addr = str(v, keyRedisAddr)
	c.DB.URL = v.GetString(keyDatabaseURL)

	{
		n, err := mustInt(v, keyRateLimit)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.RateLimit.PerMinute = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.SiteURL != "" {
		if err := checkURL(keySiteURL, c.App.SiteURL); err != nil {
			errs = append(errs, err)
		}
	} else if c.IsProduction() {
		errs = append(errs, errors.New("SITE_URL is required in production"))
	}
	if c.App.UIUpstreamURL != "" {
		if err := checkURL(keyUIUpstreamURL, c.App.UIUpstreamURL); err != nil {
			errs = append(errs, err)
		}
	}

	for _, p := range c.App.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				errs = append(errs, fmt.Errorf("TRUSTED_PROXIES entries must be IPs or CIDRs, got %q", p))
			}
		}
	}

	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	} else if err := checkURL(keyAPIBaseURL, c.Backend.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout))
	}

	// Missing media credentials are not fatal: the token endpoint reports them per request.
	if c.Media.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("LIVEKIT_TOKEN_TTL must be positive, got %s", c.Media.TokenTTL))
	}

	for _, p := range c.Routes.Protected {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("PROTECTED_ROUTES entries must start with '/', got %q", p))
		}
	}
	if !strings.HasPrefix(c.Routes.SigninPath, "/") {
		errs = append(errs, fmt.Errorf("SIGNIN_PATH must start with '/', got %q", c.Routes.SigninPath))
	}

	if c.RateLimit.PerMinute < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.RateLimit.PerMinute))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// MediaConfigured reports whether the signing key pair is present.
func (c Config) MediaConfigured() bool {
	return c.Media.APIKey != "" && c.Media.APISecret != ""
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func mustInt(v *viper.Viper, key string) (int, error) {
	s := str(v, key)
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, s)
	}
	return n, nil
}

func mustDuration(v *viper.Viper, key string) (time.Duration, error) {
	s := str(v, key)
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, s)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
