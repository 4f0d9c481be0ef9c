package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen (all interfaces).
	ServerPort int `mapstructure:"SERVER_PORT" default:"3000"`

	// RedisURL enables the extraction-result cache when non-empty.
	RedisURL string `mapstructure:"REDIS_URL"`
	// CacheTTLMinutes is how long successful results stay cached.
	CacheTTLMinutes int `mapstructure:"CACHE_TTL_MINUTES" default:"10"`

	// DHL holds the carrier page configuration.
	DHL DHLConfig `mapstructure:",squash"`

	// Browser holds the headless browser configuration.
	Browser BrowserConfig `mapstructure:",squash"`

	// Proxy holds the optional upstream proxy configuration.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// DHLConfig holds the carrier URLs and pacing knobs.
type DHLConfig struct {
	// LandingURL is the carrier home page visited to establish a session.
	LandingURL string `mapstructure:"DHL_LANDING_URL" default:"https://www.dhl.com/mx-es/home.html"`
	// TrackingURLTemplate receives the tracking number via %s.
	TrackingURLTemplate string `mapstructure:"DHL_TRACKING_URL" default:"https://www.dhl.com/mx-es/home/tracking/tracking.html?submit=1&tracking-id=%s"`
	// WarmupTrackingNumber is the placeholder query used to pre-warm
	// client-side routing during session construction.
	WarmupTrackingNumber string `mapstructure:"DHL_WARMUP_TRACKING_NUMBER" default:"9068591556"`
	// MinRequestIntervalSeconds is the process-wide floor between query
	// dispatches. Lowering it aggressively gets the exit IP flagged.
	MinRequestIntervalSeconds int `mapstructure:"DHL_MIN_REQUEST_INTERVAL_SECONDS" default:"45"`
}

// BrowserConfig holds launch and choreography settings.
type BrowserConfig struct {
	// Bin overrides the browser executable path; empty lets the launcher
	// resolve or download one.
	Bin string `mapstructure:"BROWSER_BIN"`
	// Headless toggles headless mode; keep true outside local debugging.
	Headless bool `mapstructure:"BROWSER_HEADLESS" default:"true"`
	// NoSandbox disables the Chromium sandbox (required in most containers).
	NoSandbox bool `mapstructure:"BROWSER_NO_SANDBOX" default:"true"`
	// CookiesFile is where the session cookie jar is persisted.
	CookiesFile string `mapstructure:"BROWSER_COOKIES_FILE" default:".dhl-cookies.json"`
	// SettleWaitMinSeconds and SettleWaitMaxSeconds bound the long settle
	// wait that lets DHL's client-rendered content populate. The minimum
	// is part of the detection-avoidance choreography.
	SettleWaitMinSeconds int `mapstructure:"BROWSER_SETTLE_WAIT_MIN_SECONDS" default:"70"`
	SettleWaitMaxSeconds int `mapstructure:"BROWSER_SETTLE_WAIT_MAX_SECONDS" default:"80"`
	// LandingTimeoutSeconds bounds the landing-page navigation.
	LandingTimeoutSeconds int `mapstructure:"BROWSER_LANDING_TIMEOUT_SECONDS" default:"45"`
	// TrackingTimeoutSeconds bounds the tracking-page navigation.
	TrackingTimeoutSeconds int `mapstructure:"BROWSER_TRACKING_TIMEOUT_SECONDS" default:"180"`
}

// ProxyConfig holds the upstream proxy used by the browser.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED" default:"false"`
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// CacheTTL returns the result-cache TTL as a duration.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// MinRequestInterval returns the dispatch gate interval as a duration.
func (c *DHLConfig) MinRequestInterval() time.Duration {
	return time.Duration(c.MinRequestIntervalSeconds) * time.Second
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := validateChoreography(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateChoreography keeps the settle-wait bounds sane; the ordering and
// minimums are what the detection-avoidance behavior depends on.
func validateChoreography(config *AppConfig) error {
	b := config.Browser
	if b.SettleWaitMinSeconds < 1 {
		return fmt.Errorf("BROWSER_SETTLE_WAIT_MIN_SECONDS must be at least 1, got %d", b.SettleWaitMinSeconds)
	}
	if b.SettleWaitMaxSeconds < b.SettleWaitMinSeconds {
		return fmt.Errorf("BROWSER_SETTLE_WAIT_MAX_SECONDS (%d) must not be below the minimum (%d)",
			b.SettleWaitMaxSeconds, b.SettleWaitMinSeconds)
	}
	return nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
