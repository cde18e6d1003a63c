package config

import (
	"errors"
	"fmt"
	"reflect"

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
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// RedisURL is the connection URL for the Redis-backed store.
	RedisURL string `mapstructure:"REDIS_URL" required:"true"`

	// Provider holds outbound provider-call tunables.
	Provider ProviderConfig `mapstructure:",squash"`

	// Proxy holds the optional egress proxy for provider calls.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// ProviderConfig holds global tunables for outbound provider calls.
// Per-provider timeouts stored with the provider record bound individual
// calls below the ceiling.
type ProviderConfig struct {
	// TimeoutSeconds is the hard outer ceiling for one provider call,
	// applied at the HTTP client level.
	TimeoutSeconds int `mapstructure:"PROVIDER_HTTP_TIMEOUT" default:"120"`
	// UserAgent is sent on every outbound provider request.
	UserAgent string `mapstructure:"PROVIDER_USER_AGENT" default:"panel-connector/1.0"`
}

// ProxyConfig holds egress proxy settings for outbound provider calls.
type ProxyConfig struct {
	// Enabled turns the egress proxy on.
	Enabled bool `mapstructure:"PROXY_ENABLED" default:"false"`
	// Hostname is the proxy server host.
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	// Port is the proxy server port.
	Port int `mapstructure:"PROXY_PORT"`
	// Username is the proxy auth user, if the proxy requires credentials.
	Username string `mapstructure:"PROXY_USERNAME"`
	// Password is the proxy auth password.
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// HasProxy returns true if the proxy is enabled and configured.
func (p ProxyConfig) HasProxy() bool {
	return p.Enabled && p.Hostname != "" && p.Port > 0
}

// FullURL returns the full proxy URL with credentials (for the HTTP client).
func (p ProxyConfig) FullURL() string {
	if !p.HasProxy() {
		return ""
	}
	if p.Username != "" && p.Password != "" {
		return fmt.Sprintf("http://%s:%s@%s:%d", p.Username, p.Password, p.Hostname, p.Port)
	}
	return fmt.Sprintf("http://%s:%d", p.Hostname, p.Port)
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

	return &config, nil
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
