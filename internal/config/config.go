// Package config loads the settings shared by the einstein CLI and the tool
// server from defaults, an optional YAML file and GOCURVATURE_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GOCURVATURE_LOG_LEVEL.
const EnvPrefix = "GOCURVATURE"

// Config holds all application configuration.
type Config struct {
	Derive    DeriveConfig    `mapstructure:"derive" yaml:"derive" validate:"required"`
	Signature SignatureConfig `mapstructure:"signature" yaml:"signature" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server" validate:"required"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" validate:"required"`
}

// DeriveConfig holds the defaults for a derivation run. Zero Workers and
// MaxTerms select the library defaults; a zero Timeout means none.
type DeriveConfig struct {
	Coordinates []string      `mapstructure:"coordinates" yaml:"coordinates" validate:"required,min=1,dive,required"`
	Potential   string        `mapstructure:"potential" yaml:"potential" validate:"required"`
	Workers     int           `mapstructure:"workers" yaml:"workers" validate:"gte=0"`
	MaxTerms    int           `mapstructure:"max_terms" yaml:"max_terms" validate:"gte=0"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
}

// SignatureConfig holds the sampling box and seed of a signature survey.
type SignatureConfig struct {
	Samples   int     `mapstructure:"samples" yaml:"samples" validate:"gt=0,lte=1000000"`
	Low       float64 `mapstructure:"low" yaml:"low"`
	High      float64 `mapstructure:"high" yaml:"high" validate:"gtfield=Low"`
	Seed      uint64  `mapstructure:"seed" yaml:"seed"`
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance" validate:"gte=0"`
}

// ServerConfig holds the HTTP tool server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port" validate:"required,gt=0,lt=65536"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=json console"`
}

// DefaultConfig returns the built-in settings: the four-dimensional
// reference potential, 128 signature samples in [-2, 2]^n, port 8080.
func DefaultConfig() *Config {
	return &Config{
		Derive: DeriveConfig{
			Coordinates: []string{"t", "x", "y", "z"},
			Potential:   "exp(t) + sin(x)^2 + cos(y) + z^2",
			Timeout:     2 * time.Minute,
		},
		Signature: SignatureConfig{
			Samples:   128,
			Low:       -2,
			High:      2,
			Seed:      1,
			Tolerance: 1e-9,
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("derive.coordinates", d.Derive.Coordinates)
	v.SetDefault("derive.potential", d.Derive.Potential)
	v.SetDefault("derive.workers", d.Derive.Workers)
	v.SetDefault("derive.max_terms", d.Derive.MaxTerms)
	v.SetDefault("derive.timeout", d.Derive.Timeout)
	v.SetDefault("signature.samples", d.Signature.Samples)
	v.SetDefault("signature.low", d.Signature.Low)
	v.SetDefault("signature.high", d.Signature.High)
	v.SetDefault("signature.seed", d.Signature.Seed)
	v.SetDefault("signature.tolerance", d.Signature.Tolerance)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the configuration. With an empty path it looks for
// gocurvature.yaml in the working directory and falls back to the defaults
// when there is none; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("gocurvature")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	for i, c := range cfg.Derive.Coordinates {
		cfg.Derive.Coordinates[i] = strings.TrimSpace(c)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its validate tag and reports all
// failures at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s must satisfy %s", fe.Namespace(), tagText(fe))
	}
	return &Error{Fields: msgs, err: err}
}

func tagText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Error lists every field that failed validation.
type Error struct {
	Fields []string
	err    error
}

func (e *Error) Error() string {
	return "config: invalid configuration: " + strings.Join(e.Fields, "; ")
}

func (e *Error) Unwrap() error { return e.err }
