package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Uploads UploadsConfig `yaml:"uploads"`
	Render  RenderConfig  `yaml:"render"`
	Posts   PostsConfig   `yaml:"posts"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url" default:"http://localhost:3000/api"`
	TimeoutSeconds int    `yaml:"timeout_seconds" default:"30"`
	UserAgent      string `yaml:"user_agent" default:"inkwell"`
}

type CacheConfig struct {
	// Lifetime of a cached read, counted from the moment it was written.
	TTLMillis int `yaml:"ttl_ms" default:"2000"`
}

type SessionConfig struct {
	DBPath string `yaml:"db_path" default:"./inkwell.db"`
}

type DraftsConfig struct {
	Compression string `yaml:"compression" default:"zstd"`
}

type UploadsConfig struct {
	Backend string   `yaml:"backend" default:"api"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket" default:""`
	Endpoint        string `yaml:"endpoint" default:""`
	Region          string `yaml:"region" default:"auto"`
	PublicBaseURL   string `yaml:"public_base_url" default:""`
	Prefix          string `yaml:"prefix" default:"images/"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
}

type RenderConfig struct {
	Renderer    string `yaml:"renderer" default:"mmark"`
	SyntaxTheme string `yaml:"syntax_theme" default:"gruvbox"`
}

type PostsConfig struct {
	PageSize int `yaml:"page_size" default:"24"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		ApplyEnv(config)
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyEnv(config)
	AppConfig = config
	return nil
}

// Default returns a config with every default applied, for callers that run
// before LoadConfig (tests, one-shot tools).
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// ApplyEnv overrides file values with the INKWELL_* environment variables.
func ApplyEnv(config *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvAPIURL, &config.API.BaseURL},
		{EnvS3AccessKeyID, &config.Uploads.S3.AccessKeyID},
		{EnvS3SecretAccessKey, &config.Uploads.S3.SecretAccessKey},
		{EnvLogLevel, &config.Logging.Level},
	}

	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
