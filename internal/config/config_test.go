package config

import (
	"os"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// This test mainly ensures the function doesn't panic
}

func TestApplyDefaults(t *testing.T) {
	t.Run("Config struct defaults", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)

		if config.API.BaseURL != "http://localhost:3000/api" {
			t.Errorf("Expected default base URL, got %q", config.API.BaseURL)
		}
		if config.API.TimeoutSeconds != 30 {
			t.Errorf("Expected timeout 30, got %d", config.API.TimeoutSeconds)
		}
		if config.Cache.TTLMillis != 2000 {
			t.Errorf("Expected cache TTL 2000ms, got %d", config.Cache.TTLMillis)
		}
		if config.Drafts.Compression != CompressionZstd {
			t.Errorf("Expected zstd draft compression, got %q", config.Drafts.Compression)
		}
		if config.Uploads.Backend != UploadBackendAPI {
			t.Errorf("Expected api upload backend, got %q", config.Uploads.Backend)
		}
		if config.Uploads.S3.Region != "auto" {
			t.Errorf("Expected S3 region 'auto', got %q", config.Uploads.S3.Region)
		}
		if config.Render.SyntaxTheme != DefaultSyntaxTheme {
			t.Errorf("Expected syntax theme %q, got %q", DefaultSyntaxTheme, config.Render.SyntaxTheme)
		}
		if config.Posts.PageSize != 24 {
			t.Errorf("Expected page size 24, got %d", config.Posts.PageSize)
		}
		if config.Logging.Level != "info" {
			t.Errorf("Expected log level 'info', got %q", config.Logging.Level)
		}
	})

	t.Run("Non-pointer is ignored", func(t *testing.T) {
		// Should not panic
		applyDefaults(42)
	})
}

func TestConfigDefaultsGoldenFile(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	goldenData, err := os.ReadFile("testdata/defaults.yaml")
	if err != nil {
		t.Fatalf("Failed to read golden defaults file: %v", err)
	}

	var goldenConfig Config
	if err := yaml.Unmarshal(goldenData, &goldenConfig); err != nil {
		t.Fatalf("Failed to parse golden config: %v", err)
	}

	if got := Default(); !reflect.DeepEqual(*got, goldenConfig) {
		t.Errorf("Defaults drifted from golden file:\ngot  %+v\nwant %+v", *got, goldenConfig)
	}
}

func TestLoadConfig(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	t.Run("Load non-existent config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		err := LoadConfig("non-existent-config.yaml")
		if err != nil {
			t.Errorf("Expected no error for non-existent config file, got %v", err)
		}

		if AppConfig == nil {
			t.Fatal("Expected AppConfig to be set with defaults")
		}
		if AppConfig.Cache.TTLMillis != 2000 {
			t.Errorf("Expected default TTL, got %d", AppConfig.Cache.TTLMillis)
		}
	})

	t.Run("Load valid config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		configContent := `
api:
  base_url: "https://blog.example.com/api"
cache:
  ttl_ms: 500
uploads:
  backend: s3
  s3:
    bucket: media
`
		tempFile, err := os.CreateTemp("", "test-config-*.yaml")
		if err != nil {
			t.Fatalf("Failed to create temp file: %v", err)
		}
		defer os.Remove(tempFile.Name())

		if _, err := tempFile.WriteString(configContent); err != nil {
			t.Fatalf(ErrWriteConfigContentFmt, err)
		}
		tempFile.Close()

		if err := LoadConfig(tempFile.Name()); err != nil {
			t.Fatalf("Expected no error loading valid config, got %v", err)
		}

		if AppConfig.API.BaseURL != "https://blog.example.com/api" {
			t.Errorf("Expected base URL from file, got %q", AppConfig.API.BaseURL)
		}
		if AppConfig.Cache.TTLMillis != 500 {
			t.Errorf("Expected TTL 500, got %d", AppConfig.Cache.TTLMillis)
		}
		if AppConfig.Uploads.Backend != UploadBackendS3 {
			t.Errorf("Expected s3 backend, got %q", AppConfig.Uploads.Backend)
		}
		if AppConfig.Uploads.S3.Bucket != "media" {
			t.Errorf("Expected bucket 'media', got %q", AppConfig.Uploads.S3.Bucket)
		}

		// Unspecified fields keep their defaults
		if AppConfig.Uploads.S3.Prefix != "images/" {
			t.Errorf("Expected default prefix, got %q", AppConfig.Uploads.S3.Prefix)
		}
		if AppConfig.Posts.PageSize != 24 {
			t.Errorf("Expected default page size, got %d", AppConfig.Posts.PageSize)
		}
	})

	t.Run("Load invalid YAML file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		tempFile, err := os.CreateTemp("", "test-config-invalid-*.yaml")
		if err != nil {
			t.Fatalf("Failed to create temp file: %v", err)
		}
		defer os.Remove(tempFile.Name())

		tempFile.WriteString("api:\n  base_url: [unterminated\n")
		tempFile.Close()

		if err := LoadConfig(tempFile.Name()); err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvS3AccessKeyID, "key-id")

	config := Default()
	ApplyEnv(config)

	if config.API.BaseURL != "https://env.example.com" {
		t.Errorf("Expected env base URL, got %q", config.API.BaseURL)
	}
	if config.Uploads.S3.AccessKeyID != "key-id" {
		t.Errorf("Expected env access key, got %q", config.Uploads.S3.AccessKeyID)
	}
	if config.Uploads.S3.SecretAccessKey != "" {
		t.Errorf("Expected unset secret to stay empty, got %q", config.Uploads.S3.SecretAccessKey)
	}
}

func TestSliceDefaults(t *testing.T) {
	t.Run("Slice with whitespace handling", func(t *testing.T) {
		type TestStruct struct {
			Items []string `default:" item1 , item2 , item3 "`
		}

		test := &TestStruct{}
		applyDefaults(test)

		expected := []string{"item1", "item2", "item3"}
		if !reflect.DeepEqual(test.Items, expected) {
			t.Errorf("Expected trimmed items %v, got %v", expected, test.Items)
		}
	})

	t.Run("Non-empty slice should not be overwritten", func(t *testing.T) {
		type TestStruct struct {
			Items []string `default:"default1,default2"`
		}

		test := &TestStruct{Items: []string{"existing1", "existing2"}}
		applyDefaults(test)

		expected := []string{"existing1", "existing2"}
		if !reflect.DeepEqual(test.Items, expected) {
			t.Errorf("Expected existing items to be preserved %v, got %v", expected, test.Items)
		}
	})
}
