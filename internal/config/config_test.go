package config

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// This test mainly ensures the function doesn't panic
}

func TestApplyDefaults(t *testing.T) {
	t.Run("Config struct defaults", func(t *testing.T) {
		config := &Config{}
		ApplyDefaults(config)

		if config.Site.Name != "Homestead" {
			t.Errorf("Expected site name 'Homestead', got %q", config.Site.Name)
		}
		if config.Server.Port != "12600" {
			t.Errorf("Expected port '12600', got %q", config.Server.Port)
		}
		if config.Storage.Backend != "sqlite" {
			t.Errorf("Expected storage backend 'sqlite', got %q", config.Storage.Backend)
		}
		if config.Storage.MemoryQuotaBytes != 5*1024*1024 {
			t.Errorf("Expected 5 MiB memory quota, got %d", config.Storage.MemoryQuotaBytes)
		}
		if config.Drafts.DebounceDelay != 2*time.Second {
			t.Errorf("Expected 2s debounce delay, got %v", config.Drafts.DebounceDelay)
		}
		if config.Drafts.QuickRetention != 24*time.Hour {
			t.Errorf("Expected 24h quick retention, got %v", config.Drafts.QuickRetention)
		}
		if config.Drafts.FullRetention != 7*24*time.Hour {
			t.Errorf("Expected 7 day full retention, got %v", config.Drafts.FullRetention)
		}
		if config.Images.MaxUploadBytes != 10*1024*1024 {
			t.Errorf("Expected 10 MiB upload ceiling, got %d", config.Images.MaxUploadBytes)
		}
		if config.Images.MaxPixels != 50_000_000 {
			t.Errorf("Expected 50 MP pixel ceiling, got %d", config.Images.MaxPixels)
		}
		if !config.Images.FallbackToOriginal {
			t.Error("Expected fallback to original to be enabled by default")
		}
		if !reflect.DeepEqual(config.Images.Presets, DefaultPresets()) {
			t.Errorf("Expected default presets, got %+v", config.Images.Presets)
		}
		if config.ObjectStore.Backend != "fs" {
			t.Errorf("Expected object store backend 'fs', got %q", config.ObjectStore.Backend)
		}
		if config.ObjectStore.Endpoint != "" {
			t.Errorf("Expected empty endpoint, got %q", config.ObjectStore.Endpoint)
		}
		if config.Auth.Type != "ed25519" {
			t.Errorf("Expected auth type 'ed25519', got %q", config.Auth.Type)
		}
		if config.Logging.Level != "info" {
			t.Errorf("Expected logging level 'info', got %q", config.Logging.Level)
		}
	})

	t.Run("Custom struct with various field types", func(t *testing.T) {
		type TestStruct struct {
			StringField   string        `default:"test-string"`
			BoolField     bool          `default:"true"`
			IntField      int           `default:"42"`
			Int64Field    int64         `default:"9000000000"`
			DurationField time.Duration `default:"1m30s"`
			Float64Field  float64       `default:"3.14"`
			SliceField    []string      `default:"a,b,c"`
			NoDefault     string
		}

		test := &TestStruct{}
		applyDefaults(test)

		if test.StringField != "test-string" {
			t.Errorf("Expected string field 'test-string', got %q", test.StringField)
		}
		if !test.BoolField {
			t.Error("Expected bool field to be true")
		}
		if test.IntField != 42 {
			t.Errorf("Expected int field 42, got %d", test.IntField)
		}
		if test.Int64Field != 9000000000 {
			t.Errorf("Expected int64 field 9000000000, got %d", test.Int64Field)
		}
		if test.DurationField != 90*time.Second {
			t.Errorf("Expected duration 1m30s, got %v", test.DurationField)
		}
		if test.Float64Field != 3.14 {
			t.Errorf("Expected float64 field 3.14, got %f", test.Float64Field)
		}
		expectedSlice := []string{"a", "b", "c"}
		if !reflect.DeepEqual(test.SliceField, expectedSlice) {
			t.Errorf("Expected slice %v, got %v", expectedSlice, test.SliceField)
		}
		if test.NoDefault != "" {
			t.Errorf("Expected no default field to be empty, got %q", test.NoDefault)
		}
	})

	t.Run("Invalid default values", func(t *testing.T) {
		type InvalidStruct struct {
			BadBool     bool          `default:"not-a-bool"`
			BadInt      int           `default:"not-an-int"`
			BadDuration time.Duration `default:"soon"`
		}

		test := &InvalidStruct{}
		applyDefaults(test)

		if test.BadBool {
			t.Error("Expected invalid bool default to remain false")
		}
		if test.BadInt != 0 {
			t.Errorf("Expected invalid int default to remain 0, got %d", test.BadInt)
		}
		if test.BadDuration != 0 {
			t.Errorf("Expected invalid duration default to remain 0, got %v", test.BadDuration)
		}
	})

	t.Run("Non-struct input", func(t *testing.T) {
		stringVar := "test"
		applyDefaults(&stringVar)
		applyDefaults(stringVar)
		applyDefaults(42)
		applyDefaults(nil)
	})
}

func TestDraftsRetention(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if got := cfg.Drafts.Retention("quick"); got != 24*time.Hour {
		t.Errorf("Expected quick retention 24h, got %v", got)
	}
	if got := cfg.Drafts.Retention("full"); got != 168*time.Hour {
		t.Errorf("Expected full retention 168h, got %v", got)
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
		if AppConfig.Site.Name != "Homestead" {
			t.Errorf("Expected default site name, got %q", AppConfig.Site.Name)
		}
		if len(AppConfig.Images.Presets) != 2 {
			t.Errorf("Expected two default presets, got %d", len(AppConfig.Images.Presets))
		}
	})

	t.Run("Load valid config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		configContent := `
server:
  port: "8080"
storage:
  backend: redis
  redis_addr: "cache:6379"
drafts:
  debounce_delay: 500ms
images:
  presets:
    - quality: 70
      max_dimension: 1024
      max_bytes: 200000
`
		path := t.TempDir() + "/config.yaml"
		if err := os.WriteFile(path, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config content: %v", err)
		}

		if err := LoadConfig(path); err != nil {
			t.Fatalf("Expected no error loading valid config, got %v", err)
		}

		if AppConfig.Server.Port != "8080" {
			t.Errorf("Expected port '8080', got %q", AppConfig.Server.Port)
		}
		if AppConfig.Server.Host != "0.0.0.0" {
			t.Errorf("Expected default host to survive, got %q", AppConfig.Server.Host)
		}
		if AppConfig.Storage.Backend != "redis" || AppConfig.Storage.RedisAddr != "cache:6379" {
			t.Errorf("Expected redis storage at cache:6379, got %+v", AppConfig.Storage)
		}
		if AppConfig.Drafts.DebounceDelay != 500*time.Millisecond {
			t.Errorf("Expected 500ms debounce, got %v", AppConfig.Drafts.DebounceDelay)
		}
		if AppConfig.Drafts.FullRetention != 168*time.Hour {
			t.Errorf("Expected default full retention, got %v", AppConfig.Drafts.FullRetention)
		}
		want := []PresetConfig{{Quality: 70, MaxDimension: 1024, MaxBytes: 200000}}
		if !reflect.DeepEqual(AppConfig.Images.Presets, want) {
			t.Errorf("Expected presets %+v, got %+v", want, AppConfig.Images.Presets)
		}
	})

	t.Run("Load invalid YAML", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		path := t.TempDir() + "/config.yaml"
		if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
			t.Fatalf("Failed to write config content: %v", err)
		}

		if err := LoadConfig(path); err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})
}
