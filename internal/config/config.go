package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site        SiteConfig        `yaml:"site"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Storage     StorageConfig     `yaml:"storage"`
	Drafts      DraftsConfig      `yaml:"drafts"`
	Images      ImagesConfig      `yaml:"images"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Auth        AuthConfig        `yaml:"auth"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Homestead"`
	Description string `yaml:"description" default:"Property listings, drafted at your own pace"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

// StorageConfig selects the key-value backend that holds drafts.
type StorageConfig struct {
	Backend          string `yaml:"backend" default:"sqlite"`
	SQLitePath       string `yaml:"sqlite_path" default:"./homestead.db"`
	Compression      string `yaml:"compression" default:"zstd"`
	MemoryQuotaBytes int    `yaml:"memory_quota_bytes" default:"5242880"`
	RedisAddr        string `yaml:"redis_addr" default:"localhost:6379"`
	RedisDB          int    `yaml:"redis_db" default:"0"`
}

type DraftsConfig struct {
	DebounceDelay  time.Duration `yaml:"debounce_delay" default:"2s"`
	QuickRetention time.Duration `yaml:"quick_retention" default:"24h"`
	FullRetention  time.Duration `yaml:"full_retention" default:"168h"`
}

type ImagesConfig struct {
	MaxUploadBytes     int64          `yaml:"max_upload_bytes" default:"10485760"`
	MaxPixels          int64          `yaml:"max_pixels" default:"50000000"`
	FallbackToOriginal bool           `yaml:"fallback_to_original" default:"true"`
	Presets            []PresetConfig `yaml:"presets"`
}

// PresetConfig is one compression pass. Presets are tried in order.
type PresetConfig struct {
	Quality      int   `yaml:"quality"`
	MaxDimension int   `yaml:"max_dimension"`
	MaxBytes     int64 `yaml:"max_bytes"`
}

type ObjectStoreConfig struct {
	Backend       string `yaml:"backend" default:"fs"`
	Dir           string `yaml:"dir" default:"./uploads"`
	Bucket        string `yaml:"bucket" default:"property-images"`
	Region        string `yaml:"region" default:"auto"`
	Endpoint      string `yaml:"endpoint" default:""`
	PublicBaseURL string `yaml:"public_base_url" default:"http://localhost:12600/uploads"`
	KeyPrefix     string `yaml:"key_prefix" default:"properties/"`
}

type AuthConfig struct {
	Enabled    bool   `yaml:"enabled" default:"true"`
	Type       string `yaml:"type" default:"ed25519"`
	HeaderName string `yaml:"header_name" default:"Authorization"`
	UserID     string `yaml:"user_id" default:"admin"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)
	config.Images.Presets = DefaultPresets()

	data, err := os.ReadFile(path)
	if err != nil {
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	AppConfig = config
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
	if c, ok := config.(*Config); ok && len(c.Images.Presets) == 0 {
		c.Images.Presets = DefaultPresets()
	}
}

// DefaultPresets is the two-pass compression ladder: a high quality pass, then an aggressive one.
func DefaultPresets() []PresetConfig {
	return []PresetConfig{
		{Quality: 80, MaxDimension: 1920, MaxBytes: 1 << 20},
		{Quality: 60, MaxDimension: 1280, MaxBytes: 512 << 10},
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

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
		case reflect.Int64:
			if field.Type() == durationType {
				if val, err := time.ParseDuration(defaultValue); err == nil {
					field.SetInt(int64(val))
				}
			} else if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
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

// Retention returns the draft retention window for a form type name.
func (c DraftsConfig) Retention(form string) time.Duration {
	if form == "quick" {
		return c.QuickRetention
	}
	return c.FullRetention
}
