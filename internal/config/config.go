package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/spatial"
)

// Dataset and heat source kinds
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
	HeatGrid     = "grid"
	HeatFeatures = "features"
	HeatDisabled = "none"

	// BundledHeatSource selects the feature collection compiled into the binary
	BundledHeatSource = "bundled"
)

// Config 应用配置
type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	JWTSecret string `yaml:"jwt_secret"`
	LogLevel  string `yaml:"log_level"`

	DatasetSource string `yaml:"dataset_source"` // json or sqlite
	DatasetPath   string `yaml:"dataset_path"`
	HeatKind      string `yaml:"heat_kind"`   // grid, features or none
	HeatSource    string `yaml:"heat_source"` // path, URL or "bundled"
	AssetsDir     string `yaml:"assets_dir"`
	IconBase      string `yaml:"icon_base"`

	Tiles  mapsurface.TileLayer `yaml:"tiles"`
	Center spatial.Point        `yaml:"center"`

	SessionTTL   time.Duration `yaml:"session_ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	RateLimit    int           `yaml:"rate_limit"` // requests per minute per IP
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:          ":8080",
		DBPath:        "./data/shelters.db",
		JWTSecret:     "your-secret-key-change-in-production",
		LogLevel:      "info",
		DatasetSource: SourceJSON,
		DatasetPath:   "./assets/data/shelters.json",
		HeatKind:      HeatGrid,
		HeatSource:    "./assets/data/heat.json",
		AssetsDir:     "./assets",
		IconBase:      "/assets/icons",
		Tiles: mapsurface.TileLayer{
			URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			MaxZoom:     18,
			Attribution: `&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>`,
		},
		Center:       spatial.Point{Lat: 31.4, Lon: 34.4},
		SessionTTL:   2 * time.Hour,
		FetchTimeout: 15 * time.Second,
		RateLimit:    300,
	}
}

// Load 加载配置: defaults, then the YAML file (if any), then .env, then the environment
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.DatasetSource, "DATASET_SOURCE")
	setString(&c.DatasetPath, "DATASET_PATH")
	setString(&c.HeatKind, "HEAT_KIND")
	setString(&c.HeatSource, "HEAT_SOURCE")
	setString(&c.AssetsDir, "ASSETS_DIR")
	setString(&c.IconBase, "ICON_BASE")
	setString(&c.Tiles.URLTemplate, "TILE_URL")

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		c.SessionTTL = d
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FETCH_TIMEOUT %q: %w", v, err)
		}
		c.FetchTimeout = d
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		c.RateLimit = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the settings that would otherwise fail late
func (c *Config) Validate() error {
	switch c.DatasetSource {
	case SourceJSON, SourceSQLite:
	default:
		return fmt.Errorf("unknown dataset source %q", c.DatasetSource)
	}
	switch c.HeatKind {
	case HeatGrid, HeatFeatures, HeatDisabled:
	default:
		return fmt.Errorf("unknown heat kind %q", c.HeatKind)
	}
	if c.Tiles.URLTemplate == "" {
		return fmt.Errorf("tile url template is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}
