package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything Explore reads from its config file.
type Config struct {
	PortalURL        string
	MapID            string
	CacheDir         string
	OfflineDir       string
	LogFile          string
	LogLevel         string
	ThumbnailTimeout time.Duration
	RequestTimeout   time.Duration
	MetricsAddr      string
}

const (
	defaultConfigPath       = "~/.config/explore/config.toml"
	defaultPortalURL        = "https://www.arcgis.com/"
	defaultMapID            = "3bc3179f17da44a0ac0bfdac4ad15664"
	defaultOfflineDir       = "arcgis_offline_maps"
	defaultLogName          = "explore.log"
	defaultLogLevel         = "info"
	defaultThumbnailTimeout = 10 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	appDirName              = "explore"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	cacheDir := defaultCacheDir()
	return Config{
		PortalURL:        defaultPortalURL,
		MapID:            defaultMapID,
		CacheDir:         cacheDir,
		OfflineDir:       defaultOfflineDir,
		LogFile:          filepath.Join(cacheDir, defaultLogName),
		LogLevel:         defaultLogLevel,
		ThumbnailTimeout: defaultThumbnailTimeout,
		RequestTimeout:   defaultRequestTimeout,
	}
}

// Load locates and parses the explore config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		PortalURL        string `toml:"portal_url"`
		MapID            string `toml:"map_id"`
		CacheDir         string `toml:"cache_dir"`
		OfflineDir       string `toml:"offline_dir"`
		LogFile          string `toml:"log_file"`
		LogLevel         string `toml:"log_level"`
		ThumbnailTimeout string `toml:"thumbnail_timeout"`
		RequestTimeout   string `toml:"request_timeout"`
		MetricsAddr      string `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	cfg.PortalURL = orDefault(raw.PortalURL, cfg.PortalURL)
	cfg.MapID = orDefault(raw.MapID, cfg.MapID)
	if dir := strings.TrimSpace(raw.CacheDir); dir != "" {
		cfg.CacheDir = mustExpand(dir)
		cfg.LogFile = filepath.Join(cfg.CacheDir, defaultLogName)
	}
	cfg.OfflineDir = orDefault(raw.OfflineDir, cfg.OfflineDir)
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, cfg.LogLevel))
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	if cfg.ThumbnailTimeout, err = parseDuration("thumbnail_timeout", raw.ThumbnailTimeout, cfg.ThumbnailTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, cfg.RequestTimeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// OfflineRoot returns the directory downloaded areas live in.
func (c Config) OfflineRoot() string {
	return filepath.Join(c.CacheDir, c.OfflineDir)
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse config: %s must not be negative", key)
	}
	return d, nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return mustExpand(filepath.Join("~", ".cache", appDirName))
	}
	return filepath.Join(base, appDirName)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
