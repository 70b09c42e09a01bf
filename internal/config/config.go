package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings shared by the client and the proxy.
type Config struct {
	APIBase       string
	UploadURL     string
	UploadPreset  string
	CachePath     string
	LogDir        string
	Fallback      string
	ProxyListen   string
	ProxyUpstream string
}

const (
	defaultConfigPath    = "~/.config/dungeon/config.toml"
	defaultAPIBase       = "http://127.0.0.1:8787/api/characters"
	defaultCachePath     = "~/.local/share/dungeon/cache.db"
	defaultLogDir        = "~/.local/share/dungeon/logs"
	defaultFallback      = "cache"
	defaultProxyListen   = "127.0.0.1:8787"
	defaultProxyUpstream = "https://basic-api-wiki-hvdo.vercel.app/api/characters"

	// EnvPrefix namespaces the environment overrides.
	EnvPrefix = "DUNGEON_"
)

type fileConfig struct {
	APIBase       string `toml:"api_base"`
	UploadURL     string `toml:"cloudinary_upload_url"`
	UploadPreset  string `toml:"cloudinary_upload_preset"`
	CachePath     string `toml:"cache_path"`
	LogDir        string `toml:"log_dir"`
	Fallback      string `toml:"fallback"`
	ProxyListen   string `toml:"proxy_listen"`
	ProxyUpstream string `toml:"proxy_upstream"`
}

type envConfig struct {
	APIBase       string `env:"CHAR_API"`
	UploadURL     string `env:"CLOUDINARY_UPLOAD_URL"`
	UploadPreset  string `env:"CLOUDINARY_UPLOAD_PRESET"`
	CachePath     string `env:"CACHE_PATH"`
	LogDir        string `env:"LOG_DIR"`
	Fallback      string `env:"FALLBACK"`
	ProxyListen   string `env:"PROXY_LISTEN"`
	ProxyUpstream string `env:"PROXY_UPSTREAM"`
}

// Default returns the built-in configuration with paths expanded.
func Default() Config {
	return Config{
		APIBase:       defaultAPIBase,
		CachePath:     mustExpand(defaultCachePath),
		LogDir:        mustExpand(defaultLogDir),
		Fallback:      defaultFallback,
		ProxyListen:   defaultProxyListen,
		ProxyUpstream: defaultProxyUpstream,
	}
}

// Load reads the TOML file at path (the default location when empty),
// applies DUNGEON_* environment overrides and fills remaining gaps with
// defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	var overrides envConfig
	if err := env.ParseWithOptions(&overrides, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		APIBase:       pick(overrides.APIBase, raw.APIBase, defaultAPIBase),
		UploadURL:     pick(overrides.UploadURL, raw.UploadURL, ""),
		UploadPreset:  pick(overrides.UploadPreset, raw.UploadPreset, ""),
		CachePath:     mustExpand(pick(overrides.CachePath, raw.CachePath, defaultCachePath)),
		LogDir:        mustExpand(pick(overrides.LogDir, raw.LogDir, defaultLogDir)),
		Fallback:      strings.ToLower(pick(overrides.Fallback, raw.Fallback, defaultFallback)),
		ProxyListen:   pick(overrides.ProxyListen, raw.ProxyListen, defaultProxyListen),
		ProxyUpstream: pick(overrides.ProxyUpstream, raw.ProxyUpstream, defaultProxyUpstream),
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return cfg, nil
}

// UploadEnabled reports whether both upload settings are present.
func (c Config) UploadEnabled() bool {
	return strings.TrimSpace(c.UploadURL) != "" && strings.TrimSpace(c.UploadPreset) != ""
}

// LogPath returns the client's log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/dungeon.log")
	}
	return filepath.Join(c.LogDir, "dungeon.log")
}

// pick returns the first non-blank value, trimmed.
func pick(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
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
