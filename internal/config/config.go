/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the
// user scope. Environment variables are treated as read-only overrides at
// runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type ViewerConfig struct {
	// SettleDelayMs is the pause after a requested page turn before panels
	// and page dimensions are re-resolved.
	SettleDelayMs int `yaml:"settle_delay_ms"`
	// DitherEInk selects the dithered blit path for bistable displays.
	DitherEInk bool `yaml:"dither_eink"`
}

type DetectConfig struct {
	// BaseURL of the local panel-detection service, empty disables fetching.
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Viewer        ViewerConfig  `yaml:"viewer"`
	Detect        DetectConfig  `yaml:"detect"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Viewer:        ViewerConfig{SettleDelayMs: 300, DitherEInk: false},
		Detect:        DetectConfig{BaseURL: "", TimeoutMs: 10000},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvSettleDelayMs   = "PRV_SETTLE_DELAY_MS"
	EnvDitherEInk      = "PRV_DITHER_EINK"
	EnvDetectURL       = "PRV_DETECT_URL"
	EnvDetectTimeoutMs = "PRV_DETECT_TIMEOUT_MS"
	EnvTelemetryOptIn  = "PRV_TELEMETRY_OPT_IN"
	EnvLogLevel        = "PRV_LOG_LEVEL"
	EnvLogFormat       = "PRV_LOG_FORMAT"
	EnvLogSource       = "PRV_LOG_SOURCE"
	EnvLogFile         = "PRV_LOG_FILE"
)

// Path returns the per-user config file path.
func Path() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PanelReader")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PanelReader")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "panelreader")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. A missing or unparsable file falls back to defaults.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := Path()
	if err != nil {
		return cfg, err
	}
	if data, rerr := os.ReadFile(path); rerr == nil {
		var fileCfg AppConfig
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from file so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.Viewer.DitherEInk = src.Viewer.DitherEInk
	if src.Viewer.SettleDelayMs > 0 {
		dst.Viewer.SettleDelayMs = src.Viewer.SettleDelayMs
	}
	if strings.TrimSpace(src.Detect.BaseURL) != "" {
		dst.Detect.BaseURL = strings.TrimSpace(src.Detect.BaseURL)
	}
	if src.Detect.TimeoutMs > 0 {
		dst.Detect.TimeoutMs = src.Detect.TimeoutMs
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvSettleDelayMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Viewer.SettleDelayMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDitherEInk)); v != "" {
		cfg.Viewer.DitherEInk = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDetectURL)); v != "" {
		cfg.Detect.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDetectTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Detect.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}
