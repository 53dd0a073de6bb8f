package enjin

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the on-disk SDK configuration. Secrets kept in the file
// are the app credential exchange inputs, never access tokens.
type Settings struct {
	BaseURL     string `yaml:"base_url"`
	AppID       int    `yaml:"app_id"`
	AppSecret   string `yaml:"app_secret"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`
	CallbackTTL string `yaml:"callback_ttl"`
}

// LoadSettings reads a YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("enjin: read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("enjin: parse settings %s: %w", path, err)
	}
	if s.BaseURL == "" {
		return nil, fmt.Errorf("enjin: settings %s: base_url is required", path)
	}
	if s.AppID <= 0 {
		return nil, fmt.Errorf("enjin: settings %s: app_id is required", path)
	}
	return &s, nil
}

// Config converts the settings into a client Config.
func (s *Settings) Config() Config {
	cfg := Config{
		BaseURL: s.BaseURL,
		AppID:   s.AppID,
		Debug:   s.Debug,
	}
	if s.CallbackTTL != "" {
		if ttl, err := time.ParseDuration(s.CallbackTTL); err == nil {
			cfg.CallbackTTL = ttl
		}
	}
	return cfg
}
