package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Load loads the configuration from env files and environment variables.
// Priority: process environment > env files > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	LoadEnvFileCandidates()

	groups := []struct {
		prefix string
		target any
	}{
		{"WHATSAPP", &cfg.WhatsApp},
		{"WHATSAPP", &cfg.Gateway},
		{"RANKING", &cfg.Ranking},
		{"LOG", &cfg.Log},
	}
	for _, g := range groups {
		if err := envconfig.Process(g.prefix, g.target); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg.WhatsApp.GroupID = strings.TrimSpace(cfg.WhatsApp.GroupID)
	cfg.Ranking.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Ranking.BaseURL), "/")
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	expandHome(&cfg.WhatsApp.SessionPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		return fmt.Errorf("config: WHATSAPP_API_PORT out of range: %d", c.Gateway.Port)
	}
	u, err := url.Parse(c.Ranking.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: invalid RANKING_BASE_URL %q", c.Ranking.BaseURL)
	}
	if c.Ranking.Timeout < 0 {
		return fmt.Errorf("config: negative RANKING_TIMEOUT %s", c.Ranking.Timeout)
	}
	if strings.TrimSpace(c.WhatsApp.SessionPath) == "" {
		return fmt.Errorf("config: WHATSAPP_SESSION_PATH must not be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown LOG_FORMAT %q", c.Log.Format)
	}
	return nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: unknown LOG_LEVEL %q", s)
	}
	return lvl, nil
}

func expandHome(p *string) {
	if !strings.HasPrefix(*p, "~") {
		return
	}
	if home, err := os.UserHomeDir(); err == nil {
		*p = filepath.Join(home, (*p)[1:])
	}
}
