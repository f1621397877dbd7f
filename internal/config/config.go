// Package config provides configuration types and loading for rankrelay.
package config

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration struct.
// Top-level groups: WhatsApp, Gateway, Ranking, Log.
type Config struct {
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Gateway  GatewayConfig  `json:"gateway"`
	Ranking  RankingConfig  `json:"ranking"`
	Log      LogConfig      `json:"log"`
}

// ---------------------------------------------------------------------------
// WhatsApp – chat session
// ---------------------------------------------------------------------------

// WhatsAppConfig configures the WhatsApp channel.
type WhatsAppConfig struct {
	// GroupID is the default outbound group and the only chat whose
	// commands are answered. Empty means "answer everywhere, no default".
	GroupID     string `json:"groupId" envconfig:"GROUP_ID"`
	SessionPath string `json:"sessionPath" envconfig:"SESSION_PATH"`
	DeviceName  string `json:"deviceName" envconfig:"DEVICE_NAME"`
}

// SessionDBPath is the SQLite file holding the device store.
func (c WhatsAppConfig) SessionDBPath() string {
	return filepath.Join(c.SessionPath, "session.db")
}

// QRImagePath is where the pairing QR code is written as PNG.
func (c WhatsAppConfig) QRImagePath() string {
	return filepath.Join(c.SessionPath, "qr.png")
}

// ---------------------------------------------------------------------------
// Gateway – HTTP control surface
// ---------------------------------------------------------------------------

// GatewayConfig contains control surface settings.
type GatewayConfig struct {
	Host      string `json:"host" envconfig:"API_HOST"`
	Port      int    `json:"port" envconfig:"API_PORT"`
	AuthToken string `json:"authToken" envconfig:"API_AUTH_TOKEN"`
}

// Addr is the listen address.
func (c GatewayConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BaseURL is the URL a local client uses to reach the control surface.
func (c GatewayConfig) BaseURL() string {
	host := strings.TrimSpace(c.Host)
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// ---------------------------------------------------------------------------
// Ranking – leaderboard service
// ---------------------------------------------------------------------------

// RankingConfig points at the ranking service.
type RankingConfig struct {
	BaseURL string `json:"baseUrl" envconfig:"BASE_URL"`
	// Timeout of zero leaves the HTTP client without a deadline.
	Timeout time.Duration `json:"timeout" envconfig:"TIMEOUT"`
}

// ---------------------------------------------------------------------------
// Log
// ---------------------------------------------------------------------------

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level" envconfig:"LEVEL"`
	Format string `json:"format" envconfig:"FORMAT"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		WhatsApp: WhatsAppConfig{
			SessionPath: "./.whatsapp_auth",
			DeviceName:  "Rank Relay",
		},
		Gateway: GatewayConfig{
			Port: 3000,
		},
		Ranking: RankingConfig{
			BaseURL: "http://localhost:8000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
