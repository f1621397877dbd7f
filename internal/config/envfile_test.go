package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFileCandidatesRespectsExistingValues(t *testing.T) {
	isolateEnv(t)
	envPath := filepath.Join(t.TempDir(), "relay.env")
	content := "# comment\nexport WHATSAPP_GROUP_ID=from-file@g.us\nWHATSAPP_API_PORT=\"3200\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("RANKRELAY_ENV_FILE", envPath)
	t.Setenv("WHATSAPP_API_PORT", "3300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.WhatsApp.GroupID != "from-file@g.us" {
		t.Fatalf("expected group id from env file, got %q", cfg.WhatsApp.GroupID)
	}
	if cfg.Gateway.Port != 3300 {
		t.Fatalf("expected process env to win, got %d", cfg.Gateway.Port)
	}
}

func TestLoadUsesHomeEnvFile(t *testing.T) {
	home := isolateEnv(t)
	envDir := filepath.Join(home, ".config", "rankrelay")
	if err := os.MkdirAll(envDir, 0o755); err != nil {
		t.Fatalf("mkdir env dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(envDir, "env"), []byte("RANKING_BASE_URL=http://10.0.0.5:8000\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Ranking.BaseURL != "http://10.0.0.5:8000" {
		t.Fatalf("expected ranking url from home env file, got %q", cfg.Ranking.BaseURL)
	}
}

func TestEnvFileCandidatesDeduplicates(t *testing.T) {
	isolateEnv(t)
	t.Setenv("RANKRELAY_ENV_FILE", ".env")

	got := envFileCandidates()
	seen := map[string]bool{}
	for _, p := range got {
		if seen[p] {
			t.Fatalf("duplicate candidate %q in %v", p, got)
		}
		seen[p] = true
	}
}
