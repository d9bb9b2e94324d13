package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
openai:
  planner:
    base_url: https://api.openai.com/v1
    token: sk-test
    model: gpt-4.1-nano
  reply:
    base_url: https://api.openai.com/v1
    token: sk-test
    model: gpt-4.1-nano
google:
  client_id: test-client
  client_secret: test-secret
  redirect_uri: https://example.com/google/callback
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":7860" {
		t.Errorf("unexpected addr default: %q", cfg.Server.Addr)
	}
	if cfg.Google.CalendarID != "primary" {
		t.Errorf("unexpected calendar default: %q", cfg.Google.CalendarID)
	}
	if cfg.Booking.DefaultTitle != "Scheduled Meeting" {
		t.Errorf("unexpected title default: %q", cfg.Booking.DefaultTitle)
	}
	if cfg.Booking.DurationMin != 30 || cfg.Booking.HistorySize != 20 {
		t.Errorf("unexpected booking defaults: %+v", cfg.Booking)
	}
}

func TestLoadFileValidation(t *testing.T) {
	if _, err := LoadFile(writeConfig(t, "openai: {}\n")); err == nil {
		t.Fatalf("missing required fields must fail validation")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestLoadFileBadYAML(t *testing.T) {
	if _, err := LoadFile(writeConfig(t, "openai: [unclosed")); err == nil {
		t.Fatalf("malformed yaml must fail")
	}
}
