package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Sources) != 6 {
		t.Fatalf("expected 6 default sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "Journal of Finance" {
		t.Fatalf("unexpected first source: %s", cfg.Sources[0].Name)
	}
	for _, src := range cfg.Sources {
		if src.Kind != SourceKindFeed {
			t.Fatalf("source %s: expected kind feed, got %q", src.Name, src.Kind)
		}
		if src.MaxItems != 50 {
			t.Fatalf("source %s: expected 50 max items, got %d", src.Name, src.MaxItems)
		}
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("unexpected driver: %s", cfg.Database.Driver)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
fetch:
  maxItems: 20
  timeout: 5s
keywords:
  allow: ["factor zoo"]
judge:
  backend: http
  endpoint: http://judge.local/classify
  minInterval: 500ms
sources:
  - name: X
    url: https://x.example/rss
  - name: Y
    url: https://y.example/issues
    kind: listing
    maxItems: 5
    options:
      item: li.article
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Fetch.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.UserAgent != "JournalDigest/1.0" {
		t.Fatalf("default user agent lost: %q", cfg.Fetch.UserAgent)
	}
	if len(cfg.Keywords.Allow) != 1 || cfg.Keywords.Allow[0] != "factor zoo" {
		t.Fatalf("unexpected allow list: %v", cfg.Keywords.Allow)
	}
	if cfg.Judge.MinInterval != 500*time.Millisecond {
		t.Fatalf("unexpected min interval: %v", cfg.Judge.MinInterval)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "X" || cfg.Sources[0].MaxItems != 20 || cfg.Sources[0].Kind != SourceKindFeed {
		t.Fatalf("unexpected first source: %+v", cfg.Sources[0])
	}
	if cfg.Sources[1].MaxItems != 5 || cfg.Sources[1].Options["item"] != "li.article" {
		t.Fatalf("unexpected second source: %+v", cfg.Sources[1])
	}
}

func TestLoadZeroMaxItemsKeepsBound(t *testing.T) {
	path := writeConfig(t, `
fetch:
  maxItems: 0
sources:
  - name: X
    url: https://x.example/rss
  - name: Y
    url: https://y.example/rss
    maxItems: -3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Fetch.MaxItems != defaultMaxItems {
		t.Fatalf("expected fetch cap %d, got %d", defaultMaxItems, cfg.Fetch.MaxItems)
	}
	for _, src := range cfg.Sources {
		if src.MaxItems != defaultMaxItems {
			t.Fatalf("source %s: expected cap %d, got %d", src.Name, defaultMaxItems, src.MaxItems)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(senderEmailEnv, "bot@example.org")
	t.Setenv(senderPasswordEnv, "secret")
	t.Setenv(receiverEmailEnv, "me@example.org")
	t.Setenv(smtpPortEnv, "587")
	t.Setenv(telegramChatIDEnv, "-100123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	smtp := cfg.Delivery.SMTP
	if smtp.From != "bot@example.org" || smtp.Username != "bot@example.org" {
		t.Fatalf("sender not applied: %+v", smtp)
	}
	if smtp.Password != "secret" || smtp.To != "me@example.org" || smtp.Port != 587 {
		t.Fatalf("smtp overrides not applied: %+v", smtp)
	}
	if cfg.Delivery.Telegram.ChatID != -100123 {
		t.Fatalf("unexpected chat id: %d", cfg.Delivery.Telegram.ChatID)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(smtpPortEnv, "not-a-port")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed %s", smtpPortEnv)
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	path := writeConfig(t, "scheduler:\n  timezone: Mars/Olympus\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected timezone error")
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.applyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error without sender credentials")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), senderEmailEnv) {
		t.Fatalf("error should name the missing variable: %v", err)
	}
}

func TestValidateSources(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Delivery.Transport = TransportTelegram
	cfg.Delivery.Telegram = TelegramConfig{BotToken: "t", ChatID: 1}
	cfg.Sources = []SourceConfig{
		{Name: "A", URL: "https://a", Kind: SourceKindFeed},
		{Name: "A", URL: "", Kind: "carrier-pigeon"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"duplicate name", "url is required", "unknown kind"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidateJudgeBackend(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Delivery.Transport = TransportTelegram
	cfg.Delivery.Telegram = TelegramConfig{BotToken: "t", ChatID: 1}
	cfg.Judge.Backend = JudgeOpenAI

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}

	cfg.Judge.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
