package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	defaultMaxItems = 50
	configPathEnv   = "JOURNAL_DIGEST_CONFIG"

	senderEmailEnv    = "SENDER_EMAIL"
	senderPasswordEnv = "SENDER_PASSWORD"
	receiverEmailEnv  = "RECEIVER_EMAIL"
	smtpHostEnv       = "SMTP_HOST"
	smtpPortEnv       = "SMTP_PORT"
	judgeAPIKeyEnv    = "JUDGE_API_KEY"
	judgeModelEnv     = "JUDGE_MODEL"
	judgeBaseURLEnv   = "JUDGE_BASE_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	logLevelEnv       = "LOG_LEVEL"
)

// Source kinds understood by the scanner registry.
const (
	SourceKindFeed    = "feed"
	SourceKindListing = "listing"
)

// Judge backends.
const (
	JudgeNone   = "none"
	JudgeOpenAI = "openai"
	JudgeHTTP   = "http"
)

// Delivery transports.
const (
	TransportSMTP     = "smtp"
	TransportTelegram = "telegram"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrInvalid wraps every validation failure reported by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is built once at process start and treated as read-only afterwards.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Keywords  KeywordConfig   `yaml:"keywords"`
	Judge     JudgeConfig     `yaml:"judge"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the novelty store engine.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when the daemon runs the pipeline.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FetchConfig bounds feed retrieval.
type FetchConfig struct {
	MaxItems    int           `yaml:"maxItems"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	UserAgent   string        `yaml:"userAgent"`
}

// KeywordConfig is the deterministic allow-list tier.
type KeywordConfig struct {
	Allow        []string `yaml:"allow"`
	MatchSummary bool     `yaml:"matchSummary"`
}

// JudgeConfig describes the semantic fallback.
type JudgeConfig struct {
	Backend     string        `yaml:"backend"`
	Endpoint    string        `yaml:"endpoint"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Interest    string        `yaml:"interest"`
	MinInterval time.Duration `yaml:"minInterval"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DeliveryConfig selects and configures the outbound transport.
type DeliveryConfig struct {
	Transport     string         `yaml:"transport"`
	SubjectPrefix string         `yaml:"subjectPrefix"`
	SummaryLength int            `yaml:"summaryLength"`
	Timeout       time.Duration  `yaml:"timeout"`
	SMTP          SMTPConfig     `yaml:"smtp"`
	Telegram      TelegramConfig `yaml:"telegram"`
}

// SMTPConfig holds the authenticated submission settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	// TLS is "ssl" for implicit TLS or "starttls".
	TLS string `yaml:"tls"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken    string `yaml:"botToken"`
	ChatID      int64  `yaml:"chatId"`
	APIEndpoint string `yaml:"apiEndpoint"`
}

// SourceConfig is one named journal feed.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	URL      string            `yaml:"url"`
	Kind     string            `yaml:"kind"`
	MaxItems int               `yaml:"maxItems"`
	Options  map[string]string `yaml:"options"`
}

// Load reads the YAML file at path (or the one named by JOURNAL_DIGEST_CONFIG),
// layers it over the defaults and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString := func(env string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}

	setString(senderEmailEnv, &c.Delivery.SMTP.From)
	setString(senderPasswordEnv, &c.Delivery.SMTP.Password)
	setString(receiverEmailEnv, &c.Delivery.SMTP.To)
	setString(smtpHostEnv, &c.Delivery.SMTP.Host)
	setString(judgeAPIKeyEnv, &c.Judge.APIKey)
	setString(judgeModelEnv, &c.Judge.Model)
	setString(judgeBaseURLEnv, &c.Judge.BaseURL)
	setString(telegramTokenEnv, &c.Delivery.Telegram.BotToken)
	setString(databaseDriverEnv, &c.Database.Driver)
	setString(databaseDSNEnv, &c.Database.DSN)
	setString(logLevelEnv, &c.Logging.Level)

	if v := strings.TrimSpace(os.Getenv(smtpPortEnv)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", smtpPortEnv, err)
		}
		c.Delivery.SMTP.Port = port
	}
	if v := strings.TrimSpace(os.Getenv(telegramChatIDEnv)); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", telegramChatIDEnv, err)
		}
		c.Delivery.Telegram.ChatID = id
	}

	return nil
}

// applyDefaults fills values a partial YAML file may have zeroed.
func (c *Config) applyDefaults() {
	if c.Delivery.SMTP.Username == "" {
		c.Delivery.SMTP.Username = c.Delivery.SMTP.From
	}
	if c.Judge.Backend == "" {
		c.Judge.Backend = JudgeNone
	}
	if c.Fetch.MaxItems <= 0 {
		c.Fetch.MaxItems = defaultMaxItems
	}
	for i := range c.Sources {
		if c.Sources[i].Kind == "" {
			c.Sources[i].Kind = SourceKindFeed
		}
		if c.Sources[i].MaxItems <= 0 {
			c.Sources[i].MaxItems = c.Fetch.MaxItems
		}
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("scheduler timezone %q: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

// Validate reports every problem that must stop the process before any source is polled.
func (c Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if len(c.Sources) == 0 {
		add("no sources configured")
	}
	names := map[string]bool{}
	for i, src := range c.Sources {
		switch {
		case strings.TrimSpace(src.Name) == "":
			add("sources[%d]: name is required", i)
		case names[src.Name]:
			add("sources[%d]: duplicate name %q", i, src.Name)
		}
		names[src.Name] = true
		if strings.TrimSpace(src.URL) == "" {
			add("source %q: url is required", src.Name)
		}
		if src.Kind != SourceKindFeed && src.Kind != SourceKindListing {
			add("source %q: unknown kind %q", src.Name, src.Kind)
		}
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		add("database: unknown driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		add("database: dsn is required")
	}

	switch c.Judge.Backend {
	case JudgeNone:
	case JudgeOpenAI:
		if c.Judge.APIKey == "" {
			add("judge: %s requires an api key", JudgeOpenAI)
		}
		if c.Judge.Model == "" {
			add("judge: model is required")
		}
	case JudgeHTTP:
		if c.Judge.Endpoint == "" {
			add("judge: %s requires an endpoint", JudgeHTTP)
		}
	default:
		add("judge: unknown backend %q", c.Judge.Backend)
	}

	switch c.Delivery.Transport {
	case TransportSMTP:
		s := c.Delivery.SMTP
		if s.Host == "" || s.Port <= 0 {
			add("smtp: host and port are required")
		}
		if s.From == "" || s.Password == "" {
			add("smtp: sender credentials not found (set %s and %s)", senderEmailEnv, senderPasswordEnv)
		}
		if s.To == "" {
			add("smtp: recipient is required (set %s)", receiverEmailEnv)
		}
		if s.TLS != "ssl" && s.TLS != "starttls" {
			add("smtp: tls must be ssl or starttls, got %q", s.TLS)
		}
	case TransportTelegram:
		if c.Delivery.Telegram.BotToken == "" || c.Delivery.Telegram.ChatID == 0 {
			add("telegram: bot token and chat id are required")
		}
	default:
		add("delivery: unknown transport %q", c.Delivery.Transport)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{Driver: DriverSQLite, DSN: "finance_journals.db"},
		Scheduler: SchedulerConfig{CronExpression: "0 8 * * 1", Timezone: defaultTimezone, location: tz},
		Fetch: FetchConfig{
			MaxItems:    defaultMaxItems,
			Timeout:     30 * time.Second,
			Concurrency: 1,
			UserAgent:   "JournalDigest/1.0",
		},
		Keywords: KeywordConfig{
			Allow: []string{
				"machine learning", "deep learning", "neural network",
				"artificial intelligence", "large language model", "textual analysis",
			},
			MatchSummary: true,
		},
		Judge: JudgeConfig{
			Backend:     JudgeNone,
			Model:       "gpt-4o-mini",
			Interest:    "Empirical asset pricing and applications of machine learning in finance.",
			MinInterval: 2 * time.Second,
			Timeout:     20 * time.Second,
		},
		Delivery: DeliveryConfig{
			Transport:     TransportSMTP,
			SubjectPrefix: "Journal digest",
			SummaryLength: 300,
			Timeout:       30 * time.Second,
			SMTP:          SMTPConfig{Host: "smtp.qq.com", Port: 465, TLS: "ssl"},
		},
		Sources: []SourceConfig{
			{Name: "Journal of Finance", URL: "https://onlinelibrary.wiley.com/feed/15406261/most-recent"},
			{Name: "JFE", URL: "https://www.sciencedirect.com/science/journal/0304405X/rss"},
			{Name: "RFS", URL: "https://academic.oup.com/rss/site_5378/3126.xml"},
			{Name: "JFQA", URL: "https://www.cambridge.org/core/rss/product/id/1638F6E6C5C0F911299901594F817173"},
			{Name: "Management Science", URL: "http://pubsonline.informs.org/action/showFeed?type=etoc&feed=rss&jc=mnsc"},
			{Name: "Review of Finance", URL: "https://academic.oup.com/rss/site_5409/3133.xml"},
		},
	}
}
