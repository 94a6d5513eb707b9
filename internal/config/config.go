// Package config provides configuration management for cyberbot.
//
// Values come from an optional YAML file and the environment. Vendor
// credentials are deliberately not required at load time: the server starts
// without them and each request checks what it needs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the cyberbot server.
type Config struct {
	// ServerAddr is the address the HTTP server listens on (e.g., ":7080").
	ServerAddr string

	// DataDir is the directory for persistent data (SQLite DB, etc.).
	DataDir string

	// DatabasePath is the full path to the turn history database.
	DatabasePath string

	// HistoryEnabled turns the turn history store on or off.
	HistoryEnabled bool

	LogLevel  string
	LogFormat string

	OpenAI     OpenAI
	SonarCloud SonarCloud
	PageSpeed  PageSpeed
	Repos      Repos

	// GitHubToken enables canonical URL checks for live repository listing.
	GitHubToken string

	// Slack integration (optional -- Socket Mode).
	SlackBotToken string
	SlackAppToken string

	// Telegram integration (optional -- long polling).
	TelegramBotToken string
}

// OpenAI configures the hosted assistant.
type OpenAI struct {
	AssistantID  string
	APIKey       string
	Organization string
	BaseURL      string

	// PollInterval and MaxPolls bound a single conversational turn.
	PollInterval time.Duration
	MaxPolls     int

	// AuditTool additionally exposes the Lighthouse audit as a function.
	AuditTool bool
}

// SonarCloud configures the code-quality vendor.
type SonarCloud struct {
	Token        string
	Organization string
	BaseURL      string
}

// PageSpeed configures the web-performance vendor.
type PageSpeed struct {
	APIKey  string
	BaseURL string

	// RequestsPerMinute throttles outbound calls. Zero disables the limit.
	RequestsPerMinute int
}

// Repos locates the static repository configuration file.
type Repos struct {
	PrimaryPath  string
	FallbackPath string
}

// Load builds a Config from the environment and, when configFile is set or a
// cyberbot.yaml is found in the working or home directory, from that file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cyberbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	dataDir := v.GetString("data_dir")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	pageSpeedKey := v.GetString("pagespeed.api_key")
	if pageSpeedKey == "" {
		pageSpeedKey = v.GetString("pagespeed.google_api_key")
	}

	cfg := &Config{
		ServerAddr:     v.GetString("addr"),
		DataDir:        dataDir,
		DatabasePath:   filepath.Join(dataDir, "cyberbot.db"),
		HistoryEnabled: v.GetBool("history.enabled"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
		OpenAI: OpenAI{
			AssistantID:  v.GetString("openai.assistant_id"),
			APIKey:       v.GetString("openai.api_key"),
			Organization: v.GetString("openai.organization"),
			BaseURL:      v.GetString("openai.base_url"),
			PollInterval: v.GetDuration("openai.poll_interval"),
			MaxPolls:     v.GetInt("openai.max_polls"),
			AuditTool:    v.GetBool("openai.audit_tool"),
		},
		SonarCloud: SonarCloud{
			Token:        v.GetString("sonarcloud.token"),
			Organization: v.GetString("sonarcloud.organization"),
			BaseURL:      v.GetString("sonarcloud.base_url"),
		},
		PageSpeed: PageSpeed{
			APIKey:            pageSpeedKey,
			BaseURL:           v.GetString("pagespeed.base_url"),
			RequestsPerMinute: v.GetInt("pagespeed.requests_per_minute"),
		},
		Repos: Repos{
			PrimaryPath:  v.GetString("repos.primary_path"),
			FallbackPath: v.GetString("repos.fallback_path"),
		},
		GitHubToken:      v.GetString("github.token"),
		SlackBotToken:    v.GetString("slack.bot_token"),
		SlackAppToken:    v.GetString("slack.app_token"),
		TelegramBotToken: v.GetString("telegram.bot_token"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":7080")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("history.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("openai.poll_interval", time.Second)
	v.SetDefault("openai.max_polls", 30)
	v.SetDefault("sonarcloud.base_url", "https://sonarcloud.io/api")
	v.SetDefault("pagespeed.base_url", "https://www.googleapis.com/pagespeedonline/v5/runPagespeed")
	v.SetDefault("pagespeed.requests_per_minute", 60)
	v.SetDefault("repos.primary_path", filepath.Join("public", "config", "sonar-repos.json"))
	v.SetDefault("repos.fallback_path", filepath.Join("config", "sonar-repos.json"))
}

// bindEnv maps config keys to the environment. Vendor credentials keep their
// conventional names; everything else lives under the CYBERBOT_ prefix.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CYBERBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := map[string]string{
		"openai.assistant_id":      "OPENAI_ASSISTANT_ID",
		"openai.api_key":           "OPENAI_API_KEY",
		"openai.organization":      "OPENAI_ORGANIZATION",
		"openai.base_url":          "OPENAI_BASE_URL",
		"sonarcloud.token":         "SONARCLOUD_TOKEN",
		"sonarcloud.organization":  "SONARCLOUD_ORGANIZATION",
		"pagespeed.api_key":        "PAGESPEED_API_KEY",
		"pagespeed.google_api_key": "GOOGLE_API_KEY",
		"github.token":             "GITHUB_TOKEN",
		"slack.bot_token":          "SLACK_BOT_TOKEN",
		"slack.app_token":          "SLACK_APP_TOKEN",
		"telegram.bot_token":       "TELEGRAM_BOT_TOKEN",
	}
	for key, env := range explicit {
		_ = v.BindEnv(key, env)
	}
}

// Validate checks values that would make the server misbehave rather than
// merely run without a feature.
func (c *Config) Validate() error {
	if c.OpenAI.PollInterval < 0 {
		return fmt.Errorf("openai.poll_interval must not be negative")
	}
	if c.OpenAI.MaxPolls < 1 {
		return fmt.Errorf("openai.max_polls must be at least 1")
	}
	if c.PageSpeed.RequestsPerMinute < 0 {
		return fmt.Errorf("pagespeed.requests_per_minute must not be negative")
	}
	return nil
}

// AssistantConfigured reports whether chat turns can be served.
func (c *Config) AssistantConfigured() bool {
	return c.OpenAI.AssistantID != "" && c.OpenAI.APIKey != ""
}

// SonarConfigured reports whether code-quality analysis can be served.
func (c *Config) SonarConfigured() bool {
	return c.SonarCloud.Token != "" && c.SonarCloud.Organization != ""
}

// SlackEnabled returns true if Slack Socket Mode is configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

// TelegramEnabled returns true if the Telegram bot is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cyberbot"
	}
	return filepath.Join(home, ".cyberbot")
}
