package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GitHub   GitHubConfig
	Report   ReportConfig
	Telegram TelegramConfig
	Zulip    ZulipConfig
	AppEnv   string
}

type GitHubConfig struct {
	Token                 string
	Org                   string
	Owner                 string
	Repositories          []string // empty means list them from the org/owner
	ProjectNumber         int
	IncidentProjectNumber int
	Columns               []string
}

type ReportConfig struct {
	DaysBack        int
	OutputDir       string
	FilenamePrefix  string
	Timezone        string
	MaxCommitsShown int
	UsernameMap     map[string]string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
}

type ZulipConfig struct {
	Site   string
	Email  string
	APIKey string
	Stream string
	Topic  string
}

// LoadFromEnv reads configuration from the environment, loading a .env file
// first when one exists (local runs; CI sets variables directly).
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:                 os.Getenv("GITHUB_TOKEN"),
			Org:                   os.Getenv("GITHUB_ORG"),
			Owner:                 os.Getenv("GITHUB_OWNER"),
			Repositories:          parseCommaList(os.Getenv("REPOSITORIES")),
			ProjectNumber:         getEnvInt("GITHUB_PROJECT_NUMBER", 0),
			IncidentProjectNumber: getEnvInt("GITHUB_INCIDENT_PROJECT_NUMBER", 0),
			Columns:               parseCommaList(os.Getenv("GITHUB_COLUMNS")),
		},
		Report: ReportConfig{
			DaysBack:        getEnvInt("REPORT_DAYS_BACK", 1),
			OutputDir:       getEnvOrDefault("OUTPUT_DIR", "output"),
			FilenamePrefix:  getEnvOrDefault("REPORT_FILENAME_PREFIX", "status_report"),
			Timezone:        getEnvOrDefault("REPORT_TZ", "Europe/Moscow"),
			MaxCommitsShown: getEnvInt("MAX_COMMITS_SHOWN", 10),
			UsernameMap:     parsePairs(os.Getenv("USERNAME_MAP")),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
		Zulip: ZulipConfig{
			Site:   os.Getenv("ZULIP_SITE"),
			Email:  os.Getenv("ZULIP_EMAIL"),
			APIKey: os.Getenv("ZULIP_API_KEY"),
			Stream: getEnvOrDefault("ZULIP_STREAM", "status"),
			Topic:  getEnvOrDefault("ZULIP_TOPIC", "daily report"),
		},
		AppEnv: getEnvOrDefault("APP_ENV", "dev"),
	}

	return cfg, nil
}

// Validate fails before any network call when required credentials are absent.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if c.GitHub.Org == "" && c.GitHub.Owner == "" {
		return fmt.Errorf("GITHUB_ORG or GITHUB_OWNER is required")
	}
	return nil
}

// OwnerLogin returns the account commits and issues are fetched under: the
// organization when set, the individual owner otherwise.
func (c *GitHubConfig) OwnerLogin() string {
	if c.Org != "" {
		return c.Org
	}
	return c.Owner
}

func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

func (c *ZulipConfig) Enabled() bool {
	return c.Site != "" && c.Email != "" && c.APIKey != ""
}

func parseCommaList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePairs parses "login=Display Name,other=Name" into a map.
func parsePairs(value string) map[string]string {
	out := map[string]string{}
	for _, part := range parseCommaList(value) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
