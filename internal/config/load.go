package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "JOBSCOUT"

// setDefaults registers every configuration key so that environment
// variables are picked up by Unmarshal even when no config file sets them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.max_upload_mb", 5)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.unsubscribe_token_lifetime_hours", 24*30)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.gemini_model", "gemini-2.0-flash")
	v.SetDefault("llm.embedding_model", "text-embedding-004")
	v.SetDefault("llm.embedding_dimensions", 1024)
	v.SetDefault("llm.groq_api_key", "")
	v.SetDefault("llm.groq_base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.groq_models", []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant", "gemma2-9b-it"})
	v.SetDefault("llm.groq_model_budget", 1000)
	v.SetDefault("llm.calls_per_minute", 3)
	v.SetDefault("llm.extractions_per_minute", 15)
	v.SetDefault("llm.embeddings_per_minute", 50)
	v.SetDefault("llm.embeddings_per_month", 1000)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.rate_limit_pause_seconds", 60)

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 465)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.bcc_batch_size", 10)

	v.SetDefault("queue.db_batch_size", 1000)
	v.SetDefault("queue.email_batch_size", 50)
	v.SetDefault("queue.capacity", 0)
	v.SetDefault("queue.result_wait_seconds", 600)
	v.SetDefault("queue.extraction_batch_size", 10)

	v.SetDefault("scraper.requests_per_second", 3)
	v.SetDefault("scraper.concurrency", 3)
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; jobscout/1.0)")
	v.SetDefault("scraper.job_search_url", "https://www.indeed.com/jobs?q={query}&l={location}")
	v.SetDefault("scraper.max_listings", 25)
	v.SetDefault("scraper.job_item_selector", "div.job_seen_beacon")
	v.SetDefault("scraper.job_title_selector", "h2.jobTitle")
	v.SetDefault("scraper.job_link_selector", "h2.jobTitle a")
	v.SetDefault("scraper.job_body_selector", "#jobDescriptionText")

	v.SetDefault("schedule.job_digest_cron", "0 7 * * *")
	v.SetDefault("schedule.scholarship_cron", "0 */6 * * *")
	v.SetDefault("schedule.self_ping_interval_seconds", 180)
}

// Load configuration from a .env file, environment variables and optionally
// a config file. Environment variables take precedence over values from
// config files. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is the normal case in deployed environments.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
