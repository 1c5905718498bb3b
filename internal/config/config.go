package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Mail     MailConfig     `mapstructure:"mail" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	Scraper  ScraperConfig  `mapstructure:"scraper" validate:"required"`
	Schedule ScheduleConfig `mapstructure:"schedule" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// PublicURL is the externally reachable base URL, used for self-ping and
	// links embedded in emails.
	PublicURL string `mapstructure:"public_url" validate:"required,url"`
	// MaxUploadMB bounds the résumé upload size.
	MaxUploadMB int `mapstructure:"max_upload_mb" validate:"required,gt=0,lte=50"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// AuthConfig contains the signing settings for unsubscribe tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// UnsubscribeTokenLifetimeHours is how long an unsubscribe link stays valid.
	UnsubscribeTokenLifetimeHours int `mapstructure:"unsubscribe_token_lifetime_hours" validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey   string `mapstructure:"gemini_api_key" validate:"required"`
	GeminiModel    string `mapstructure:"gemini_model" validate:"required"`
	EmbeddingModel string `mapstructure:"embedding_model" validate:"required"`
	// EmbeddingDimensions must match the vector column width.
	EmbeddingDimensions int `mapstructure:"embedding_dimensions" validate:"required,gt=0"`

	// GroqAPIKey is optional; without it only Gemini is used.
	GroqAPIKey  string   `mapstructure:"groq_api_key"`
	GroqBaseURL string   `mapstructure:"groq_base_url" validate:"required,url"`
	GroqModels  []string `mapstructure:"groq_models" validate:"required,min=1,dive,required"`
	// GroqModelBudget is the number of requests each Groq model serves before
	// the pool rotates to the next one.
	GroqModelBudget int `mapstructure:"groq_model_budget" validate:"required,gt=0"`

	// Calls per minute admitted for each provider.
	CallsPerMinute int `mapstructure:"calls_per_minute" validate:"required,gt=0"`
	// ExtractionsPerMinute bounds job/scholarship extraction calls.
	ExtractionsPerMinute int `mapstructure:"extractions_per_minute" validate:"required,gt=0"`
	// Embedding quotas.
	EmbeddingsPerMinute int `mapstructure:"embeddings_per_minute" validate:"required,gt=0"`
	EmbeddingsPerMonth  int `mapstructure:"embeddings_per_month" validate:"required,gt=0"`

	MaxRetries            int `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds     int `mapstructure:"retry_delay_seconds" validate:"required,gte=1,lte=60"`
	RateLimitPauseSeconds int `mapstructure:"rate_limit_pause_seconds" validate:"required,gte=1,lte=600"`
}

// MailConfig contains SMTP relay settings.
type MailConfig struct {
	Host     string `mapstructure:"host" validate:"required,hostname"`
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	From     string `mapstructure:"from" validate:"required,email"`
	// BCCBatchSize is the number of recipients per scholarship digest.
	BCCBatchSize int `mapstructure:"bcc_batch_size" validate:"required,gt=0"`
}

// QueueConfig contains task queue settings.
type QueueConfig struct {
	// DBBatchSize is the flush threshold of the database queue.
	DBBatchSize int `mapstructure:"db_batch_size" validate:"required,gt=0"`
	// EmailBatchSize is the flush threshold of the email queue.
	EmailBatchSize int `mapstructure:"email_batch_size" validate:"required,gt=0"`
	// Capacity bounds each queue; zero means unbounded.
	Capacity int `mapstructure:"capacity" validate:"gte=0"`
	// ResultWaitSeconds bounds how long a producer waits on the correlator.
	ResultWaitSeconds int `mapstructure:"result_wait_seconds" validate:"required,gt=0"`
	// ExtractionBatchSize is the number of listings extracted per LLM round.
	ExtractionBatchSize int `mapstructure:"extraction_batch_size" validate:"required,gt=0"`
}

// ScraperConfig contains scraping settings.
type ScraperConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Concurrency       int     `mapstructure:"concurrency" validate:"required,gt=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	UserAgent         string  `mapstructure:"user_agent" validate:"required"`
	// JobSearchURL is a URL template; {query} and {location} are substituted.
	JobSearchURL string `mapstructure:"job_search_url" validate:"required"`
	// MaxListings caps the listings fetched per search.
	MaxListings int `mapstructure:"max_listings" validate:"required,gt=0"`

	// CSS selectors applied to the job search result page and job pages.
	JobItemSelector  string `mapstructure:"job_item_selector" validate:"required"`
	JobTitleSelector string `mapstructure:"job_title_selector"`
	JobLinkSelector  string `mapstructure:"job_link_selector"`
	JobBodySelector  string `mapstructure:"job_body_selector"`
}

// ScheduleConfig contains background schedule settings.
type ScheduleConfig struct {
	JobDigestCron        string `mapstructure:"job_digest_cron" validate:"required"`
	ScholarshipCron      string `mapstructure:"scholarship_cron" validate:"required"`
	SelfPingIntervalSecs int    `mapstructure:"self_ping_interval_seconds" validate:"gte=0"`
}
