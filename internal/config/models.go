package config

import (
	"fmt"
	"time"

	"github.com/mikey/email-classifier/internal/vectorizer"
)

// ServerConfig represents the HTTP gateway configuration
type ServerConfig struct {
	ListenAddress   string
	BatchWorkers    int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// RegistryConfig selects where model artifacts are stored
type RegistryConfig struct {
	Type       string
	ModelsDir  string
	SQLitePath string
	MySQLDSN   string
}

// TrainingConfig represents the training run settings
type TrainingConfig struct {
	Seed     int64
	TestSize float64
	Alpha    float64
}

// CacheConfig represents the prediction cache settings
type CacheConfig struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

// SummaryConfig selects the summary provider
type SummaryConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// HeaderNames are the headers the SMTP filter adds
type HeaderNames struct {
	Category           string
	Priority           string
	CategoryConfidence string
	PriorityConfidence string
	ModelVersion       string
	Error              string
}

// SMTPConfig represents the SMTP tagging filter configuration
type SMTPConfig struct {
	Enabled         bool
	ListenAddress   string
	Domain          string
	RelayAddress    string
	RelayPort       int
	RelayEnabled    bool
	MaxMessageBytes int64
	Headers         HeaderNames
}

// GetServer returns the HTTP gateway configuration
func (c *Config) GetServer() (ServerConfig, error) {
	read, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	write, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdown, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		BatchWorkers:    c.GetInt("server.batch_workers"),
		ReadTimeout:     read,
		WriteTimeout:    write,
		ShutdownTimeout: shutdown,
		CORSOrigins:     c.GetStringSlice("server.cors_origins"),
	}, nil
}

// GetRegistry returns the model registry configuration
func (c *Config) GetRegistry() RegistryConfig {
	return RegistryConfig{
		Type:       c.GetString("registry.type"),
		ModelsDir:  c.GetString("registry.models_dir"),
		SQLitePath: c.GetString("registry.sqlite_path"),
		MySQLDSN:   c.GetString("registry.mysql_dsn"),
	}
}

// GetTraining returns the training configuration
func (c *Config) GetTraining() TrainingConfig {
	return TrainingConfig{
		Seed:     c.GetInt64("training.seed"),
		TestSize: c.GetFloat64("training.test_size"),
		Alpha:    c.GetFloat64("training.alpha"),
	}
}

// GetVectorizer returns the vectorizer configuration, including any
// stop words from vectorizer.stop_words_file
func (c *Config) GetVectorizer() (vectorizer.Config, error) {
	cfg := vectorizer.Config{
		MaxFeatures: c.GetInt("vectorizer.max_features"),
		NGramMin:    c.GetInt("vectorizer.ngram_min"),
		NGramMax:    c.GetInt("vectorizer.ngram_max"),
		MinDF:       c.GetInt("vectorizer.min_df"),
		MaxDF:       c.GetFloat64("vectorizer.max_df"),
		StopWords:   vectorizer.EnglishStopWords(),
	}

	if path := c.GetString("vectorizer.stop_words_file"); path != "" {
		extra, err := vectorizer.LoadStoplist(path)
		if err != nil {
			return vectorizer.Config{}, err
		}
		cfg.StopWords = append(cfg.StopWords, extra.Terms...)
	}

	if err := cfg.Validate(); err != nil {
		return vectorizer.Config{}, fmt.Errorf("invalid vectorizer settings: %w", err)
	}
	return cfg, nil
}

// GetCache returns the prediction cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled: c.GetBool("cache.enabled"),
		Size:    c.GetInt("cache.size"),
		TTL:     ttl,
	}, nil
}

// GetSummary returns the summary provider configuration
func (c *Config) GetSummary() SummaryConfig {
	return SummaryConfig{
		Provider: c.GetString("summary.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetSMTP returns the SMTP tagging filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:         c.GetBool("smtp.enabled"),
		ListenAddress:   c.GetString("smtp.listen_address"),
		Domain:          c.GetString("smtp.domain"),
		RelayAddress:    c.GetString("smtp.relay_address"),
		RelayPort:       c.GetInt("smtp.relay_port"),
		RelayEnabled:    c.GetBool("smtp.relay_enabled"),
		MaxMessageBytes: c.GetInt64("smtp.max_message_bytes"),
		Headers: HeaderNames{
			Category:           c.GetString("smtp.headers.category"),
			Priority:           c.GetString("smtp.headers.priority"),
			CategoryConfidence: c.GetString("smtp.headers.category_confidence"),
			PriorityConfidence: c.GetString("smtp.headers.priority_confidence"),
			ModelVersion:       c.GetString("smtp.headers.model_version"),
			Error:              c.GetString("smtp.headers.error"),
		},
	}
}
