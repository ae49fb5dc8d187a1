// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	APIs       APIsConfig       `mapstructure:"apis"`
	RAG        RAGConfig        `mapstructure:"rag"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Fusion     FusionConfig     `mapstructure:"fusion"`
	Validation ValidationConfig `mapstructure:"validation"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	EventIndex string   `mapstructure:"event_index"`
	NewsIndex  string   `mapstructure:"news_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- External collaborators ---

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		BaseURL     string  `mapstructure:"base_url"`
		APIKey      string  `mapstructure:"api_key"`
		Timeout     int     `mapstructure:"timeout"` // milliseconds
		MaxRetries  int     `mapstructure:"max_retries"`
		Temperature float64 `mapstructure:"temperature"`
		MaxTokens   int     `mapstructure:"max_tokens"`
	} `mapstructure:"genai"`

	WebSearch struct {
		BaseURL      string  `mapstructure:"base_url"`
		APIKey       string  `mapstructure:"api_key"`
		EngineID     string  `mapstructure:"engine_id"`
		Timeout      int     `mapstructure:"timeout"` // milliseconds
		MaxResults   int     `mapstructure:"max_results"`
		MinRelevance float64 `mapstructure:"min_relevance"`
	} `mapstructure:"web_search"`

	ConfigService struct {
		BaseURL         string `mapstructure:"base_url"`
		Timeout         int    `mapstructure:"timeout"`          // milliseconds
		RefreshInterval int    `mapstructure:"refresh_interval"` // seconds
	} `mapstructure:"config_service"`
}

// RAGConfig maps intent categories to their structured-data microservices.
type RAGConfig struct {
	Endpoints map[string]string `mapstructure:"endpoints"` // category -> base URL
	Timeout   int               `mapstructure:"timeout"`   // milliseconds
}

// --- Pipeline tuning ---

// PipelineConfig holds orchestration settings shared by the stages.
type PipelineConfig struct {
	ProviderTimeout  int `mapstructure:"provider_timeout"`   // milliseconds, per provider call
	PerProviderLimit int `mapstructure:"per_provider_limit"` // result cap per provider
	MinAnswerLength  int `mapstructure:"min_answer_length"`  // below this a sub-intent answer counts as empty
	MinSplitWords    int `mapstructure:"min_split_words"`    // minimum words per split fragment
	// ConfidenceFloor is the global threshold below which classification
	// escalates to the LLM.
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
}

// FusionConfig holds the result-fusion tuning values. These are heuristic
// tuning constants, deliberately configurable rather than hard-coded.
type FusionConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"` // text-overlap clustering threshold
	SourceBonus         float64 `mapstructure:"source_bonus"`         // per extra corroborating provider
	BonusCap            float64 `mapstructure:"bonus_cap"`            // total corroboration bonus cap
}

// ValidationConfig holds the anti-hallucination tuning values.
type ValidationConfig struct {
	NumericWeight       float64 `mapstructure:"numeric_weight"`        // cross-check numeric token weight
	LexicalWeight       float64 `mapstructure:"lexical_weight"`        // cross-check lexical overlap weight
	CrossCheckThreshold float64 `mapstructure:"cross_check_threshold"` // below this the answers disagree
}

// CacheConfig holds per-category response cache TTLs.
type CacheConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
	// TTLSeconds maps category -> seconds; 0 disables caching for the
	// category (volatile data like device state).
	TTLSeconds map[string]int `mapstructure:"ttl_seconds"`
	DefaultTTL int            `mapstructure:"default_ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
