package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"product-search/pkg/httpclient"
	"product-search/pkg/price"
)

// Config holds all configuration for the product agent
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Search   SearchConfig   `mapstructure:"search"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Price    PriceConfig    `mapstructure:"price"`
	Index    IndexConfig    `mapstructure:"index"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	QA       QAConfig       `mapstructure:"qa"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// DataConfig locates the on-disk product store
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// HTTPConfig holds page fetch settings
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	ClientType string        `mapstructure:"client_type"` // "browser" or "cloudflare"
}

// SearchConfig holds SerpAPI settings
type SearchConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	APIKey    string        `mapstructure:"api_key"`
	Sites     []string      `mapstructure:"sites"`
	Count     int           `mapstructure:"count"`
	RateLimit time.Duration `mapstructure:"rate_limit"`
	CachePath string        `mapstructure:"cache_path"`
}

// BatchConfig holds per-batch processing settings
type BatchConfig struct {
	PoliteDelay time.Duration `mapstructure:"polite_delay"`
	RescoutLive bool          `mapstructure:"rescout_live"`
	MaxEntries  int           `mapstructure:"max_entries"`
}

// PriceConfig holds price normalization settings
type PriceConfig struct {
	RangePolicy string `mapstructure:"range_policy"` // "min", "max" or "midpoint"
}

// IndexConfig selects and configures the retrieval index
type IndexConfig struct {
	Backend string `mapstructure:"backend"` // "none", "postgres" or "supabase"

	PostgresDSN string `mapstructure:"postgres_dsn"`

	SupabaseURL              string `mapstructure:"supabase_url"`
	SupabaseKey              string `mapstructure:"supabase_key"`
	SupabasePassword         string `mapstructure:"supabase_password"`
	SupabaseConnectionString string `mapstructure:"supabase_connection_string"`
}

// MongoConfig holds the product mirror settings. An empty URI disables the mirror.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// QAConfig holds the chat completion settings
type QAConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
	TopK        int     `mapstructure:"top_k"`
}

// ScheduleConfig holds the cron spec of the augmentation sweep
type ScheduleConfig struct {
	Augment string `mapstructure:"augment"`
}

// Index backends
const (
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

// Load loads configuration from .env, an optional config file and
// PRODUCTAGENT_* environment variables. An empty configFile searches the
// usual locations for config.yaml.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config: ignoring unreadable .env: %v", err)
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PRODUCTAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// historical variable names
	_ = v.BindEnv("search.api_key", "PRODUCTAGENT_SEARCH_API_KEY", "SERPAPI_KEY")
	_ = v.BindEnv("qa.api_key", "PRODUCTAGENT_QA_API_KEY", "GROQ_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Search.CachePath == "" {
		cfg.Search.CachePath = filepath.Join(cfg.Data.Dir, "urls_cache.json")
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "data")

	v.SetDefault("http.timeout", "20s")
	v.SetDefault("http.client_type", "browser")

	v.SetDefault("search.endpoint", "https://serpapi.com/search")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.sites", []string{"amazon.in", "flipkart.com", "myntra.com", "nykaa.com", "snapdeal.com"})
	v.SetDefault("search.count", 5)
	v.SetDefault("search.rate_limit", "1s")
	v.SetDefault("search.cache_path", "")

	v.SetDefault("batch.polite_delay", "350ms")
	v.SetDefault("batch.rescout_live", false)
	v.SetDefault("batch.max_entries", 50)

	v.SetDefault("price.range_policy", "min")

	v.SetDefault("index.backend", BackendNone)
	v.SetDefault("index.postgres_dsn", "")
	v.SetDefault("index.supabase_url", "")
	v.SetDefault("index.supabase_key", "")
	v.SetDefault("index.supabase_password", "")
	v.SetDefault("index.supabase_connection_string", "")

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "productsearch")
	v.SetDefault("mongo.collection", "products")

	v.SetDefault("qa.api_key", "")
	v.SetDefault("qa.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("qa.model", "meta-llama/llama-4-maverick-17b-128e-instruct")
	v.SetDefault("qa.max_tokens", 250)
	v.SetDefault("qa.temperature", 0.1)
	v.SetDefault("qa.top_k", 3)

	v.SetDefault("schedule.augment", "0 0 */6 * * *")
}

func validate(cfg *Config) error {
	if cfg.Data.Dir == "" {
		return fmt.Errorf("data dir is required (set PRODUCTAGENT_DATA_DIR)")
	}
	if _, err := httpclient.ParseClientType(cfg.HTTP.ClientType); err != nil {
		return err
	}
	if _, err := price.ParseRangePolicy(cfg.Price.RangePolicy); err != nil {
		return err
	}
	if cfg.Search.Count <= 0 {
		return fmt.Errorf("search count must be positive, got: %d", cfg.Search.Count)
	}
	if cfg.QA.TopK <= 0 {
		return fmt.Errorf("qa top_k must be positive, got: %d", cfg.QA.TopK)
	}

	switch cfg.Index.Backend {
	case BackendNone:
	case BackendPostgres:
		if cfg.Index.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is required when index backend is 'postgres'")
		}
	case BackendSupabase:
		hasDirect := cfg.Index.SupabaseConnectionString != "" ||
			(cfg.Index.SupabaseURL != "" && cfg.Index.SupabasePassword != "")
		hasREST := cfg.Index.SupabaseURL != "" && cfg.Index.SupabaseKey != ""
		if !hasDirect && !hasREST {
			return fmt.Errorf("supabase index needs a connection string, URL and password, or URL and key")
		}
	default:
		return fmt.Errorf("index backend must be 'none', 'postgres' or 'supabase', got: %s", cfg.Index.Backend)
	}

	return nil
}

// RangePolicy returns the validated price range policy
func (c *Config) RangePolicy() price.RangePolicy {
	p, _ := price.ParseRangePolicy(c.Price.RangePolicy)
	return p
}

// ClientType returns the validated HTTP client type
func (c *Config) ClientType() httpclient.ClientType {
	t, _ := httpclient.ParseClientType(c.HTTP.ClientType)
	return t
}
