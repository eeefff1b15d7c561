package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Graph    GraphConfig    `mapstructure:"graph"`
	Index    IndexConfig    `mapstructure:"index"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Temporal TemporalConfig `mapstructure:"temporal"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
}

// GraphConfig describes the Neo4j connection.
type GraphConfig struct {
	URI                   string        `mapstructure:"uri"`
	Username              string        `mapstructure:"username"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	MaxConnectionLifetime time.Duration `mapstructure:"max_connection_lifetime"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	MaxTransactionRetry   time.Duration `mapstructure:"max_transaction_retry"`
}

// IndexConfig describes the vector index the run provisions.
type IndexConfig struct {
	Name       string `mapstructure:"name"`
	Dimension  int    `mapstructure:"dimension"`
	Similarity string `mapstructure:"similarity"`
}

// VerifyConfig tunes the verification sequence.
type VerifyConfig struct {
	TopK         int           `mapstructure:"top_k"`
	IndexTimeout time.Duration `mapstructure:"index_timeout"`
	ReportPath   string        `mapstructure:"report_path"`
}

// MirrorConfig describes the optional Qdrant shadow store.
// The mirror is disabled when Host is empty.
type MirrorConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Schedule  string `mapstructure:"schedule"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Graph.URI == "" {
		warnings = append(warnings, "graph.uri is empty")
	}
	if c.Index.Dimension <= 0 {
		warnings = append(warnings, fmt.Sprintf("index.dimension %d is not positive", c.Index.Dimension))
	}
	switch c.Index.Similarity {
	case "", "cosine", "euclidean":
	default:
		warnings = append(warnings, fmt.Sprintf("index.similarity '%s' is not a known similarity function", c.Index.Similarity))
	}
	if c.Verify.TopK < 1 {
		warnings = append(warnings, fmt.Sprintf("verify.top_k %d is less than 1", c.Verify.TopK))
	}
	if c.Verify.IndexTimeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("verify.index_timeout %s is not positive", c.Verify.IndexTimeout))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("tracing.sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

// MirrorEnabled reports whether the Qdrant shadow store is configured.
func (c *Config) MirrorEnabled() bool {
	return c.Mirror.Host != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("graph.uri", "bolt://localhost:7687")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.max_connection_pool_size", 50)
	v.SetDefault("graph.max_connection_lifetime", time.Hour)
	v.SetDefault("graph.connection_timeout", 30*time.Second)
	v.SetDefault("graph.max_transaction_retry", 15*time.Second)

	v.SetDefault("index.name", "health_vector_index")
	v.SetDefault("index.dimension", 1536)
	v.SetDefault("index.similarity", "cosine")

	v.SetDefault("verify.top_k", 3)
	v.SetDefault("verify.index_timeout", 60*time.Second)
	v.SetDefault("verify.report_path", "verification_report.md")

	v.SetDefault("mirror.host", "")
	v.SetDefault("mirror.port", 6334)
	v.SetDefault("mirror.collection", "verigraph_entities")

	v.SetDefault("temporal.host", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "verigraph")
	v.SetDefault("temporal.schedule", "")

	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.environment", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from file and environment. A missing config
// file is not an error: the harness commonly runs on env vars alone.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VERIGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The plain NEO4J_* variables are honored as well, matching what
	// the surrounding CI jobs already export.
	_ = v.BindEnv("graph.uri", "VERIGRAPH_GRAPH_URI", "NEO4J_URI")
	_ = v.BindEnv("graph.username", "VERIGRAPH_GRAPH_USERNAME", "NEO4J_USER")
	_ = v.BindEnv("graph.password", "VERIGRAPH_GRAPH_PASSWORD", "NEO4J_PASSWORD")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
