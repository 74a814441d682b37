package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DetailEndpoint selects the E-utilities endpoint used to fetch record details.
type DetailEndpoint string

const (
	// EndpointEFetch returns a PubmedArticleSet XML document.
	EndpointEFetch DetailEndpoint = "efetch"
	// EndpointESummary returns a JSON mapping of uid to document summary.
	EndpointESummary DetailEndpoint = "esummary"
)

// MaxBatchSize is the largest number of identifiers sent in one detail request.
const MaxBatchSize = 100

// EutilsConfig identifies the remote service and the caller.
type EutilsConfig struct {
	// BaseURL is the E-utilities root (e.g. "https://eutils.ncbi.nlm.nih.gov/entrez/eutils").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Database is the Entrez database name (default "pubmed").
	Database string `json:"database" yaml:"database" mapstructure:"database" validate:"required"`

	// Tool and Email are sent with every request as NCBI asks callers to.
	Tool  string `json:"tool" yaml:"tool" mapstructure:"tool"`
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email" validate:"omitempty,email"`
}

// HTTPConfig holds shared HTTP settings.
type HTTPConfig struct {
	// Timeout bounds each individual request; a timeout is a transient failure.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RequestsPerSecond paces consecutive requests. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`

	// Burst is the number of requests allowed back to back (default 1).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// RetryConfig configures the retry policy shared by discovery and fetch.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per request (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`

	// BaseDelay is one backoff unit; attempt n waits 2^n units.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay" validate:"gte=0"`
}

// SearchConfig holds settings for ID discovery.
type SearchConfig struct {
	// PageSize is the number of identifiers requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size" validate:"gte=1,lte=10000"`

	// MaxResults caps the number of identifiers collected. Zero means all.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=0"`
}

// FetchConfig holds settings for the batch detail fetcher.
type FetchConfig struct {
	// BatchSize is the number of identifiers per detail request (max 100).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1,lte=100"`

	// Endpoint selects efetch (XML) or esummary (JSON).
	Endpoint DetailEndpoint `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint" validate:"oneof=efetch esummary"`
}

// ClassifierConfig points at an optional keyword table override.
type ClassifierConfig struct {
	KeywordsFile string `json:"keywords_file,omitempty" yaml:"keywords_file,omitempty" mapstructure:"keywords_file"`
}

// OutputFormat selects the report format.
type OutputFormat string

const (
	FormatCSV   OutputFormat = "csv"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatTable OutputFormat = "table"
)

// OutputConfig holds settings for the report sink.
type OutputConfig struct {
	// File is the output path. Empty writes to stdout.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	// Format is csv, json, yaml or table. Empty infers it from File.
	Format OutputFormat `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=csv json yaml table"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables run history.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is written after each run when set.
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty" mapstructure:"textfile"`
}

// PipelineConfig groups all configuration for one run.
type PipelineConfig struct {
	Eutils     EutilsConfig     `json:"eutils" yaml:"eutils" mapstructure:"eutils"`
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:"http"`
	Retry      RetryConfig      `json:"retry" yaml:"retry" mapstructure:"retry"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// DefaultPipelineConfig returns the configuration used when nothing is set.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Eutils: EutilsConfig{
			BaseURL:  "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Database: "pubmed",
			Tool:     "get-papers-list",
		},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "get-papers-list/0.1",
			RequestsPerSecond: 3,
			Burst:             1,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Search: SearchConfig{
			PageSize: 100,
		},
		Fetch: FetchConfig{
			BatchSize: MaxBatchSize,
			Endpoint:  EndpointEFetch,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct constraints.
func (c PipelineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
