// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"file":         "output.file",
	"format":       "output.format",
	"endpoint":     "fetch.endpoint",
	"max-results":  "search.max_results",
	"page-size":    "search.page_size",
	"batch-size":   "fetch.batch_size",
	"timeout":      "http.timeout",
	"keywords":     "classifier.keywords_file",
	"email":        "eutils.email",
	"metrics-file": "metrics.textfile",
	"db":           "store.path",
}

// bindFlags lets explicitly set flags override file and environment values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// setDefaults registers every configuration key so that environment
// variables are seen by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	v.SetDefault("eutils.base_url", d.Eutils.BaseURL)
	v.SetDefault("eutils.database", d.Eutils.Database)
	v.SetDefault("eutils.tool", d.Eutils.Tool)
	v.SetDefault("eutils.email", d.Eutils.Email)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.requests_per_second", d.HTTP.RequestsPerSecond)
	v.SetDefault("http.burst", d.HTTP.Burst)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay)

	v.SetDefault("search.page_size", d.Search.PageSize)
	v.SetDefault("search.max_results", d.Search.MaxResults)

	v.SetDefault("fetch.batch_size", d.Fetch.BatchSize)
	v.SetDefault("fetch.endpoint", string(d.Fetch.Endpoint))

	v.SetDefault("classifier.keywords_file", d.Classifier.KeywordsFile)
	v.SetDefault("output.file", d.Output.File)
	v.SetDefault("output.format", string(d.Output.Format))
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// loadConfig assembles and validates the pipeline configuration from v.
func loadConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
