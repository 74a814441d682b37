// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the get-papers-list CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd runs one query end to end.
var rootCmd = &cobra.Command{
	Use:   "get-papers-list [flags] <query>",
	Short: "List PubMed papers with pharmaceutical or biotech co-authors",
	Long: `get-papers-list searches PubMed with the given query, fetches the details
of every matching paper, and reports the papers that have at least one author
affiliated with a pharmaceutical or biotech company.

The query accepts full PubMed syntax; quote it as one argument:

  get-papers-list "covid-19 vaccine AND 2021[dp]" -f results.csv

Without --file the results are printed to stdout as a table.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runQuery,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./get-papers-list.yaml or ~/.config/get-papers-list/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite run history database (empty disables history)")

	rootCmd.Flags().StringP("file", "f", "", "write results to this file instead of stdout")
	rootCmd.Flags().BoolP("debug", "d", false, "print debug information during execution")
	rootCmd.Flags().String("format", "", "output format: csv, json, yaml or table (default: from --file extension, table on stdout)")
	rootCmd.Flags().String("endpoint", "", "detail endpoint: efetch (XML, has affiliations) or esummary (JSON)")
	rootCmd.Flags().Int("max-results", 0, "stop after this many identifiers (0 = all)")
	rootCmd.Flags().Int("page-size", 0, "identifiers per search page")
	rootCmd.Flags().Int("batch-size", 0, "identifiers per detail request (max 100)")
	rootCmd.Flags().Duration("timeout", 0, "per-request timeout")
	rootCmd.Flags().String("keywords", "", "YAML keyword table overriding the built-in one")
	rootCmd.Flags().String("email", "", "contact email sent to NCBI with every request")
	rootCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile after the run")

	bindFlags(viper.GetViper(), rootCmd)
}

func initConfig() {
	// A missing .env is normal; anything else is worth a warning.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("get-papers-list")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "get-papers-list"))
		}
	}

	viper.SetEnvPrefix("GET_PAPERS_LIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "warning: reading config:", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error occurred: %v\n", err)
		os.Exit(1)
	}
}
