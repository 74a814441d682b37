// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-affiliations/internal/classify"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [file]",
	Short: "Print or write the affiliation keyword table",
	Long: `Keywords prints the keyword table the classifier uses: the built-in
table, or the one named by --keywords / classifier.keywords_file. With a file
argument the table is written there instead, ready to be edited and passed
back with --keywords.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeywords,
}

func runKeywords(cmd *cobra.Command, args []string) error {
	kt := classify.DefaultKeywords()
	path, _ := cmd.Flags().GetString("keywords")
	if path == "" {
		path = viper.GetString("classifier.keywords_file")
	}
	if path != "" {
		loaded, err := classify.LoadKeywords(path)
		if err != nil {
			return err
		}
		kt = loaded
	}

	if len(args) == 1 {
		if err := classify.WriteKeywords(args[0], kt); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote keyword table to %s\n", args[0])
		return nil
	}

	data, err := yaml.Marshal(kt)
	if err != nil {
		return fmt.Errorf("marshaling keywords: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func init() {
	keywordsCmd.Flags().String("keywords", "", "YAML keyword table to start from")
	rootCmd.AddCommand(keywordsCmd)
}
