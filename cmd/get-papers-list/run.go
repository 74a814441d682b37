// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-affiliations/internal/classify"
	"github.com/pdiddy/paper-affiliations/internal/fetch"
	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/internal/metrics"
	"github.com/pdiddy/paper-affiliations/internal/parse"
	"github.com/pdiddy/paper-affiliations/internal/pipeline"
	"github.com/pdiddy/paper-affiliations/internal/report"
	"github.com/pdiddy/paper-affiliations/internal/search"
	"github.com/pdiddy/paper-affiliations/internal/store"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const noMatchesMessage = "No matching papers found."

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return execute(ctx, cfg, args[0], debug, cmd.OutOrStdout(), newLogger(cmd.ErrOrStderr()))
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
}

// execute runs one query with cfg and reports to out.
func execute(ctx context.Context, cfg types.PipelineConfig, query string, debug bool, out io.Writer, logger zerolog.Logger) error {
	kt := classify.DefaultKeywords()
	if cfg.Classifier.KeywordsFile != "" {
		loaded, err := classify.LoadKeywords(cfg.Classifier.KeywordsFile)
		if err != nil {
			return err
		}
		kt = loaded
	}

	var rec *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		rec = metrics.NewRecorder()
	}

	client := httputil.NewClient(cfg.HTTP, cfg.Retry)
	client.Observer = rec
	parser := parse.New(classify.New(kt))
	parser.Observer = rec

	stats := &runStats{next: rec}
	p := &pipeline.Pipeline{
		Discoverer: search.New(client, cfg.Eutils, cfg.Search),
		Fetcher:    fetch.New(client, parser, cfg.Eutils, cfg.Fetch),
		Logger:     &logger,
		Observer:   stats,
	}

	started := time.Now()
	records, runErr := p.Run(ctx, query, debug)

	if cfg.Store.Path != "" {
		run := store.Run{
			Query:      query,
			StartedAt:  started,
			Duration:   stats.duration,
			Discovered: stats.discovered,
			Emitted:    len(records),
		}
		if runErr != nil {
			run.Error = runErr.Error()
		}
		if id, err := saveRun(ctx, cfg.Store, run, records); err != nil {
			logger.Warn().Err(err).Msg("run history not saved")
		} else {
			logger.Debug().Str("run", id).Msg("run saved to history")
		}
	}

	if rec != nil {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Msg("metrics not written")
		}
	}

	if runErr != nil {
		return runErr
	}
	if len(records) == 0 {
		fmt.Fprintln(out, noMatchesMessage)
		return nil
	}

	if err := report.Save(cfg.Output.File, cfg.Output.Format, records, out); err != nil {
		return err
	}
	if cfg.Output.File != "" {
		fmt.Fprintf(out, "Saved %d papers to %s\n", len(records), cfg.Output.File)
	}
	return nil
}

func saveRun(ctx context.Context, cfg types.StoreConfig, run store.Run, records []types.PaperRecord) (string, error) {
	s, err := store.NewStore(cfg)
	if err != nil {
		return "", err
	}
	defer s.Close()
	// A cancelled run is still worth recording.
	return s.SaveRun(context.WithoutCancel(ctx), run, records)
}

// runStats captures the discovery count and duration of a run and passes
// the event on to next.
type runStats struct {
	next       pipeline.Observer
	discovered int
	duration   time.Duration
}

func (s *runStats) ObserveRun(discovered, emitted int, d time.Duration, err error) {
	s.discovered = discovered
	s.duration = d
	if s.next != nil {
		s.next.ObserveRun(discovered, emitted, d, err)
	}
}
