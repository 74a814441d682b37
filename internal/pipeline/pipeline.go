// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs discovery followed by detail fetching for one
// query and returns the records that have at least one commercial author.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// IDDiscoverer returns the identifiers matching a query.
type IDDiscoverer interface {
	DiscoverIDs(ctx context.Context, query string) ([]string, error)
}

// DetailFetcher returns the filtered records for a list of identifiers.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, ids []string) ([]types.PaperRecord, error)
}

// Observer receives one event per finished run.
type Observer interface {
	ObserveRun(discovered, emitted int, d time.Duration, err error)
}

// Pipeline wires a discoverer to a fetcher.
type Pipeline struct {
	Discoverer IDDiscoverer
	Fetcher    DetailFetcher

	// Logger is the base logger. Nil disables logging.
	Logger *zerolog.Logger

	// Observer is optional.
	Observer Observer
}

// Run executes one query. With debug set, progress is logged at debug
// level; otherwise only warnings and errors are emitted. An empty
// discovery result returns an empty slice without calling the fetcher.
// Errors from either stage are returned as they were produced.
func (p *Pipeline) Run(ctx context.Context, query string, debug bool) (records []types.PaperRecord, err error) {
	start := time.Now()
	discovered := 0
	defer func() {
		if p.Observer != nil {
			p.Observer.ObserveRun(discovered, len(records), time.Since(start), err)
		}
	}()

	log := p.logger(debug)
	ctx = log.WithContext(ctx)

	log.Debug().Str("query", query).Msg("discovering identifiers")
	ids, err := p.Discoverer.DiscoverIDs(ctx, query)
	if err != nil {
		log.Debug().Err(err).Msg("discovery failed")
		return nil, err
	}
	discovered = len(ids)
	log.Debug().Int("ids", len(ids)).Msg("discovery complete")

	if len(ids) == 0 {
		return []types.PaperRecord{}, nil
	}

	records, err = p.Fetcher.FetchDetails(ctx, ids)
	if err != nil {
		log.Debug().Err(err).Msg("fetch failed")
		return nil, err
	}
	log.Debug().Int("ids", len(ids)).Int("records", len(records)).Msg("fetch complete")
	return records, nil
}

func (p *Pipeline) logger(debug bool) zerolog.Logger {
	base := zerolog.Nop()
	if p.Logger != nil {
		base = *p.Logger
	}
	if debug {
		return base.Level(zerolog.DebugLevel)
	}
	return base.Level(zerolog.WarnLevel)
}
