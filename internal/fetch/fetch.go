// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves record details in bounded batches and hands each
// response to the record parser.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/internal/eutils"
	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/internal/parse"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// Fetcher requests details for batches of identifiers, one batch at a time.
type Fetcher struct {
	Client *httputil.Client
	Parser *parse.Parser
	Eutils types.EutilsConfig
	Config types.FetchConfig
}

// New returns a Fetcher.
func New(client *httputil.Client, p *parse.Parser, eu types.EutilsConfig, cfg types.FetchConfig) *Fetcher {
	return &Fetcher{Client: client, Parser: p, Eutils: eu, Config: cfg}
}

// FetchDetails returns the records for ids in batch order, then in the
// order the parser yields them within a batch. An empty ids makes no
// request. A batch that exhausts its retries aborts the whole call with a
// *httputil.FetchError; a malformed response aborts with
// parse.ErrMalformedResponse. No partial result is returned in either case.
func (f *Fetcher) FetchDetails(ctx context.Context, ids []string) ([]types.PaperRecord, error) {
	if len(ids) == 0 {
		return []types.PaperRecord{}, nil
	}
	log := zerolog.Ctx(ctx)

	batches := Batches(ids, f.batchSize())
	records := make([]types.PaperRecord, 0)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := f.Client.Get(ctx, f.batchURL(batch))
		if err != nil {
			return nil, fmt.Errorf("fetching batch %d of %d: %w", i+1, len(batches), err)
		}

		recs, err := f.parse(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("parsing batch %d of %d: %w", i+1, len(batches), err)
		}
		log.Debug().Int("batch", i+1).Int("batches", len(batches)).Int("ids", len(batch)).
			Int("records", len(recs)).Msg("fetched batch")
		records = append(records, recs...)
	}
	return records, nil
}

// Batches splits ids into contiguous slices of at most size elements.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = types.MaxBatchSize
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

func (f *Fetcher) batchSize() int {
	size := f.Config.BatchSize
	if size <= 0 || size > types.MaxBatchSize {
		size = types.MaxBatchSize
	}
	return size
}

func (f *Fetcher) endpoint() types.DetailEndpoint {
	if f.Config.Endpoint == types.EndpointESummary {
		return types.EndpointESummary
	}
	return types.EndpointEFetch
}

func (f *Fetcher) batchURL(batch []string) string {
	params := url.Values{"id": {strings.Join(batch, ",")}}
	if f.endpoint() == types.EndpointESummary {
		params.Set("retmode", "json")
		return eutils.URL(f.Eutils, eutils.ESummary, params)
	}
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")
	return eutils.URL(f.Eutils, eutils.EFetch, params)
}

func (f *Fetcher) parse(ctx context.Context, body []byte) ([]types.PaperRecord, error) {
	p := f.Parser
	if p == nil {
		p = &parse.Parser{}
	}
	return p.Parse(ctx, body)
}
