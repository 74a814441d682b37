// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search discovers the PubMed identifiers matching a query.
// One ESearch request reads the total count; the identifiers are then
// collected page by page, strictly in order.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/internal/eutils"
	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/internal/parse"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const defaultPageSize = 100

// maxRetrievable is the ESearch paging window: the server rejects a
// retstart above 9998, so at most 9999 identifiers can be collected for
// one query.
const maxRetrievable = 9999

// Discoverer collects identifiers through the ESearch endpoint.
type Discoverer struct {
	Client *httputil.Client
	Eutils types.EutilsConfig
	Config types.SearchConfig
}

// New returns a Discoverer.
func New(client *httputil.Client, eu types.EutilsConfig, cfg types.SearchConfig) *Discoverer {
	return &Discoverer{Client: client, Eutils: eu, Config: cfg}
}

// DiscoverIDs returns every identifier matching query, in the order the
// server ranks them. A count of zero returns an empty slice after a single
// request. Collection stops at the ESearch paging window even when the
// count is larger. Any page that exhausts its retries aborts discovery with a
// *httputil.FetchError and no partial list.
func (d *Discoverer) DiscoverIDs(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	log := zerolog.Ctx(ctx)

	count, err := d.count(ctx, query)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("query", query).Int("count", count).Msg("esearch count")
	if count == 0 {
		return []string{}, nil
	}

	total := count
	if d.Config.MaxResults > 0 && d.Config.MaxResults < total {
		total = d.Config.MaxResults
	}
	if total > maxRetrievable {
		log.Warn().Str("query", query).Int("count", count).Int("retrievable", maxRetrievable).
			Msg("query matches more records than esearch can page through, truncating; narrow the query to see the rest")
		total = maxRetrievable
	}
	pageSize := d.Config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	ids := make([]string, 0, total)
	for offset := 0; offset < total; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		retmax := pageSize
		if total < count && total-offset < retmax {
			retmax = total - offset
		}

		res, err := d.request(ctx, query, offset, retmax)
		if err != nil {
			return nil, fmt.Errorf("esearch page at offset %d: %w", offset, err)
		}
		log.Debug().Int("offset", offset).Int("ids", len(res.IDList)).Msg("esearch page")
		ids = append(ids, res.IDList...)
	}

	if len(ids) > total {
		ids = ids[:total]
	}
	return ids, nil
}

// count asks for zero identifiers and returns the total match count.
func (d *Discoverer) count(ctx context.Context, query string) (int, error) {
	res, err := d.request(ctx, query, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("esearch count: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Count))
	if err != nil {
		return 0, fmt.Errorf("%w: esearch count %q is not a number", parse.ErrMalformedResponse, res.Count)
	}
	return n, nil
}

func (d *Discoverer) request(ctx context.Context, query string, retstart, retmax int) (*esearchResult, error) {
	params := url.Values{
		"term":    {query},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(retmax)},
	}
	if retstart > 0 {
		params.Set("retstart", strconv.Itoa(retstart))
	}

	body, err := d.Client.Get(ctx, eutils.URL(d.Eutils, eutils.ESearch, params))
	if err != nil {
		return nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing esearch JSON: %v", parse.ErrMalformedResponse, err)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%w: esearch response has no \"esearchresult\" key", parse.ErrMalformedResponse)
	}
	if resp.Result.Error != "" {
		return nil, fmt.Errorf("esearch reported: %s", resp.Result.Error)
	}
	return resp.Result, nil
}

// ESearch JSON structures.
type esearchResponse struct {
	Result *esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count    string   `json:"count"`
	RetMax   string   `json:"retmax"`
	RetStart string   `json:"retstart"`
	IDList   []string `json:"idlist"`
	Error    string   `json:"ERROR"`
}
