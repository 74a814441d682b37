// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/internal/parse"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// fakeESearch serves count identifiers "1".."count" and records the
// (retstart, retmax) pair of every request. failAt makes the page at that
// offset answer 500 on every attempt. A positive maxStart rejects any
// retstart above it the way PubMed does.
type fakeESearch struct {
	mu       sync.Mutex
	count    int
	failAt   int
	maxStart int
	requests [][2]int
}

func (f *fakeESearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, _ := strconv.Atoi(q.Get("retstart"))
	retmax, _ := strconv.Atoi(q.Get("retmax"))

	f.mu.Lock()
	f.requests = append(f.requests, [2]int{start, retmax})
	f.mu.Unlock()

	if retmax > 0 && start == f.failAt {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if f.maxStart > 0 && start > f.maxStart {
		_, _ = w.Write([]byte(`{"esearchresult":{"ERROR":"Search Backend failed: Exception:\n'retstart' cannot be larger than 9998."}}`))
		return
	}

	ids := []string{}
	for i := start; i < start+retmax && i < f.count; i++ {
		ids = append(ids, strconv.Itoa(i+1))
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"header": map[string]string{"type": "esearch"},
		"esearchresult": map[string]any{
			"count":    strconv.Itoa(f.count),
			"retmax":   strconv.Itoa(len(ids)),
			"retstart": strconv.Itoa(start),
			"idlist":   ids,
		},
	})
}

func newDiscoverer(ts *httptest.Server, cfg types.SearchConfig) *Discoverer {
	client := &httputil.Client{
		HTTP:   ts.Client(),
		Policy: httputil.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}
	eu := types.EutilsConfig{BaseURL: ts.URL, Database: "pubmed", Tool: "test"}
	return New(client, eu, cfg)
}

func TestDiscoverIDs_Paginates(t *testing.T) {
	fake := &fakeESearch{count: 250, failAt: -1}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	ids, err := newDiscoverer(ts, types.SearchConfig{PageSize: 100}).DiscoverIDs(context.Background(), "cancer therapy")
	require.NoError(t, err)
	require.Len(t, ids, 250)
	assert.Equal(t, "1", ids[0])
	assert.Equal(t, "250", ids[249])

	assert.Equal(t, [][2]int{{0, 0}, {0, 100}, {100, 100}, {200, 100}}, fake.requests)
}

func TestDiscoverIDs_ZeroCountIsOneRequest(t *testing.T) {
	fake := &fakeESearch{count: 0, failAt: -1}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	ids, err := newDiscoverer(ts, types.SearchConfig{PageSize: 100}).DiscoverIDs(context.Background(), "nothing matches")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
	assert.Len(t, fake.requests, 1)
}

func TestDiscoverIDs_MaxResultsCapsPages(t *testing.T) {
	fake := &fakeESearch{count: 250, failAt: -1}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	ids, err := newDiscoverer(ts, types.SearchConfig{PageSize: 100, MaxResults: 120}).DiscoverIDs(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, ids, 120)
	assert.Equal(t, [][2]int{{0, 0}, {0, 100}, {100, 20}}, fake.requests)
}

func TestDiscoverIDs_StopsAtPagingWindow(t *testing.T) {
	fake := &fakeESearch{count: 25000, failAt: -1, maxStart: 9998}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	ids, err := newDiscoverer(ts, types.SearchConfig{PageSize: 100}).DiscoverIDs(ctx, "cancer")
	require.NoError(t, err)
	require.Len(t, ids, maxRetrievable)
	assert.Equal(t, "9999", ids[len(ids)-1])

	last := fake.requests[len(fake.requests)-1]
	assert.Equal(t, [2]int{9900, 99}, last)
	for _, r := range fake.requests {
		assert.LessOrEqual(t, r[0], 9998)
	}
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"count":25000`)
}

func TestDiscoverIDs_PageFailureAbortsWithoutPartialResult(t *testing.T) {
	fake := &fakeESearch{count: 250, failAt: 100}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	ids, err := newDiscoverer(ts, types.SearchConfig{PageSize: 100}).DiscoverIDs(context.Background(), "q")
	require.Error(t, err)
	assert.Nil(t, ids)

	var fe *httputil.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Attempts)
	// count, first page, three attempts at offset 100, nothing after.
	assert.Len(t, fake.requests, 5)
}

func TestDiscoverIDs_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"no esearchresult": `{"header":{"type":"esearch"}}`,
		"not json":         `<html>busy</html>`,
		"bad count":        `{"esearchresult":{"count":"many","idlist":[]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer ts.Close()

			_, err := newDiscoverer(ts, types.SearchConfig{}).DiscoverIDs(context.Background(), "q")
			assert.ErrorIs(t, err, parse.ErrMalformedResponse)
		})
	}
}

func TestDiscoverIDs_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"esearchresult":{"ERROR":"Invalid query"}}`))
	}))
	defer ts.Close()

	_, err := newDiscoverer(ts, types.SearchConfig{}).DiscoverIDs(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid query")
}

func TestDiscoverIDs_EmptyQuery(t *testing.T) {
	d := &Discoverer{}
	_, err := d.DiscoverIDs(context.Background(), "   ")
	assert.Error(t, err)
}

func TestDiscoverIDs_SendsQueryAndContact(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "crispr AND 2020[dp]", q.Get("term"))
		assert.Equal(t, "pubmed", q.Get("db"))
		assert.Equal(t, "json", q.Get("retmode"))
		assert.Equal(t, "test", q.Get("tool"))
		_, _ = w.Write([]byte(`{"esearchresult":{"count":"0","idlist":[]}}`))
	}))
	defer ts.Close()

	_, err := newDiscoverer(ts, types.SearchConfig{}).DiscoverIDs(context.Background(), "crispr AND 2020[dp]")
	require.NoError(t, err)
}
