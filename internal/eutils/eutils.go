// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package eutils builds NCBI E-utilities request URLs.
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package eutils

import (
	"net/url"
	"strings"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// E-utilities endpoints used by the pipeline.
const (
	ESearch  = "esearch.fcgi"
	EFetch   = "efetch.fcgi"
	ESummary = "esummary.fcgi"
)

// URL returns the full request URL for endpoint. The database, tool and
// email parameters from cfg are added to params.
func URL(cfg types.EutilsConfig, endpoint string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("db", cfg.Database)
	if cfg.Tool != "" {
		q.Set("tool", cfg.Tool)
	}
	if cfg.Email != "" {
		q.Set("email", cfg.Email)
	}
	return strings.TrimRight(cfg.BaseURL, "/") + "/" + endpoint + "?" + q.Encode()
}
