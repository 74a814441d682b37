// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// ParseSummary parses an esummary JSON document: a "result" object keyed
// by uid, plus a "uids" list that is ignored. Entries are processed in
// document order. A missing or non-object "result" is malformed; entries
// that are not objects or that carry an "error" are skipped.
func (p *Parser) ParseSummary(ctx context.Context, data []byte) ([]types.PaperRecord, error) {
	var resp summaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing esummary JSON: %v", ErrMalformedResponse, err)
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, fmt.Errorf("%w: esummary response has no \"result\" key", ErrMalformedResponse)
	}

	log := zerolog.Ctx(ctx)
	dec := json.NewDecoder(bytes.NewReader(resp.Result))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("%w: esummary \"result\" is not an object", ErrMalformedResponse)
	}

	var entries []entry
	skipped := 0
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: reading esummary key: %v", ErrMalformedResponse, err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: reading esummary entry %q: %v", ErrMalformedResponse, key, err)
		}
		if key == "uids" {
			continue
		}

		e, err := summaryEntry(key, raw, log)
		if err != nil {
			log.Debug().Str("uid", key).Err(err).Msg("skipping summary entry")
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	return p.collect(ctx, entries, skipped), nil
}

func summaryEntry(key string, raw json.RawMessage, log *zerolog.Logger) (entry, error) {
	var doc summaryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entry{}, fmt.Errorf("unexpected entry shape: %w", err)
	}
	if doc.Error != "" {
		return entry{}, fmt.Errorf("server reported: %s", doc.Error)
	}

	id := strings.TrimSpace(doc.UID)
	if id == "" {
		id = key
	}
	year, month, day := splitPubDate(doc.PubDate)
	e := entry{ID: id, Title: doc.Title, Year: year, Month: month, Day: day}

	for i, rawAuthor := range doc.Authors {
		var a summaryAuthor
		if err := json.Unmarshal(rawAuthor, &a); err != nil {
			log.Debug().Str("uid", id).Int("index", i).Msg("skipping malformed author")
			continue
		}
		e.Authors = append(e.Authors, types.Author{
			Name:        strings.TrimSpace(a.Name),
			Affiliation: a.affiliation(),
		})
	}
	return e, nil
}

// splitPubDate splits an esummary pubdate ("2020 Jan 15", "2019",
// "2020 Jan-Feb") into year, month and day. Parts that are not present or
// not well formed come back empty.
func splitPubDate(s string) (year, month, day string) {
	fields := strings.Fields(s)
	if len(fields) == 0 || !isDigits(fields[0]) || len(fields[0]) != 4 {
		return "", "", ""
	}
	year = fields[0]
	if len(fields) > 1 {
		month = fields[1]
	}
	if len(fields) > 2 && isDigits(fields[2]) {
		day = fields[2]
	}
	return year, month, day
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

type summaryResponse struct {
	Result json.RawMessage `json:"result"`
}

type summaryDoc struct {
	UID     string            `json:"uid"`
	Title   string            `json:"title"`
	PubDate string            `json:"pubdate"`
	Authors []json.RawMessage `json:"authors"`
	Error   string            `json:"error"`
}

type summaryAuthor struct {
	Name         string   `json:"name"`
	Affiliation  string   `json:"affiliation"`
	Affiliations []string `json:"affiliations"`
}

func (a summaryAuthor) affiliation() string {
	if s := strings.TrimSpace(a.Affiliation); s != "" {
		return s
	}
	var parts []string
	for _, s := range a.Affiliations {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}
