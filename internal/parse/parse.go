// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns E-utilities detail responses into PaperRecords.
// Both response shapes (efetch XML and esummary JSON) are adapted into one
// internal entry type, so classification, email capture, date formatting and
// the inclusion rule are written once in build.
package parse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/internal/classify"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// ErrMalformedResponse reports a response whose top-level structure is not
// the expected one. It is not retried.
var ErrMalformedResponse = errors.New("malformed response")

// Observer receives per-response parse counts. internal/metrics.Recorder
// implements it.
type Observer interface {
	ObserveParse(papers, emitted, skipped int)
}

// Parser converts raw responses to records. The zero value uses the
// built-in keyword table.
type Parser struct {
	Classifier *classify.Classifier
	Observer   Observer
}

// New returns a Parser that classifies authors with c.
func New(c *classify.Classifier) *Parser {
	return &Parser{Classifier: c}
}

// entry is one paper in source-neutral form.
type entry struct {
	ID               string
	Title            string
	Year, Month, Day string
	Authors          []types.Author
}

// Parse detects the payload shape from its first non-blank byte and
// dispatches to ParseArticleSet or ParseSummary.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]types.PaperRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	switch trimmed[0] {
	case '<':
		return p.ParseArticleSet(ctx, data)
	case '{':
		return p.ParseSummary(ctx, data)
	default:
		return nil, fmt.Errorf("%w: neither XML nor JSON", ErrMalformedResponse)
	}
}

// collect builds records from entries, drops those without commercial
// authors, and reports counts.
func (p *Parser) collect(ctx context.Context, entries []entry, skipped int) []types.PaperRecord {
	records := make([]types.PaperRecord, 0, len(entries))
	for _, e := range entries {
		if rec, ok := p.build(e); ok {
			records = append(records, rec)
		}
	}

	zerolog.Ctx(ctx).Debug().Int("papers", len(entries)).Int("emitted", len(records)).
		Int("skipped", skipped).Msg("parsed detail response")
	if p.Observer != nil {
		p.Observer.ObserveParse(len(entries), len(records), skipped)
	}
	return records
}

// build classifies every named author, captures the first email found in
// any affiliation, and reports whether the paper has at least one
// commercial author.
func (p *Parser) build(e entry) (types.PaperRecord, bool) {
	c := p.Classifier
	if c == nil {
		c = classify.Default()
	}

	rec := types.PaperRecord{
		ID:              strings.TrimSpace(e.ID),
		Title:           strings.TrimSpace(e.Title),
		PublicationDate: FormatDate(e.Year, e.Month, e.Day),
	}
	if rec.Title == "" {
		rec.Title = types.UnknownTitle
	}

	for _, a := range e.Authors {
		if rec.CorrespondingEmail == "" {
			rec.CorrespondingEmail = FindEmail(a.Affiliation)
		}
		// Nameless authors only contribute an email.
		if a.Name == "" {
			continue
		}
		if ca := c.ClassifyAuthor(a); ca.Class == types.Commercial {
			rec.CommercialAuthors = append(rec.CommercialAuthors, ca.Name)
			rec.CompanyAffiliations = append(rec.CompanyAffiliations, ca.Affiliation)
		}
	}
	return rec, len(rec.CommercialAuthors) > 0
}

// FormatDate returns "YEAR/MONTH/DAY" when all parts are present, "YEAR"
// when only the year is usable, and "" otherwise. Month is kept as given
// ("Jan" or "01").
func FormatDate(year, month, day string) string {
	year, month, day = strings.TrimSpace(year), strings.TrimSpace(month), strings.TrimSpace(day)
	switch {
	case year != "" && month != "" && day != "":
		return year + "/" + month + "/" + day
	case year != "":
		return year
	default:
		return ""
	}
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// FindEmail returns the first email address embedded in s, or "".
func FindEmail(s string) string {
	return emailPattern.FindString(s)
}
