// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// ParseArticleSet parses an efetch PubmedArticleSet document. A document
// with any other root element is malformed. Articles without a PMID are
// skipped; authors without a usable name are dropped.
func (p *Parser) ParseArticleSet(ctx context.Context, data []byte) ([]types.PaperRecord, error) {
	var set articleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: parsing PubmedArticleSet: %v", ErrMalformedResponse, err)
	}

	log := zerolog.Ctx(ctx)
	entries := make([]entry, 0, len(set.Articles))
	skipped := 0
	for i, a := range set.Articles {
		e, ok := a.entry(log)
		if !ok {
			log.Debug().Int("index", i).Msg("skipping article without PMID")
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	return p.collect(ctx, entries, skipped), nil
}

func (a pubmedArticle) entry(log *zerolog.Logger) (entry, bool) {
	cit := a.MedlineCitation
	pmid := strings.TrimSpace(cit.PMID.Value)
	if pmid == "" {
		return entry{}, false
	}

	pd := cit.Article.Journal.JournalIssue.PubDate
	year := pd.Year
	if year == "" {
		year = leadingYear(pd.MedlineDate)
	}

	e := entry{
		ID:    pmid,
		Title: cit.Article.ArticleTitle.Text(),
		Year:  year,
		Month: pd.Month,
		Day:   pd.Day,
	}
	if cit.Article.AuthorList == nil {
		return e, true
	}

	for i, au := range cit.Article.AuthorList.Authors {
		if au.ValidYN == "N" {
			continue
		}
		name := au.fullName()
		if name == "" {
			log.Debug().Str("pmid", pmid).Int("index", i).Msg("author without name, affiliation used for email only")
		}
		e.Authors = append(e.Authors, types.Author{Name: name, Affiliation: au.affiliation()})
	}
	return e, true
}

// fullName returns "ForeName LastName", or CollectiveName for group authors.
func (au pubmedAuthor) fullName() string {
	if au.CollectiveName != "" {
		return strings.TrimSpace(au.CollectiveName)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(au.ForeName+" "+au.LastName), " "))
}

// affiliation joins all affiliation lines of an author.
func (au pubmedAuthor) affiliation() string {
	var parts []string
	for _, ai := range au.AffiliationInfo {
		if s := strings.TrimSpace(ai.Affiliation); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

// leadingYear extracts the year from a MedlineDate such as "2020 Jan-Feb"
// or "2019-2020".
func leadingYear(medlineDate string) string {
	s := strings.TrimSpace(medlineDate)
	if len(s) < 4 {
		return ""
	}
	for _, r := range s[:4] {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return s[:4]
}

// efetch XML structures. Only the fields the report needs are mapped.
type articleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    pmid    `xml:"PMID"`
	Article article `xml:"Article"`
}

type pmid struct {
	Value string `xml:",chardata"`
}

type article struct {
	Journal      journal     `xml:"Journal"`
	ArticleTitle markupText  `xml:"ArticleTitle"`
	AuthorList   *authorList `xml:"AuthorList"`
}

type journal struct {
	JournalIssue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

type pubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type authorList struct {
	Authors []pubmedAuthor `xml:"Author"`
}

type pubmedAuthor struct {
	ValidYN         string            `xml:"ValidYN,attr"`
	LastName        string            `xml:"LastName"`
	ForeName        string            `xml:"ForeName"`
	CollectiveName  string            `xml:"CollectiveName"`
	AffiliationInfo []affiliationInfo `xml:"AffiliationInfo"`
}

type affiliationInfo struct {
	Affiliation string `xml:"Affiliation"`
}

// markupText keeps the raw content of an element that may contain inline
// markup such as <i> or <sup>.
type markupText struct {
	Inner string `xml:",innerxml"`
}

// Text returns the character data with tags removed and whitespace collapsed.
func (m markupText) Text() string {
	dec := xml.NewDecoder(strings.NewReader("<t>" + m.Inner + "</t>"))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
