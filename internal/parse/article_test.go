// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-affiliations/internal/classify"
)

const janeJohnXML = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">38000001</PMID>
      <Article PubModel="Print">
        <Journal>
          <JournalIssue CitedMedium="Internet">
            <PubDate><Year>2020</Year><Month>Jan</Month><Day>15</Day></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Efficacy of <i>BNT162b2</i> &amp; related vaccines.</ArticleTitle>
        <AuthorList CompleteYN="Y">
          <Author ValidYN="Y">
            <LastName>Doe</LastName><ForeName>Jane</ForeName>
            <AffiliationInfo><Affiliation>Pfizer Inc.</Affiliation></AffiliationInfo>
          </Author>
          <Author ValidYN="Y">
            <LastName>Smith</LastName><ForeName>John</ForeName>
            <AffiliationInfo><Affiliation>Harvard University</Affiliation></AffiliationInfo>
          </Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

const academicOnlyXML = `<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>38000002</PMID>
      <Article>
        <Journal><JournalIssue><PubDate><Year>2019</Year></PubDate></JournalIssue></Journal>
        <ArticleTitle>Academic work</ArticleTitle>
        <AuthorList>
          <Author><LastName>Lee</LastName><ForeName>Ann</ForeName>
            <AffiliationInfo><Affiliation>Stanford University</Affiliation></AffiliationInfo></Author>
          <Author><LastName>Kim</LastName><ForeName>Bo</ForeName>
            <AffiliationInfo><Affiliation>MIT</Affiliation></AffiliationInfo></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

const articleWithoutPMIDXML = `<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <ArticleTitle>No identifier</ArticleTitle>
        <AuthorList><Author><LastName>X</LastName>
          <AffiliationInfo><Affiliation>Acme Corp</Affiliation></AffiliationInfo></Author></AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>38000003</PMID>
      <Article>
        <Journal><JournalIssue><PubDate><MedlineDate>2018 Nov-Dec</MedlineDate></PubDate></JournalIssue></Journal>
        <AuthorList>
          <Author ValidYN="N"><LastName>Ghost</LastName>
            <AffiliationInfo><Affiliation>Ghost Ltd</Affiliation></AffiliationInfo></Author>
          <Author><AffiliationInfo><Affiliation>Nameless Inc</Affiliation></AffiliationInfo></Author>
          <Author><CollectiveName>Novartis Study Group</CollectiveName>
            <AffiliationInfo><Affiliation>Novartis Pharma AG, Basel</Affiliation></AffiliationInfo>
            <AffiliationInfo><Affiliation>group@novartis.com</Affiliation></AffiliationInfo></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseArticleSet_JaneDoeJohnSmith(t *testing.T) {
	recs, err := New(classify.Default()).ParseArticleSet(context.Background(), []byte(janeJohnXML))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "38000001", r.ID)
	assert.Equal(t, "Efficacy of BNT162b2 & related vaccines.", r.Title)
	assert.Equal(t, "2020/Jan/15", r.PublicationDate)
	assert.Equal(t, []string{"Jane Doe"}, r.CommercialAuthors)
	assert.Equal(t, []string{"Pfizer Inc."}, r.CompanyAffiliations)
	assert.Empty(t, r.CorrespondingEmail)
}

func TestParseArticleSet_AcademicOnlyDropped(t *testing.T) {
	recs, err := New(classify.Default()).ParseArticleSet(context.Background(), []byte(academicOnlyXML))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseArticleSet_SkipsBadEntries(t *testing.T) {
	recs, err := New(classify.Default()).ParseArticleSet(context.Background(), []byte(articleWithoutPMIDXML))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "38000003", r.ID)
	assert.Equal(t, "Unknown", r.Title)
	assert.Equal(t, "2018", r.PublicationDate)
	assert.Equal(t, []string{"Novartis Study Group"}, r.CommercialAuthors)
	assert.Equal(t, []string{"Novartis Pharma AG, Basel; group@novartis.com"}, r.CompanyAffiliations)
	assert.Equal(t, "group@novartis.com", r.CorrespondingEmail)
}

const namelessLeadXML = `<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>38000004</PMID>
      <Article>
        <ArticleTitle>Group paper</ArticleTitle>
        <AuthorList>
          <Author><AffiliationInfo><Affiliation>Pfizer Inc., New York. lead@pfizer.com</Affiliation></AffiliationInfo></Author>
          <Author><LastName>Roe</LastName><ForeName>Rita</ForeName>
            <AffiliationInfo><Affiliation>Pfizer Inc.</Affiliation></AffiliationInfo></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseArticleSet_NamelessAuthorEmailKept(t *testing.T) {
	recs, err := New(classify.Default()).ParseArticleSet(context.Background(), []byte(namelessLeadXML))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "lead@pfizer.com", recs[0].CorrespondingEmail)
	assert.Equal(t, []string{"Rita Roe"}, recs[0].CommercialAuthors)
}

func TestParseArticleSet_EmptySet(t *testing.T) {
	recs, err := New(classify.Default()).ParseArticleSet(context.Background(), []byte(`<PubmedArticleSet></PubmedArticleSet>`))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseArticleSet_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"wrong root": `<eFetchResult><ERROR>Empty id list</ERROR></eFetchResult>`,
		"truncated":  `<PubmedArticleSet><PubmedArticle>`,
		"json":       `{"result":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(classify.Default()).ParseArticleSet(context.Background(), []byte(body))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestLeadingYear(t *testing.T) {
	assert.Equal(t, "2020", leadingYear("2020 Jan-Feb"))
	assert.Equal(t, "2019", leadingYear("2019-2020"))
	assert.Equal(t, "", leadingYear("Spring"))
	assert.Equal(t, "", leadingYear(""))
}
