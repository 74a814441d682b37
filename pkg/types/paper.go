// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the get-papers-list pipeline.
package types

// Classification is the outcome of classifying one author's affiliation.
type Classification string

const (
	Academic     Classification = "academic"
	Commercial   Classification = "commercial"
	Unclassified Classification = "unclassified"
)

// UnknownTitle is used when a record carries no title.
const UnknownTitle = "Unknown"

// Author is a (name, affiliation) pair as it appears in a server response.
// Affiliation may be empty.
type Author struct {
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// ClassifiedAuthor is an Author tagged with its affiliation class.
type ClassifiedAuthor struct {
	Author `yaml:",inline"`
	Class  Classification `json:"class" yaml:"class"`
}

// PaperRecord is one row of the report: a paper with at least one
// commercially affiliated author.
type PaperRecord struct {
	// ID is the PubMed identifier (PMID).
	ID string `json:"id" yaml:"id"`

	// Title is the article title, or UnknownTitle.
	Title string `json:"title" yaml:"title"`

	// PublicationDate is YEAR/MONTH/DAY, YEAR, or empty.
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// CommercialAuthors lists the commercially affiliated authors in source order.
	CommercialAuthors []string `json:"commercial_authors" yaml:"commercial_authors"`

	// CompanyAffiliations holds one affiliation per entry of CommercialAuthors.
	CompanyAffiliations []string `json:"company_affiliations" yaml:"company_affiliations"`

	// CorrespondingEmail is the first email address found in any affiliation.
	CorrespondingEmail string `json:"corresponding_email,omitempty" yaml:"corresponding_email,omitempty"`
}
