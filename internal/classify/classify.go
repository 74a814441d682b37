// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether an author affiliation is academic,
// commercial, or neither. The decision is keyword based and the keywords
// are data (see KeywordTable), so accuracy can be tuned without touching
// the algorithm.
package classify

import (
	"strings"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// Classifier applies a KeywordTable. It holds no mutable state and is safe
// for concurrent use.
type Classifier struct {
	academic   []string
	commercial []string
}

// New returns a Classifier for the given table.
func New(kt KeywordTable) *Classifier {
	kt = kt.normalized()
	commercial := make([]string, 0, len(kt.Commercial)+len(kt.Companies))
	commercial = append(commercial, kt.Commercial...)
	commercial = append(commercial, kt.Companies...)
	return &Classifier{
		academic:   kt.Academic,
		commercial: commercial,
	}
}

// Default returns a Classifier for the built-in keyword table.
func Default() *Classifier {
	return New(DefaultKeywords())
}

// Classify tags one author. The name does not influence the result; it is
// part of the signature so callers classify authors, not bare strings.
// An academic keyword wins even when a commercial keyword also matches.
func (c *Classifier) Classify(name, affiliation string) types.Classification {
	aff := strings.ToLower(affiliation)
	if strings.TrimSpace(aff) == "" {
		return types.Unclassified
	}
	if containsAny(aff, c.academic) {
		return types.Academic
	}
	if containsAny(aff, c.commercial) {
		return types.Commercial
	}
	return types.Unclassified
}

// ClassifyAuthor is Classify for an Author value.
func (c *Classifier) ClassifyAuthor(a types.Author) types.ClassifiedAuthor {
	return types.ClassifiedAuthor{Author: a, Class: c.Classify(a.Name, a.Affiliation)}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
