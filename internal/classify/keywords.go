// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// KeywordTable holds the lower-case substrings the classifier looks for.
// Academic keywords take precedence over everything else.
type KeywordTable struct {
	Academic   []string `yaml:"academic"`
	Commercial []string `yaml:"commercial"`
	// Companies supplements Commercial with known pharmaceutical and
	// biotech company names.
	Companies []string `yaml:"companies"`
}

var defaultAcademic = []string{
	"university", "college", "institute", "hospital", "school", "department", "faculty",
}

var defaultCommercial = []string{
	"inc", "ltd", "corp", "corporation", "pharma", "biotech", "biopharma",
	"healthtech", "company", "therapeutics", "healthcare", "gmbh",
	"laboratories", "biosciences", "llc", "limited",
}

var defaultCompanies = []string{
	"pfizer", "novartis", "hoffmann-la roche", "roche diagnostics", "genentech", "merck", "msd", "gsk",
	"glaxosmithkline", "sanofi", "astrazeneca", "johnson & johnson", "janssen",
	"abbvie", "bristol-myers squibb", "eli lilly", "bayer ag", "amgen", "gilead",
	"boehringer ingelheim", "takeda", "novo nordisk", "moderna", "biogen",
	"regeneron", "teva", "daiichi sankyo", "astellas", "eisai",
	"otsuka", "biontech", "illumina",
}

// DefaultKeywords returns a copy of the built-in keyword table.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		Academic:   append([]string(nil), defaultAcademic...),
		Commercial: append([]string(nil), defaultCommercial...),
		Companies:  append([]string(nil), defaultCompanies...),
	}
}

// LoadKeywords reads a keyword table from a YAML file. Sections that are
// absent or empty keep their built-in defaults.
func LoadKeywords(path string) (KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordTable{}, fmt.Errorf("reading keyword file: %w", err)
	}
	var kt KeywordTable
	if err := yaml.Unmarshal(data, &kt); err != nil {
		return KeywordTable{}, fmt.Errorf("parsing keyword file %s: %w", path, err)
	}

	def := DefaultKeywords()
	if len(kt.Academic) == 0 {
		kt.Academic = def.Academic
	}
	if len(kt.Commercial) == 0 {
		kt.Commercial = def.Commercial
	}
	if len(kt.Companies) == 0 {
		kt.Companies = def.Companies
	}
	return kt.normalized(), nil
}

// WriteKeywords saves a keyword table as YAML so it can be tuned by hand.
func WriteKeywords(path string, kt KeywordTable) error {
	data, err := yaml.Marshal(&kt)
	if err != nil {
		return fmt.Errorf("marshaling keyword table: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// normalized lower-cases and trims every keyword and drops blanks.
func (kt KeywordTable) normalized() KeywordTable {
	return KeywordTable{
		Academic:   normalizeList(kt.Academic),
		Commercial: normalizeList(kt.Commercial),
		Companies:  normalizeList(kt.Companies),
	}
}

func normalizeList(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
