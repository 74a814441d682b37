// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes PaperRecords as CSV, JSON, YAML or a console
// table. Every format carries the same six fields in the same order.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// NoDataMessage is printed instead of writing anything when there are no
// records.
const NoDataMessage = "No data to save."

// listSeparator joins the multi-valued columns.
const listSeparator = "; "

// Header is the column order shared by every tabular format.
var Header = []string{
	"Identifier",
	"Title",
	"Publication Date",
	"Non-academic Author(s)",
	"Company Affiliation(s)",
	"Corresponding Author Email",
}

// Row flattens r into Header order.
func Row(r types.PaperRecord) []string {
	return []string{
		r.ID,
		r.Title,
		r.PublicationDate,
		strings.Join(r.CommercialAuthors, listSeparator),
		strings.Join(r.CompanyAffiliations, listSeparator),
		r.CorrespondingEmail,
	}
}

// FormatForPath infers the output format from a file extension. Unknown
// extensions get CSV.
func FormatForPath(path string) types.OutputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return types.FormatJSON
	case ".yaml", ".yml":
		return types.FormatYAML
	case ".txt":
		return types.FormatTable
	default:
		return types.FormatCSV
	}
}

// Save writes records to path, or to console when path is empty. An empty
// format is inferred: from the extension for files, table for the console.
// With no records, Save prints NoDataMessage to console and creates no file.
func Save(path string, format types.OutputFormat, records []types.PaperRecord, console io.Writer) error {
	if len(records) == 0 {
		fmt.Fprintln(console, NoDataMessage)
		return nil
	}

	if format == "" {
		if path == "" {
			format = types.FormatTable
		} else {
			format = FormatForPath(path)
		}
	}

	if path == "" {
		return Write(console, format, records)
	}

	var buf bytes.Buffer
	if err := Write(&buf, format, records); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Write renders records to w in format.
func Write(w io.Writer, format types.OutputFormat, records []types.PaperRecord) error {
	switch format {
	case types.FormatCSV:
		return WriteCSV(w, records)
	case types.FormatJSON:
		return WriteJSON(w, records)
	case types.FormatYAML:
		return WriteYAML(w, records)
	case types.FormatTable:
		return WriteTable(w, records)
	default:
		return fmt.Errorf("unsupported output format %q: use csv, json, yaml or table", format)
	}
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records []types.PaperRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []types.PaperRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// WriteYAML writes records as a YAML sequence.
func WriteYAML(w io.Writer, records []types.PaperRecord) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
