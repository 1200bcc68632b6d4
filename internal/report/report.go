// Package report writes a machine-readable record of a run as canonical JSON
// (RFC 8785), so that reports of identical runs are byte-identical.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	jcs "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/beluga-cc/tstrun/internal/sequencer"
)

// Report is the JSON document.
type Report struct {
	Suite   string   `json:"suite"`
	Total   int      `json:"total"`
	Failed  []string `json:"failed"`
	Results []Entry  `json:"results"`
}

// Entry is the result of one test.
type Entry struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// FromSummary converts a run summary.
func FromSummary(s sequencer.Summary) Report {
	r := Report{
		Suite:   s.Suite,
		Total:   s.Total(),
		Failed:  append([]string{}, s.Failed...),
		Results: make([]Entry, 0, len(s.Results)),
	}
	for _, res := range s.Results {
		r.Results = append(r.Results, Entry{Name: res.Name, OK: !res.Failed, Message: res.Message})
	}
	return r
}

// Marshal encodes the report as canonical JSON.
func Marshal(r Report) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize report: %w", err)
	}
	return out, nil
}

// WriteFile writes the report to path.
func WriteFile(path string, r Report) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
