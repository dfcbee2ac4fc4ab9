// Package extract turns a reviewer's raw output into structured
// findings. Decode failures are carried as data on the result, not
// returned as errors, so downstream aggregation is branch-free.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/joescharf/quorum/internal/models"
)

// rawFinding is the JSON shape reviewers are asked to emit. Severity
// and confidence arrive as float64 so that "8.0" and fractional
// overshoots still decode.
type rawFinding struct {
	File        string  `json:"file"`
	LineStart   int     `json:"line_start"`
	LineEnd     int     `json:"line_end"`
	Category    string  `json:"category"`
	Severity    float64 `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
	Remediation string  `json:"remediation"`
}

// Extraction is the tagged result of extracting one response: either
// findings, or a parse error, or neither (absent response).
type Extraction struct {
	ReviewerID string
	Received   bool
	Findings   []models.Finding
	ParseErr   string
}

// Extract decodes one reviewer response. It is a pure function of its
// input and never fails: an absent response yields zero findings and
// no parse error; an undecodable one yields zero findings and a
// parse error string.
func Extract(resp models.ReviewerResponse) Extraction {
	ex := Extraction{ReviewerID: resp.ReviewerID, Received: resp.Received}
	if !resp.Received {
		return ex
	}

	raw, err := decodeFindings(resp.RawOutput)
	if err != nil {
		ex.ParseErr = err.Error()
		return ex
	}

	for _, r := range raw {
		if strings.TrimSpace(r.File) == "" || strings.TrimSpace(r.Description) == "" {
			continue
		}
		f := models.Finding{
			File:        r.File,
			LineStart:   r.LineStart,
			LineEnd:     r.LineEnd,
			Category:    models.FindingCategory(strings.ToLower(strings.TrimSpace(r.Category))),
			Severity:    clampScale(r.Severity),
			Confidence:  clampScale(r.Confidence),
			Description: strings.TrimSpace(r.Description),
			Remediation: strings.TrimSpace(r.Remediation),
			ReviewerID:  resp.ReviewerID,
		}
		if f.LineStart < 1 {
			f.LineStart = 1
		}
		if f.LineEnd < f.LineStart {
			f.LineEnd = f.LineStart
		}
		ex.Findings = append(ex.Findings, f)
	}
	return ex
}

// decodeFindings accepts either a bare JSON array of findings or an
// object with a "findings" key, with one jsonrepair pass if the text
// doesn't parse as-is.
func decodeFindings(output string) ([]rawFinding, error) {
	text := stripFences(strings.TrimSpace(output))
	if text == "" {
		return nil, fmt.Errorf("empty reviewer output")
	}

	if raw, err := unmarshalFindings(text); err == nil {
		return raw, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("reviewer output is not valid JSON and could not be repaired: %w", err)
	}
	raw, err := unmarshalFindings(repaired)
	if err != nil {
		return nil, fmt.Errorf("repaired reviewer output does not decode as findings: %w", err)
	}
	return raw, nil
}

func unmarshalFindings(text string) ([]rawFinding, error) {
	var list []rawFinding
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Findings []rawFinding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Findings == nil {
		return nil, fmt.Errorf("no findings array present")
	}
	return wrapped.Findings, nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// clampScale rounds to the nearest integer and clamps into [1,10].
func clampScale(v float64) int {
	n := int(v + 0.5)
	if n < models.SeverityMin {
		return models.SeverityMin
	}
	if n > models.SeverityMax {
		return models.SeverityMax
	}
	return n
}
