// internal/recommendation/extraction.go
package recommendation

import (
	"strings"
	"unicode/utf8"
)

// AnalysisErrorMarker prefixes the notes of an extraction that could not be
// parsed. Its presence enables the local people fallback in Normalize.
const AnalysisErrorMarker = "Error during analysis"

const (
	DryRunNote    = "Dry run mode (Gemini disabled)"
	DefaultReason = "Analisis AI"

	maxErrorNoteRunes = 150
)

// ExtractionResult is the untrusted output of the language model. Every field
// is kept loosely typed so decoding never fails on a single bad field.
type ExtractionResult struct {
	OriginCity   interface{} `json:"originCity"`
	City         interface{} `json:"city"`
	Days         interface{} `json:"days"`
	People       interface{} `json:"people"`
	Type         interface{} `json:"type"`
	BudgetPerDay interface{} `json:"budgetPerDay"`
	Notes        interface{} `json:"notes"`
}

// Budget is the typed form of budgetPerDay for callers building results in code.
type Budget struct {
	Min interface{} `json:"min"`
	Max interface{} `json:"max"`
}

// NotesText returns notes when it is a string, otherwise "".
func (r *ExtractionResult) NotesText() string {
	if r == nil {
		return ""
	}
	s, _ := r.Notes.(string)
	return s
}

// IsDegraded reports whether the analyzer flagged its own output as unusable.
func (r *ExtractionResult) IsDegraded() bool {
	return strings.Contains(r.NotesText(), AnalysisErrorMarker)
}

func emptyExtraction(notes string) *ExtractionResult {
	return &ExtractionResult{
		BudgetPerDay: Budget{},
		Notes:        notes,
	}
}

// DegradedExtraction builds the all-null result carried forward when the
// analyzer answered but the answer was unusable.
func DegradedExtraction(msg string) *ExtractionResult {
	if msg == "" {
		msg = "Unknown error"
	}
	if utf8.RuneCountInString(msg) > maxErrorNoteRunes {
		msg = string([]rune(msg)[:maxErrorNoteRunes]) + "..."
	}
	return emptyExtraction(AnalysisErrorMarker + ": " + msg)
}

// DryRunExtraction is returned when the language model is disabled.
func DryRunExtraction() *ExtractionResult {
	return emptyExtraction(DryRunNote)
}
