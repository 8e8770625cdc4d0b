package models

import (
	"strings"

	dErrors "lexchain/pkg/domain-errors"
)

// RiskLevel is the band a score falls into.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskSafe   RiskLevel = "Safe"
)

// Verdict is the final human-facing recommendation.
type Verdict string

const (
	VerdictDoNotSign          Verdict = "DO_NOT_SIGN"
	VerdictProceedWithCaution Verdict = "PROCEED_WITH_CAUTION"
	VerdictSafeToProceed      Verdict = "SAFE_TO_PROCEED"
)

// SeverityTier orders clauses for display. Higher Rank sorts first.
type SeverityTier string

const (
	TierHigh   SeverityTier = "high-risk"
	TierMedium SeverityTier = "medium-risk"
	TierLow    SeverityTier = "low-risk"
)

func (t SeverityTier) Rank() int {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	default:
		return 1
	}
}

// ScoreScaleUnit marks reports whose score is a fraction in [0,1].
const ScoreScaleUnit = "unit"

// DefaultJurisdiction is reported when the rule engine found no governing law.
const DefaultJurisdiction = "India"

// RuleEngineReport is the raw multi-layer report produced by the rule engine.
// It is treated as read-only input.
type RuleEngineReport struct {
	OverallScore   float64         `json:"score"`
	ScoreScale     string          `json:"score_scale,omitempty"`
	RiskLevel      string          `json:"risk_level,omitempty"`
	Layers         []Layer         `json:"layer_results"`
	GoverningLaw   *GoverningLaw   `json:"governing_law,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

type Layer struct {
	Name  string  `json:"layer_name"`
	Score float64 `json:"score,omitempty"`
	Flags []Flag  `json:"flags"`
}

type Flag struct {
	ID           string  `json:"clause_id"`
	Title        string  `json:"title"`
	Severity     string  `json:"risk"`
	Description  string  `json:"description"`
	OriginalText *string `json:"original_text,omitempty"`
}

type GoverningLaw struct {
	Country   string `json:"country"`
	Court     string `json:"court,omitempty"`
	Supported bool   `json:"supported"`
}

type Recommendation struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason,omitempty"`
}

// NormalizedClause is one flag, flattened for display.
type NormalizedClause struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	SeverityTier SeverityTier `json:"severity_tier"`
	OriginalText string       `json:"original_text"`
	Explanation  string       `json:"explanation"`
}

// RiskVerdict is derived from a report on every evaluation and never stored.
type RiskVerdict struct {
	Score             int                `json:"score"`
	RiskLevel         RiskLevel          `json:"risk_level"`
	Verdict           Verdict            `json:"verdict"`
	Clauses           []NormalizedClause `json:"clauses"`
	Jurisdiction      string             `json:"jurisdiction"`
	Reason            string             `json:"reason,omitempty"`
	VerdictOverridden bool               `json:"verdict_overridden"`
}

// Evaluation pairs the verdict with the report it was derived from.
// Synthetic is set when the report is the built-in sample.
type Evaluation struct {
	Verdict   RiskVerdict      `json:"verdict"`
	Report    RuleEngineReport `json:"report"`
	Synthetic bool             `json:"synthetic"`
}

type EvaluateRequest struct {
	Text string `json:"text"`
}

func (r *EvaluateRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "text cannot be empty")
	}
	return nil
}
