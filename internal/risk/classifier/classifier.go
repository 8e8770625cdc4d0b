// Package classifier turns a rule-engine report into a verdict and an ordered
// clause list. Classification is pure: the same report always yields the same
// verdict, and the report is never modified.
package classifier

import (
	"math"
	"slices"
	"strings"

	"lexchain/internal/risk/models"
)

// Score band upper bounds, inclusive.
const (
	HighRiskMax   = 40
	MediumRiskMax = 70
)

// Classify derives the verdict for report.
func Classify(report models.RuleEngineReport) models.RiskVerdict {
	score := Score(report.OverallScore, report.ScoreScale)
	level, verdict := Band(score)

	v := models.RiskVerdict{
		Score:        score,
		RiskLevel:    level,
		Verdict:      verdict,
		Clauses:      Clauses(report.Layers),
		Jurisdiction: models.DefaultJurisdiction,
	}
	if law := report.GoverningLaw; law != nil && strings.TrimSpace(law.Country) != "" {
		v.Jurisdiction = law.Country
	}
	if rec := report.Recommendation; rec != nil {
		v.Reason = rec.Reason
		// Only the label is overridden; score and level stay threshold-derived.
		if override, ok := NormalizeVerdict(rec.Verdict); ok {
			v.VerdictOverridden = override != verdict
			v.Verdict = override
		}
	}
	return v
}

// Score rounds raw half away from zero and clamps it to [0,100]. Unit-scale
// scores are fractions and are scaled up first.
func Score(raw float64, scale string) int {
	if math.IsNaN(raw) {
		return 0
	}
	if scale == models.ScoreScaleUnit {
		raw *= 100
	}
	rounded := math.Round(raw)
	switch {
	case rounded < 0:
		return 0
	case rounded > 100:
		return 100
	}
	return int(rounded)
}

// Band maps a score in [0,100] to its risk level and default verdict.
func Band(score int) (models.RiskLevel, models.Verdict) {
	switch {
	case score <= HighRiskMax:
		return models.RiskHigh, models.VerdictDoNotSign
	case score <= MediumRiskMax:
		return models.RiskMedium, models.VerdictProceedWithCaution
	default:
		return models.RiskSafe, models.VerdictSafeToProceed
	}
}

// NormalizeVerdict canonicalizes an upstream verdict label. It accepts any
// case and either spaces or hyphens as separators; "PROCEED" is the rule
// engine's spelling of SAFE_TO_PROCEED. ok is false for unknown labels.
func NormalizeVerdict(label string) (models.Verdict, bool) {
	key := strings.ToUpper(strings.TrimSpace(label))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch models.Verdict(key) {
	case models.VerdictDoNotSign:
		return models.VerdictDoNotSign, true
	case models.VerdictProceedWithCaution:
		return models.VerdictProceedWithCaution, true
	case models.VerdictSafeToProceed, "PROCEED":
		return models.VerdictSafeToProceed, true
	}
	return "", false
}

// Tier maps a flag severity to its display tier. Unknown severities are low-risk.
func Tier(severity string) models.SeverityTier {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high":
		return models.TierHigh
	case "medium":
		return models.TierMedium
	default:
		return models.TierLow
	}
}

// Placeholder stands in for a flag's missing original text.
func Placeholder(clauseID string) string {
	return "(Clause ID: " + clauseID + ") - Text unavailable."
}

// Clauses flattens every flag in layer order and stable-sorts by tier,
// highest first. The result is never nil.
func Clauses(layers []models.Layer) []models.NormalizedClause {
	clauses := []models.NormalizedClause{}
	for _, layer := range layers {
		for _, flag := range layer.Flags {
			text := ""
			if flag.OriginalText != nil {
				text = *flag.OriginalText
			}
			if strings.TrimSpace(text) == "" {
				text = Placeholder(flag.ID)
			}
			clauses = append(clauses, models.NormalizedClause{
				ID:           flag.ID,
				Title:        flag.Title,
				SeverityTier: Tier(flag.Severity),
				OriginalText: text,
				Explanation:  flag.Description,
			})
		}
	}
	slices.SortStableFunc(clauses, func(a, b models.NormalizedClause) int {
		return b.SeverityTier.Rank() - a.SeverityTier.Rank()
	})
	return clauses
}
