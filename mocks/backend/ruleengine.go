package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"lexchain/internal/risk/models"
)

const (
	severityHigh   = "High"
	severityMedium = "Medium"
	severityLow    = "Low"
)

// Layer names, in evaluation order.
var layerNames = []string{
	"Structural",
	"Termination",
	"Liability",
	"Employment",
	"IP & Confidentiality",
	"Dispute Resolution",
	"Fairness",
}

type clause struct {
	id   string
	text string
}

type rule struct {
	layer       int
	title       string
	description string
	severity    string
	match       func(lower string) bool
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var rules = []rule{
	{
		layer:       0,
		title:       "Excessively Long Clause",
		severity:    severityMedium,
		description: "Very long clauses tend to bury obligations; review it line by line.",
		match:       func(s string) bool { return len(s) > 1500 },
	},
	{
		layer:       0,
		title:       "Discretionary Language",
		severity:    severityMedium,
		description: "One party holds sole or irrevocable discretion over a critical term.",
		match:       func(s string) bool {
			return containsAny(s, "solely", "irrevocably", "sole discretion") &&
				containsAny(s, "termination", "salary", "compensation", "payment")
		},
	},
	{
		layer:       1,
		title:       "Immediate Termination",
		severity:    severityHigh,
		description: "The agreement can be ended without notice.",
		match:       func(s string) bool { return containsAny(s, "without notice", "immediate termination") },
	},
	{
		layer:       1,
		title:       "Unilateral Termination",
		severity:    severityHigh,
		description: "Only the company may terminate the agreement.",
		match:       func(s string) bool {
			return strings.Contains(s, "company may terminate") && !strings.Contains(s, "employee may terminate")
		},
	},
	{
		layer:       1,
		title:       "Termination for Convenience",
		severity:    severityMedium,
		description: "The company can terminate for convenience without reciprocal rights.",
		match:       func(s string) bool {
			return containsAny(s, "termination for convenience", "terminate for convenience") &&
				strings.Contains(s, "company") && !strings.Contains(s, "employee")
		},
	},
	{
		layer:       2,
		title:       "Unlimited Liability",
		severity:    severityHigh,
		description: "Liability is not capped.",
		match:       func(s string) bool {
			return containsAny(s, "unlimited liability", "no cap on liability") ||
				(strings.Contains(s, "liability") && strings.Contains(s, "unlimited") && !strings.Contains(s, "not"))
		},
	},
	{
		layer:       2,
		title:       "Consequential Damages",
		severity:    severityHigh,
		description: "Consequential or indirect damages are recoverable.",
		match:       func(s string) bool {
			return containsAny(s, "consequential damages", "indirect damages", "special damages") &&
				!containsAny(s, "not be liable", "neither party shall be liable", "excluding", "excluded", "waiver of")
		},
	},
	{
		layer:       2,
		title:       "One-Sided Indemnity",
		severity:    severityHigh,
		description: "The employee indemnifies the company with no reciprocal indemnity.",
		match:       func(s string) bool {
			return containsAny(s, "employee shall indemnify", "indemnify the company", "hold the company harmless") &&
				!containsAny(s, "company shall indemnify", "mutual indemnity", "mutually indemnify", "indemnify the employee")
		},
	},
	{
		layer:       3,
		title:       "Post-Employment Non-Compete",
		severity:    severityHigh,
		description: "Post-employment non-compete clauses are generally void under Section 27 of the Indian Contract Act.",
		match:       func(s string) bool {
			return containsAny(s, "non-compete", "non compete", "restraint of trade") &&
				containsAny(s, "after termination", "post termination", "post-termination")
		},
	},
	{
		layer:       3,
		title:       "Employment Bond / Exit Penalty",
		severity:    severityHigh,
		description: "Employment bonds and exit penalties may be coercive and unenforceable under Indian law.",
		match:       func(s string) bool {
			return strings.Contains(s, "bond") ||
				(strings.Contains(s, "penalty") && strings.Contains(s, "exit")) ||
				(strings.Contains(s, "liquidated damages") && strings.Contains(s, "employment"))
		},
	},
	{
		layer:       4,
		title:       "Overreaching IP Assignment",
		severity:    severityHigh,
		description: "Assignment reaches inventions made before or outside the engagement.",
		match:       func(s string) bool {
			return containsAny(s, "intellectual property", "invention", "assignment") &&
				((strings.Contains(s, "past") && strings.Contains(s, "future")) || strings.Contains(s, "prior to employment"))
		},
	},
	{
		layer:       4,
		title:       "Perpetual Confidentiality",
		severity:    severityMedium,
		description: "Confidentiality obligations never expire.",
		match:       func(s string) bool {
			return containsAny(s, "confidential", "non-disclosure") &&
				containsAny(s, "perpetual", "indefinite", "forever") &&
				!containsAny(s, "period of", "years from", "years after", "term of this agreement")
		},
	},
	{
		layer:       5,
		title:       "Foreign Arbitration Seat",
		severity:    severityMedium,
		description: "Disputes are arbitrated outside India.",
		match:       func(s string) bool {
			return containsAny(s, "arbitration", "dispute") &&
				containsAny(s, "singapore", "london", "new york", "hong kong", "dubai")
		},
	},
	{
		layer:       5,
		title:       "Biased Arbitrator Appointment",
		severity:    severityHigh,
		description: "The company alone appoints the sole arbitrator.",
		match:       func(s string) bool {
			return strings.Contains(s, "sole arbitrator") &&
				containsAny(s, "appointed by the company", "selected by the company")
		},
	},
	{
		layer:       6,
		title:       "Unilateral Amendment",
		severity:    severityHigh,
		description: "Terms can be changed by one party alone.",
		match:       func(s string) bool {
			return containsAny(s, "amend", "modify") && containsAny(s, "sole discretion", "unilaterally")
		},
	},
	{
		layer:       6,
		title:       "Waiver of Rights",
		severity:    severityHigh,
		description: "Statutory or legal rights are waived.",
		match:       func(s string) bool {
			return strings.Contains(s, "waive") &&
				containsAny(s, "statutory rights", "legal rights", "claims under law")
		},
	},
}

var headingPattern = regexp.MustCompile(`(?i)^(article|section|clause)?\s*[0-9]+(\.[0-9]+)*\.?\s+[a-z\s]+$`)

// segment splits contract text into numbered clauses. A heading line or a
// blank line starts a new clause.
func segment(text string) []clause {
	var (
		out     []clause
		current []string
	)
	flush := func() {
		if body := strings.TrimSpace(strings.Join(current, "\n")); body != "" {
			out = append(out, clause{id: strconv.Itoa(len(out) + 1), text: body})
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		upper := strings.ToUpper(line) == line && strings.ToLower(line) != line
		if (upper && len(line) > 3 && len(line) < 100) || headingPattern.MatchString(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return out
}

type flagKey struct {
	layer    int
	title    string
	clauseID string
}

// Evaluate runs every rule over every clause and aggregates the result.
func Evaluate(text string) models.RuleEngineReport {
	layers := make([]models.Layer, len(layerNames))
	for i, name := range layerNames {
		layers[i] = models.Layer{Name: name, Flags: []models.Flag{}}
	}

	seen := map[flagKey]bool{}
	var (
		high, medium   int
		criticalMedium bool
		section27      bool
	)
	for _, c := range segment(text) {
		lower := strings.ToLower(c.text)
		for _, r := range rules {
			if !r.match(lower) {
				continue
			}
			key := flagKey{layer: r.layer, title: r.title, clauseID: c.id}
			if seen[key] {
				continue
			}
			seen[key] = true

			original := c.text
			layers[r.layer].Flags = append(layers[r.layer].Flags, models.Flag{
				ID:           c.id,
				Title:        r.title,
				Severity:     r.severity,
				Description:  r.description,
				OriginalText: &original,
			})
			switch r.severity {
			case severityHigh:
				high++
				if strings.Contains(r.title, "Non-Compete") || strings.Contains(r.title, "Employment Bond") {
					section27 = true
				}
			case severityMedium:
				medium++
				if r.layer == 2 || r.layer == 3 {
					criticalMedium = true
				}
			}
		}
	}
	for i := range layers {
		layers[i].Score = layerScore(layers[i].Flags)
	}

	report := models.RuleEngineReport{
		Layers:       layers,
		GoverningLaw: detectGoverningLaw(text),
	}
	var verdict, reason string
	switch {
	case section27:
		verdict, reason = "DO_NOT_SIGN", "Void under Section 27 (Non-Compete/Bond detected)."
		report.OverallScore, report.RiskLevel = 40, severityHigh
	case high >= 2:
		verdict, reason = "DO_NOT_SIGN", fmt.Sprintf("Multiple Critical Risks detected (%d). Do not sign.", high)
		report.OverallScore, report.RiskLevel = max(10, 50-float64(2*high)), severityHigh
	case high == 1:
		verdict, reason = "PROCEED_WITH_CAUTION", "One critical risk detected. Review carefully."
		report.OverallScore, report.RiskLevel = 60, severityHigh
	case medium >= 2 || criticalMedium:
		verdict, reason = "PROCEED_WITH_CAUTION", "Multiple or Critical Moderate Risks found."
		report.OverallScore, report.RiskLevel = 70, severityMedium
	case medium == 1:
		verdict, reason = "PROCEED", "Risks are manageable."
		report.OverallScore, report.RiskLevel = 80, severityMedium
	default:
		verdict, reason = "PROCEED", "Contract appears standard with no significant risks detected."
		report.OverallScore, report.RiskLevel = 90, severityLow
	}
	if high > 0 {
		report.OverallScore = min(report.OverallScore, 60)
	}
	if medium >= 2 {
		report.OverallScore = min(report.OverallScore, 75)
	}
	report.Recommendation = &models.Recommendation{Verdict: verdict, Reason: reason}
	return report
}

func layerScore(flags []models.Flag) float64 {
	score := 100.0
	for _, f := range flags {
		switch f.Severity {
		case severityHigh:
			score -= 30
		case severityMedium:
			score -= 15
		}
	}
	return max(score, 0)
}

var indianCourts = []struct{ keyword, court string }{
	{"delhi", "New Delhi"},
	{"mumbai", "Mumbai"},
	{"bangalore", "Bengaluru"},
	{"bengaluru", "Bengaluru"},
	{"chennai", "Chennai"},
}

// detectGoverningLaw returns nil when the text has no governing-law clause.
func detectGoverningLaw(text string) *models.GoverningLaw {
	lower := strings.ToLower(text)
	if !containsAny(lower, "governed by", "laws of", "jurisdiction") {
		return nil
	}
	court := "Unknown"
	for _, c := range indianCourts {
		if strings.Contains(lower, c.keyword) {
			court = c.court
			break
		}
	}
	if strings.Contains(lower, "india") || court != "Unknown" {
		return &models.GoverningLaw{Country: "India", Court: court, Supported: true}
	}
	return &models.GoverningLaw{Country: "Foreign/Unknown", Court: court, Supported: false}
}

type evaluateRequest struct {
	Text string `json:"text"`
}

func handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		sendError(w, http.StatusUnprocessableEntity, "text is empty")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rule_engine": Evaluate(req.Text)})
}
