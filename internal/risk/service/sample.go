package service

import "lexchain/internal/risk/models"

// SampleReport is the report served while the rule engine is out of reach.
// Each call returns a fresh copy.
func SampleReport() models.RuleEngineReport {
	liability := "The Service Provider shall be liable for all damages..."
	termination := "Client may terminate this agreement..."
	return models.RuleEngineReport{
		OverallScore: 72,
		RiskLevel:    "Medium",
		GoverningLaw: &models.GoverningLaw{Country: "India", Court: "New Delhi", Supported: true},
		Layers: []models.Layer{
			{
				Name:  "Liability",
				Score: 60,
				Flags: []models.Flag{{
					ID:           "c1",
					Title:        "Unlimited Liability",
					Severity:     "High",
					Description:  "Clause suggests uncapped liability for the service provider.",
					OriginalText: &liability,
				}},
			},
			{
				Name:  "Termination",
				Score: 80,
				Flags: []models.Flag{{
					ID:           "c2",
					Title:        "Termination for Convenience",
					Severity:     "Medium",
					Description:  "Client may terminate with 30 days notice.",
					OriginalText: &termination,
				}},
			},
		},
	}
}
