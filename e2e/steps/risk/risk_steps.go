package risk

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
}

// RegisterSteps registers risk classification step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &riskSteps{tc: tc}

	ctx.Step(`^I classify a report with score (\d+) and a "([^"]*)" flag "([^"]*)"$`, steps.classifyWithFlag)
	ctx.Step(`^I classify a report with score (\d+) and no layers$`, steps.classifyEmpty)
	ctx.Step(`^I classify a report with score (\d+) and recommendation "([^"]*)"$`, steps.classifyWithRecommendation)
	ctx.Step(`^I evaluate the contract:$`, steps.evaluateContract)
	ctx.Step(`^I evaluate the contract "([^"]*)"$`, steps.evaluateContractText)
}

type riskSteps struct {
	tc TestContext
}

func (s *riskSteps) classifyWithFlag(ctx context.Context, score int, severity, title string) error {
	return s.tc.POST("/risk/classify", map[string]interface{}{
		"score": score,
		"layer_results": []map[string]interface{}{
			{
				"layer_name": "Liability",
				"flags": []map[string]interface{}{
					{"clause_id": "c1", "title": title, "risk": severity, "description": "flagged by the rule engine"},
				},
			},
		},
	})
}

func (s *riskSteps) classifyEmpty(ctx context.Context, score int) error {
	return s.tc.POST("/risk/classify", map[string]interface{}{
		"score":         score,
		"layer_results": []interface{}{},
	})
}

func (s *riskSteps) classifyWithRecommendation(ctx context.Context, score int, verdict string) error {
	return s.tc.POST("/risk/classify", map[string]interface{}{
		"score":          score,
		"layer_results":  []interface{}{},
		"recommendation": map[string]string{"verdict": verdict},
	})
}

func (s *riskSteps) evaluateContract(ctx context.Context, doc *godog.DocString) error {
	return s.evaluateContractText(ctx, doc.Content)
}

func (s *riskSteps) evaluateContractText(ctx context.Context, text string) error {
	return s.tc.POST("/risk/evaluate", map[string]interface{}{"text": text})
}
