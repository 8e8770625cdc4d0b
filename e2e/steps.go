package e2e

import (
	"github.com/cucumber/godog"

	"lexchain/e2e/steps/common"
	"lexchain/e2e/steps/integrity"
	"lexchain/e2e/steps/risk"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	integrity.RegisterSteps(ctx, tc)
	risk.RegisterSteps(ctx, tc)
}
