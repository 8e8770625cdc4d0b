package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	PUT(path string, body interface{}) error
	SignIn(subject string) error
	SignOut()
	SetBackendDown(down bool)
	ProbeLedger() bool
	LedgerProofs() int
	GetResponseField(field string) (interface{}, error)
	ResponseContains(text string) bool
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers common step definitions used across features
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Background steps
	ctx.Step(`^the verdict pipeline is running$`, steps.pipelineIsRunning)
	ctx.Step(`^I am signed in as "([^"]*)"$`, steps.signedInAs)
	ctx.Step(`^I am signed out$`, steps.signedOut)
	ctx.Step(`^I request readiness$`, steps.requestReadiness)

	// Backend and mode steps
	ctx.Step(`^the ledger and rule engine are offline$`, steps.backendOffline)
	ctx.Step(`^the ledger and rule engine are back online$`, steps.backendOnline)
	ctx.Step(`^the health monitor probes the ledger$`, steps.probeLedger)
	ctx.Step(`^I force the mode to "([^"]*)"$`, steps.forceMode)
	ctx.Step(`^the operating mode should be "([^"]*)"$`, steps.modeShouldBe)
	ctx.Step(`^the ledger should hold (\d+) proofs?$`, steps.ledgerShouldHold)

	// Response assertion steps
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should contain "([^"]*)"$`, steps.responseFieldShouldContain)
	ctx.Step(`^the response field "([^"]*)" should be an empty list$`, steps.responseFieldShouldBeEmptyList)
	ctx.Step(`^the response should be a list of (\d+) entries$`, steps.responseShouldBeListOf)
	ctx.Step(`^log "([^"]*)"$`, steps.logMessage)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) pipelineIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/health/live"); err != nil {
		return err
	}
	return s.responseStatusShouldBe(ctx, 200)
}

func (s *commonSteps) signedInAs(ctx context.Context, subject string) error {
	return s.tc.SignIn(subject)
}

func (s *commonSteps) signedOut(ctx context.Context) error {
	s.tc.SignOut()
	return nil
}

func (s *commonSteps) requestReadiness(ctx context.Context) error {
	return s.tc.GET("/health/ready")
}

func (s *commonSteps) backendOffline(ctx context.Context) error {
	s.tc.SetBackendDown(true)
	return nil
}

func (s *commonSteps) backendOnline(ctx context.Context) error {
	s.tc.SetBackendDown(false)
	return nil
}

func (s *commonSteps) probeLedger(ctx context.Context) error {
	s.tc.ProbeLedger()
	return nil
}

func (s *commonSteps) forceMode(ctx context.Context, mode string) error {
	if err := s.tc.PUT("/mode", map[string]string{"mode": mode, "reason": "e2e"}); err != nil {
		return err
	}
	return s.responseStatusShouldBe(ctx, 200)
}

func (s *commonSteps) modeShouldBe(ctx context.Context, expected string) error {
	if err := s.tc.GET("/mode"); err != nil {
		return err
	}
	return s.responseFieldShouldEqual(ctx, "mode", expected)
}

func (s *commonSteps) ledgerShouldHold(ctx context.Context, expected int) error {
	if got := s.tc.LedgerProofs(); got != expected {
		return fmt.Errorf("expected the ledger to hold %d proofs but it holds %d", expected, got)
	}
	return nil
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	if got := s.tc.GetLastResponseStatus(); got != expectedStatus {
		return fmt.Errorf("expected status %d but got %d\nResponse: %s", expectedStatus, got, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseShouldContain(ctx context.Context, text string) error {
	if !s.tc.ResponseContains(text) {
		return fmt.Errorf("response does not contain: %s\nResponse: %s", text, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, expectedValue string) error {
	actualValue, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(actualValue) != expectedValue {
		return fmt.Errorf("field %s: expected %s but got %v", field, expectedValue, actualValue)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldContain(ctx context.Context, field, substring string) error {
	actualValue, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if !strings.Contains(fmt.Sprint(actualValue), substring) {
		return fmt.Errorf("field %s: expected to contain %q but got %v", field, substring, actualValue)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBeEmptyList(ctx context.Context, field string) error {
	actualValue, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	list, ok := actualValue.([]interface{})
	if !ok {
		return fmt.Errorf("field %s: expected a list but got %T", field, actualValue)
	}
	if len(list) != 0 {
		return fmt.Errorf("field %s: expected an empty list but got %d entries", field, len(list))
	}
	return nil
}

func (s *commonSteps) responseShouldBeListOf(ctx context.Context, expected int) error {
	var list []json.RawMessage
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &list); err != nil {
		return fmt.Errorf("response is not a list: %w", err)
	}
	if len(list) != expected {
		return fmt.Errorf("expected %d entries but got %d", expected, len(list))
	}
	return nil
}

func (s *commonSteps) logMessage(ctx context.Context, message string) error {
	fmt.Println(message)
	return nil
}
