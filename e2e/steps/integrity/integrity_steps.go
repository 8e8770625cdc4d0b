package integrity

import (
	"context"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	POSTRaw(path, contentType, body string) error
	GET(path string) error
}

// RegisterSteps registers integrity proof step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &integritySteps{tc: tc}

	ctx.Step(`^I store the document "([^"]*)" as "([^"]*)"$`, steps.storeDocument)
	ctx.Step(`^I store the document "([^"]*)"$`, steps.storeUnnamedDocument)
	ctx.Step(`^I verify the text "([^"]*)"$`, steps.verifyText)
	ctx.Step(`^I upload "([^"]*)" with content "([^"]*)" for verification$`, steps.verifyUpload)
	ctx.Step(`^I request my proof history$`, steps.requestHistory)
}

type integritySteps struct {
	tc TestContext
}

func (s *integritySteps) storeDocument(ctx context.Context, text, filename string) error {
	return s.tc.POST("/integrity/proofs", map[string]interface{}{
		"text":     text,
		"filename": filename,
	})
}

func (s *integritySteps) storeUnnamedDocument(ctx context.Context, text string) error {
	return s.tc.POST("/integrity/proofs", map[string]interface{}{"text": text})
}

func (s *integritySteps) verifyText(ctx context.Context, text string) error {
	return s.tc.POST("/integrity/proofs/verify", map[string]interface{}{"text": text})
}

func (s *integritySteps) verifyUpload(ctx context.Context, filename, content string) error {
	return s.tc.POSTRaw("/integrity/proofs/verify-file?filename="+url.QueryEscape(filename), "text/plain", content)
}

func (s *integritySteps) requestHistory(ctx context.Context) error {
	return s.tc.GET("/integrity/proofs/history")
}
