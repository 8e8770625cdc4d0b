// Package engine is the HTTP client for the rule engine that scores contracts.
package engine

import (
	"context"
	"net/http"

	"lexchain/internal/risk/models"
	"lexchain/internal/upstream"
)

const PathEvaluate = "/evaluate"

type Client struct {
	http *upstream.Client
}

func New(c *upstream.Client) *Client {
	return &Client{http: c}
}

type evaluateRequest struct {
	Text string `json:"text"`
}

type evaluateResponse struct {
	RuleEngine *models.RuleEngineReport `json:"rule_engine"`
}

// Evaluate submits contract text and returns the engine's raw report.
func (c *Client) Evaluate(ctx context.Context, text string) (*models.RuleEngineReport, error) {
	var out evaluateResponse
	if err := c.http.Do(ctx, http.MethodPost, PathEvaluate, evaluateRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if out.RuleEngine == nil {
		return nil, upstream.NewError(upstream.CategoryBadData, c.http.Name(), "evaluate answer has no rule_engine report", nil)
	}
	return out.RuleEngine, nil
}

// Health probes the rule engine.
func (c *Client) Health(ctx context.Context) error {
	return c.http.Health(ctx)
}
