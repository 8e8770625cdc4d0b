package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexchain/internal/upstream"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(upstream.New(upstream.Config{Name: "rule-engine", BaseURL: srv.URL, Timeout: time.Second}))
}

func TestEvaluate(t *testing.T) {
	var gotBody map[string]string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathEvaluate, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"rule_engine":{
			"score": 38.6,
			"governing_law": {"country": "India", "court": "Mumbai", "supported": true},
			"recommendation": {"verdict": "DO_NOT_SIGN", "reason": "Void under Section 27."},
			"layer_results": [{"layer_name": "Employment", "flags": [
				{"clause_id": "4", "title": "Post-Employment Non-Compete", "risk": "High", "description": "void"}
			]}]
		}}`))
	})

	report, err := c.Evaluate(context.Background(), "The employee shall not compete after termination.")

	require.NoError(t, err)
	assert.Equal(t, "The employee shall not compete after termination.", gotBody["text"])
	assert.InDelta(t, 38.6, report.OverallScore, 1e-9)
	require.Len(t, report.Layers, 1)
	require.Len(t, report.Layers[0].Flags, 1)
	flag := report.Layers[0].Flags[0]
	assert.Equal(t, "High", flag.Severity)
	assert.Nil(t, flag.OriginalText)
	assert.Equal(t, "DO_NOT_SIGN", report.Recommendation.Verdict)
	assert.Equal(t, "Mumbai", report.GoverningLaw.Court)
}

func TestEvaluateWithoutReportIsBadData(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Evaluate(context.Background(), "x")

	assert.Equal(t, upstream.CategoryBadData, upstream.CategoryOf(err))
}

func TestEvaluateRejection(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad_request","message":"Contract text cannot be empty"}`))
	})

	_, err := c.Evaluate(context.Background(), " ")

	assert.Equal(t, upstream.CategoryRejected, upstream.CategoryOf(err))
	assert.Equal(t, "Contract text cannot be empty", upstream.ReasonOf(err))
}

func TestEvaluateOutageIsTransportFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Evaluate(context.Background(), "x")

	var uerr *upstream.Error
	require.ErrorAs(t, err, &uerr)
	assert.True(t, uerr.TransportFailure())
}
