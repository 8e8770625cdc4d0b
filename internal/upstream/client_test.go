package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/middleware/auth"
	"lexchain/pkg/requestcontext"
)

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	client  *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.handler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	s.client = New(Config{
		Name:    "ledger",
		BaseURL: s.server.URL + "/",
		Timeout: 200 * time.Millisecond,
		Tokens:  auth.ContextTokenSource{Fallback: "service-token"},
	})
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) TestForwardsBearerAndRequestID() {
	var gotAuth, gotID, gotPath string
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-ID")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"exists":true}`))
	}
	ctx := requestcontext.WithBearer(context.Background(), "user-token")
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	var out struct {
		Exists bool `json:"exists"`
	}
	err := s.client.Do(ctx, http.MethodPost, "/proof:verify", map[string]string{"fingerprint": "0xab"}, &out)

	s.Require().NoError(err)
	s.True(out.Exists)
	s.Equal("Bearer user-token", gotAuth)
	s.Equal("req-1", gotID)
	s.Equal("/proof:verify", gotPath)
}

func (s *ClientSuite) TestStatusClassification() {
	cases := []struct {
		status int
		body   string
		want   Category
	}{
		{http.StatusUnauthorized, "", CategoryAuthentication},
		{http.StatusForbidden, "", CategoryAuthentication},
		{http.StatusNotFound, "", CategoryNotFound},
		{http.StatusTooManyRequests, "", CategoryRateLimited},
		{http.StatusServiceUnavailable, "", CategoryOutage},
		{http.StatusBadGateway, "", CategoryOutage},
		{http.StatusUnprocessableEntity, `{"error":"quota_exceeded","message":"Daily quota exceeded"}`, CategoryRejected},
		{http.StatusInternalServerError, "", CategoryInternal},
	}
	for _, tc := range cases {
		s.Run(http.StatusText(tc.status), func() {
			s.handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}
			err := s.client.Do(context.Background(), http.MethodGet, "/proof/history", nil, nil)
			s.Require().Error(err)
			s.Equal(tc.want, CategoryOf(err))
		})
	}
}

func (s *ClientSuite) TestRejectionCarriesReason() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"quota_exceeded","message":"Daily quota exceeded"}`))
	}
	err := s.client.Do(context.Background(), http.MethodPost, "/proof", map[string]string{}, nil)

	s.Equal(CategoryRejected, CategoryOf(err))
	s.Equal("Daily quota exceeded", ReasonOf(err))
}

func (s *ClientSuite) TestTimeoutIsTransportFailure() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}
	err := s.client.Do(context.Background(), http.MethodGet, "/proof/history", nil, nil)

	var ue *Error
	s.Require().ErrorAs(err, &ue)
	s.Equal(CategoryTimeout, ue.Category)
	s.True(ue.TransportFailure())
	s.True(ue.Timeout())
}

func (s *ClientSuite) TestCallerCancellationIsNotTransport() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := s.client.Do(ctx, http.MethodGet, "/proof/history", nil, nil)

	s.Equal(CategoryCanceled, CategoryOf(err))
	var ue *Error
	s.Require().ErrorAs(err, &ue)
	s.False(ue.TransportFailure())
}

func (s *ClientSuite) TestMalformedBodyIsBadData() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}
	var out map[string]any
	err := s.client.Do(context.Background(), http.MethodGet, "/proof/history", nil, &out)
	s.Equal(CategoryBadData, CategoryOf(err))
}

func (s *ClientSuite) TestHealth() {
	s.NoError(s.client.Health(context.Background()))

	s.handler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }
	s.Equal(CategoryOutage, CategoryOf(s.client.Health(context.Background())))
}

func TestUnreachableBackendIsOutage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{Name: "ledger", BaseURL: url, Timeout: time.Second})
	err := c.Do(context.Background(), http.MethodGet, "/health", nil, nil)

	require.Error(t, err)
	assert.Equal(t, CategoryOutage, CategoryOf(err))
}

func TestMissingCredentialIsNotATransportFailure(t *testing.T) {
	c := New(Config{Name: "ledger", BaseURL: "http://127.0.0.1:1", Tokens: auth.ContextTokenSource{}})
	err := c.Do(context.Background(), http.MethodGet, "/proof/history", nil, nil)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	var upErr *Error
	assert.False(t, errors.As(err, &upErr), "the backend was never called")
}
