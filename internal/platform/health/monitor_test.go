package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"lexchain/internal/upstream"
	"lexchain/pkg/platform/circuit"
)

type proberFunc func(ctx context.Context) error

func (f proberFunc) Health(ctx context.Context) error { return f(ctx) }

type probeCounter struct {
	reachable, unreachable int
}

func (p *probeCounter) RecordProbe(reachable bool, _ float64) {
	if reachable {
		p.reachable++
		return
	}
	p.unreachable++
}

type MonitorSuite struct {
	suite.Suite
	ctrl     *circuit.Controller
	recorder *probeCounter
	logger   *slog.Logger
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorSuite))
}

func (s *MonitorSuite) SetupTest() {
	s.ctrl = circuit.NewController()
	s.recorder = &probeCounter{}
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *MonitorSuite) monitor(p Prober, opts ...MonitorOption) *Monitor {
	opts = append([]MonitorOption{WithRecorder(s.recorder), WithLogger(s.logger)}, opts...)
	return NewMonitor(p, s.ctrl, opts...)
}

func (s *MonitorSuite) TestReachableRecoversLive() {
	s.ctrl.Degrade("earlier timeout")

	res := s.monitor(proberFunc(func(context.Context) error { return nil })).Probe(context.Background())

	s.True(res.Reachable)
	s.Equal(circuit.Live, s.ctrl.Mode())
	s.Equal(1, s.recorder.reachable)
}

func (s *MonitorSuite) TestUnreachableNeverSetsDemo() {
	res := s.monitor(proberFunc(func(context.Context) error { return errors.New("refused") })).Probe(context.Background())

	s.False(res.Reachable)
	s.Equal(circuit.Live, s.ctrl.Mode(), "the monitor only recovers; consumers degrade")
	s.Equal(1, s.recorder.unreachable)
}

func (s *MonitorSuite) TestUnreachableKeepsDemo() {
	s.ctrl.Degrade("earlier timeout")

	s.monitor(proberFunc(func(context.Context) error { return errors.New("refused") })).Probe(context.Background())

	s.True(s.ctrl.IsDemo())
}

func (s *MonitorSuite) TestProbeHonoursTimeout() {
	slow := proberFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	start := time.Now()
	res := s.monitor(slow, WithProbeTimeout(30*time.Millisecond)).Probe(context.Background())

	s.False(res.Reachable)
	s.Less(time.Since(start), time.Second)
}

func (s *MonitorSuite) TestPanickingProberIsUnreachable() {
	res := s.monitor(proberFunc(func(context.Context) error { panic("boom") })).Probe(context.Background())

	s.False(res.Reachable)
	s.Equal(1, s.recorder.unreachable)
}

func (s *MonitorSuite) TestNon2xxIsUnreachable() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	s.ctrl.Degrade("x")

	client := upstream.New(upstream.Config{Name: "ledger", BaseURL: srv.URL})
	res := s.monitor(client).Probe(context.Background())

	s.False(res.Reachable)
	s.True(s.ctrl.IsDemo())
}

func TestRunProbesUntilCanceled(t *testing.T) {
	var calls atomic.Int32
	ctrl := circuit.NewController()
	m := NewMonitor(proberFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRunRejectsBadInterval(t *testing.T) {
	m := NewMonitor(proberFunc(func(context.Context) error { return nil }), circuit.NewController())
	assert.Error(t, m.Run(context.Background(), 0))
}
