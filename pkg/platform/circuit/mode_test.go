package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerStartsLive(t *testing.T) {
	c := NewController()
	assert.Equal(t, Live, c.Mode())
	assert.False(t, c.IsDemo())
}

func TestControllerInitialDemo(t *testing.T) {
	c := NewController(WithInitialMode(Demo))
	assert.True(t, c.IsDemo())
}

func TestControllerTransitions(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var seen []Transition
	c := NewController(
		WithClock(func() time.Time { return fixed }),
		WithObserver(func(tr Transition) { seen = append(seen, tr) }),
	)

	c.Degrade("ledger timeout")
	c.Degrade("rule engine timeout")
	require.True(t, c.IsDemo())
	require.Len(t, seen, 1, "repeated degrade must not notify")
	assert.Equal(t, Transition{From: Live, To: Demo, Reason: "ledger timeout", At: fixed}, seen[0])

	mode, reason, at := c.Status()
	assert.Equal(t, Demo, mode)
	assert.Equal(t, "ledger timeout", reason)
	assert.Equal(t, fixed, at)

	c.Recover()
	assert.Equal(t, Live, c.Mode())
	require.Len(t, seen, 2)
	assert.Equal(t, Live, seen[1].To)
}

func TestForceModeIsLastWriterWins(t *testing.T) {
	c := NewController()
	c.ForceMode(Demo, "developer bypass")
	c.ForceMode(Live, "developer bypass off")
	assert.Equal(t, Live, c.Mode())
}

func TestObserveAfterConstruction(t *testing.T) {
	c := NewController()
	var got Mode = Live
	c.Observe(func(tr Transition) { got = tr.To })
	c.Degrade("x")
	assert.Equal(t, Demo, got)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" DEMO ")
	require.NoError(t, err)
	assert.Equal(t, Demo, m)

	m, err = ParseMode("live")
	require.NoError(t, err)
	assert.Equal(t, Live, m)

	_, err = ParseMode("half-open")
	assert.Error(t, err)
	assert.Equal(t, "demo", Demo.String())
}

func TestControllerConcurrentAccess(t *testing.T) {
	c := NewController()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Degrade("probe")
			_ = c.IsDemo()
		}()
		go func() {
			defer wg.Done()
			c.Recover()
			_ = c.Mode()
		}()
	}
	wg.Wait()
	assert.Contains(t, []Mode{Live, Demo}, c.Mode())
}
