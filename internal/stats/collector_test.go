package stats

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.IncRegistrations()
	c.ObserveLogin(true)
	c.ObserveLogin(false)
	c.ObserveLogin(false)
	c.ObserveGame("WIN")
	c.ObserveSync("sheets", errors.New("quota"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.games.WithLabelValues("WIN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.syncs.WithLabelValues("sheets", "failure")))
	assert.GreaterOrEqual(t, int64(c.Uptime()), int64(0))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.IncRegistrations()
		c.ObserveLogin(true)
		c.ObserveGame("DRAW")
		c.ObserveSync("noop", nil)
	})
	assert.Zero(t, c.Uptime())
}
