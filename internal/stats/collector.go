package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the service counters exported at /metrics.
//
// A nil *Collector is valid and records nothing.
type Collector struct {
	startTime     time.Time
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	games         *prometheus.CounterVec
	syncs         *prometheus.CounterVec
}

// NewCollector creates the counters and registers them with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		startTime: time.Now(),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chessmistry",
			Name:      "registrations_total",
			Help:      "Accounts created.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chessmistry",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		games: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chessmistry",
			Name:      "games_recorded_total",
			Help:      "Finished games recorded by result.",
		}, []string{"result"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chessmistry",
			Name:      "sync_pushes_total",
			Help:      "External stats mirror pushes by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(c.registrations, c.logins, c.games, c.syncs)
	}
	return c
}

// Uptime returns how long the collector has been running
func (c *Collector) Uptime() time.Duration {
	if c == nil {
		return 0
	}
	return time.Since(c.startTime)
}

// IncRegistrations counts a new account
func (c *Collector) IncRegistrations() {
	if c == nil {
		return
	}
	c.registrations.Inc()
}

// ObserveLogin counts a login attempt
func (c *Collector) ObserveLogin(success bool) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(outcome(success)).Inc()
}

// ObserveGame counts a recorded game by its result label
func (c *Collector) ObserveGame(result string) {
	if c == nil {
		return
	}
	c.games.WithLabelValues(result).Inc()
}

// ObserveSync counts a mirror push
func (c *Collector) ObserveSync(sink string, err error) {
	if c == nil {
		return
	}
	c.syncs.WithLabelValues(sink, outcome(err == nil)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
