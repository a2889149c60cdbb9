// Package metrics holds the prometheus collectors for the auth boundary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aerokit"

type Auth struct {
	TokensIssued  *prometheus.CounterVec
	LoginFailures prometheus.Counter
	Rejections    *prometheus.CounterVec
}

// NewAuth registers the auth collectors on reg.
func NewAuth(reg prometheus.Registerer) *Auth {
	f := promauto.With(reg)
	return &Auth{
		TokensIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Credentials minted, by role.",
		}, []string{"role"}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Logins rejected for bad credentials.",
		}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_rejections_total",
			Help:      "Requests refused at the auth boundary, by reason.",
		}, []string{"reason"}),
	}
}

// NewRegistry returns a registry with the Go and process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
