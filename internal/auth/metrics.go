package auth

import "github.com/prometheus/client_golang/prometheus"

const (
	decisionAllowed    = "allowed"
	decisionMissingKey = "missing_key"
	decisionInvalidKey = "invalid_key"
	decisionForbidden  = "forbidden"
)

var authDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dataagent_auth_decisions_total",
		Help: "Authentication and authorization outcomes on protected routes.",
	},
	[]string{"decision"},
)

func init() {
	prometheus.MustRegister(authDecisionsTotal)
}
