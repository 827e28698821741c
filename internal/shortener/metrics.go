package shortener

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(linksCreatedMetric, redirectsMetric)
}

var linksCreatedMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "teenyurl",
	Subsystem: "links",
	Name:      "created_total",
	Help:      "Create requests by outcome",
}, []string{"outcome"})

var redirectsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "teenyurl",
	Subsystem: "redirects",
	Name:      "total",
	Help:      "Short key resolutions by result",
}, []string{"result"})

const (
	outcomeCreated   = "created"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"

	resultHit  = "hit"
	resultMiss = "miss"
	resultFail = "failed"
)
