package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_requests_total",
			Help: "Total decision requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engage_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engage_in_flight",
		Help: "In-flight HTTP requests",
	})
	EligibleTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engage_elements_eligible_total",
		Help: "Elements that passed targeting evaluation",
	})
	ShownTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_elements_shown_total",
			Help: "Armed-to-shown promotions by trigger type",
		}, []string{"trigger"},
	)
	DismissalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_dismissals_total",
			Help: "Recorded dismissals by cap policy",
		}, []string{"policy"},
	)
	UnknownNodeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engage_render_unknown_node_total",
		Help: "Design nodes rendered through the unknown-type fallback",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight,
		EligibleTotal, ShownTotal, DismissalsTotal, UnknownNodeTotal)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
