package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	Follows         prometheus.Counter
	Unfollows       prometheus.Counter
	Notifications   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		Follows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profile_follows_total",
			Help: "Follow edges created.",
		}),
		Unfollows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profile_unfollows_total",
			Help: "Follow edges removed.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "follow_notifications_total",
			Help: "Follow notification delivery attempts by result.",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.Follows,
		m.Unfollows,
		m.Notifications,
	)

	return m
}

// ObserveNotification matches notify.Dispatcher's result hook.
func (m *Metrics) ObserveNotification(err error) {
	if err != nil {
		m.Notifications.WithLabelValues("failed").Inc()
		return
	}
	m.Notifications.WithLabelValues("sent").Inc()
}
