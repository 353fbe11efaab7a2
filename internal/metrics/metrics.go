// metrics собирает prometheus-коллекторы шлюза в одном месте.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — коллекторы исходящих вызовов бэкенда и операций корзины.
// Нулевой *Metrics допустим: все методы становятся no-op.
type Metrics struct {
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	cartOps         *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в reg.
// reg == nil -> prometheus.DefaultRegisterer (его отдаёт promhttp.Handler()).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Outgoing calls to the listings backend by route and status class.",
		}, []string{"route", "code"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of outgoing calls to the listings backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart store operations by op and result.",
		}, []string{"op", "result"}),
	}

	reg.MustRegister(m.backendRequests, m.backendDuration, m.cartOps)

	return m
}

// ObserveBackend фиксирует один исходящий вызов. status == 0 — транспортная ошибка.
func (m *Metrics) ObserveBackend(route string, status int, dur time.Duration) {
	if m == nil {
		return
	}

	m.backendRequests.WithLabelValues(route, statusClass(status)).Inc()
	m.backendDuration.WithLabelValues(route).Observe(dur.Seconds())
}

// ObserveCart фиксирует результат операции корзины ("ok", "rejected", "error").
func (m *Metrics) ObserveCart(op, result string) {
	if m == nil {
		return
	}

	m.cartOps.WithLabelValues(op, result).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}

	return strconv.Itoa(status/100) + "xx"
}
