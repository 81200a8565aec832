package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherly_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// NotificationsDispatched counts dispatched notifications by event and channel.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherly_notifications_dispatched_total",
		Help: "Total notifications dispatched by event type and channel",
	}, []string{"event", "channel"})

	// TransportFailures counts failed push/SMS delivery attempts.
	TransportFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherly_transport_failures_total",
		Help: "Total failed outbound delivery attempts by channel",
	}, []string{"channel"})

	// SweepUsersProcessed counts users handled per aggregation sweep outcome.
	SweepUsersProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherly_sweep_users_total",
		Help: "Users processed by the aggregation sweep, by outcome",
	}, []string{"outcome"})
)

var (
	promOnce sync.Once
	promHTTP *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus HTTP middleware for the Fiber app.
// The middleware registers collectors globally, so it is created once and
// shared across server instances.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promHTTP = fiberprometheus.New(serviceName)
	})
	return promHTTP
}
