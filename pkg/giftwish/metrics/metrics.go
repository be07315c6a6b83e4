// Package metrics exposes Prometheus counters for the notification
// dispatcher and an HTTP handler for the /metrics endpoint.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// NotificationsSent counts successfully delivered notifications by kind.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftwish_notifications_sent_total",
		Help: "Number of notification emails handed to the transport, by kind.",
	}, []string{"kind"})

	// NotificationsFailed counts delivery failures by kind.
	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftwish_notifications_failed_total",
		Help: "Number of notification emails that failed to send, by kind.",
	}, []string{"kind"})

	// NotificationsSkipped counts notifications dropped because the
	// recipient has no email address, by kind.
	NotificationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftwish_notifications_skipped_total",
		Help: "Number of notifications skipped for recipients without an email address, by kind.",
	}, []string{"kind"})
)

// Handler returns a gin handler serving the Prometheus metrics endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
