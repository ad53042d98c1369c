// Package metrics holds the Prometheus collectors of the storefront API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like.
// All recording methods are safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ordersPlaced      *prometheus.CounterVec
	guestAccounts     prometheus.Counter
	checkoutRetries   prometheus.Counter
	notifications     *prometheus.CounterVec
	categoryMutations *prometheus.CounterVec
}

// NewCollector creates and registers every collector under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed, by checkout branch (existing_user, new_user, signed_in)",
		}, []string{"branch"}),
		guestAccounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guest_accounts_created_total",
			Help:      "Accounts provisioned during guest checkout",
		}),
		checkoutRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_user_conflicts_total",
			Help:      "Guest checkouts that lost the race to create the same email and re-resolved the user",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_emails_total",
			Help:      "Notification emails by kind and result",
		}, []string{"kind", "result"}),
		categoryMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_mutations_total",
			Help:      "Category writes by operation",
		}, []string{"op"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.ordersPlaced,
		c.guestAccounts,
		c.checkoutRetries,
		c.notifications,
		c.categoryMutations,
	)
	return c
}

// Registry exposes the registry for scraping and tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// OrderPlaced records an order by checkout branch.
func (c *Collector) OrderPlaced(branch string) {
	if c == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(branch).Inc()
}

// GuestAccountCreated records a provisioned account.
func (c *Collector) GuestAccountCreated() {
	if c == nil {
		return
	}
	c.guestAccounts.Inc()
}

// CheckoutUserConflict records a duplicate-email race during checkout.
func (c *Collector) CheckoutUserConflict() {
	if c == nil {
		return
	}
	c.checkoutRetries.Inc()
}

// Notification records an email attempt.
func (c *Collector) Notification(kind string, sent bool) {
	if c == nil {
		return
	}
	result := "sent"
	if !sent {
		result = "failed"
	}
	c.notifications.WithLabelValues(kind, result).Inc()
}

// CategoryMutation records a category write.
func (c *Collector) CategoryMutation(op string) {
	if c == nil {
		return
	}
	c.categoryMutations.WithLabelValues(op).Inc()
}

// Middleware records request counts and latency per route template.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if c == nil {
				return next(ctx)
			}
			start := time.Now()
			err := next(ctx)

			status := ctx.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			c.httpRequests.WithLabelValues(ctx.Request().Method, route, strconv.Itoa(status)).Inc()
			c.httpDuration.WithLabelValues(ctx.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
