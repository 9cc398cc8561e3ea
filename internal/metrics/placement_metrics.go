package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказов оформления заказа для метрики checkout_placement_failed_total.
const (
	FailReasonInvalidRequest    = "invalid_request"
	FailReasonCustomerNotFound  = "customer_not_found"
	FailReasonProductNotFound   = "product_not_found"
	FailReasonInsufficientStock = "insufficient_stock"
	FailReasonStorage           = "storage_error"
)

// PlacementMetrics содержит метрики сценария оформления заказа.
type PlacementMetrics struct {
	// Счётчики операций
	placementStarted prometheus.Counter
	ordersPlaced     prometheus.Counter
	placementFailed  *prometheus.CounterVec

	// Гистограмма времени выполнения
	placementDuration prometheus.Histogram

	// Счётчик событий, поставленных в outbox
	outboxEnqueued prometheus.Counter
}

// NewPlacementMetrics создаёт новый экземпляр метрик оформления.
func NewPlacementMetrics() *PlacementMetrics {
	return newPlacementMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPlacementMetricsWithRegisterer(registerer prometheus.Registerer) *PlacementMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PlacementMetrics{
		placementStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_placement_started_total",
			Help: "Total number of place-order invocations started",
		}),
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		placementFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_placement_failed_total",
			Help: "Total number of place-order invocations failed grouped by reason",
		}, []string{"reason"}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "checkout_placement_duration_seconds",
			Help:    "Duration of place-order invocations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		outboxEnqueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_outbox_enqueued_total",
			Help: "Total number of order events enqueued into transactional outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPlacementStarted увеличивает счётчик запущенных оформлений.
func (m *PlacementMetrics) RecordPlacementStarted() {
	m.placementStarted.Inc()
}

// RecordOrderPlaced увеличивает счётчик успешно оформленных заказов.
func (m *PlacementMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordPlacementFailed увеличивает счётчик отказов с указанием причины.
func (m *PlacementMetrics) RecordPlacementFailed(reason string) {
	m.placementFailed.WithLabelValues(reason).Inc()
}

// RecordPlacementDuration записывает время выполнения оформления.
func (m *PlacementMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

// RecordOutboxEnqueued увеличивает счётчик событий, поставленных в outbox.
func (m *PlacementMetrics) RecordOutboxEnqueued() {
	m.outboxEnqueued.Inc()
}
