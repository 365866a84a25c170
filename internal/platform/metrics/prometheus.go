package metrics

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds custom Prometheus metrics for the board service.
type MetricsManager struct {
	Registry                 *prometheus.Registry
	SubmissionsTotal         prometheus.Counter
	SubmissionsRejectedTotal *prometheus.CounterVec // by reason: duplicate, promo, validation, storage
	ApprovalsTotal           prometheus.Counter
	RejectionsTotal          prometheus.Counter
	PromotionsTotal          prometheus.Counter
	RevocationsTotal         prometheus.Counter
	DeletionsTotal           prometheus.Counter
	ExpiryCyclesTotal        prometheus.Counter
	ExpiredListingsTotal     prometheus.Counter
	BroadcastsTotal          *prometheus.CounterVec // by event type
	ConnectedSessions        prometheus.Gauge
	PromoCodesMintedTotal    prometheus.Counter
	PromoCodesRedeemedTotal  prometheus.Counter
}

// NewMetricsManager initializes and registers custom Prometheus metrics.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		SubmissionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "submissions_total",
			Help:      "Total number of accepted listing submissions.",
		}),
		SubmissionsRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "submissions_rejected_total",
			Help:      "Total number of rejected listing submissions by reason.",
		}, []string{"reason"}),
		ApprovalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "approvals_total",
			Help:      "Total number of listings approved by the operator.",
		}),
		RejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "rejections_total",
			Help:      "Total number of pending listings rejected by the operator.",
		}),
		PromotionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "promotions_total",
			Help:      "Total number of listings promoted to the permanent set.",
		}),
		RevocationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "revocations_total",
			Help:      "Total number of permanent promotions revoked.",
		}),
		DeletionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "deletions_total",
			Help:      "Total number of listings deleted (owner or operator).",
		}),
		ExpiryCyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "expiry_cycles_total",
			Help:      "Total number of completed expiry cycles.",
		}),
		ExpiredListingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "expired_listings_total",
			Help:      "Total number of listings purged by expiry cycles.",
		}),
		BroadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "broadcasts_total",
			Help:      "Total number of broadcast events by type.",
		}, []string{"event"}),
		ConnectedSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Name:      "connected_sessions",
			Help:      "Number of currently connected viewer sessions.",
		}),
		PromoCodesMintedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "promo_codes_minted_total",
			Help:      "Total number of promo codes generated.",
		}),
		PromoCodesRedeemedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "promo_codes_redeemed_total",
			Help:      "Total number of promo codes successfully redeemed.",
		}),
	}

	registry.MustRegister(
		m.SubmissionsTotal,
		m.SubmissionsRejectedTotal,
		m.ApprovalsTotal,
		m.RejectionsTotal,
		m.PromotionsTotal,
		m.RevocationsTotal,
		m.DeletionsTotal,
		m.ExpiryCyclesTotal,
		m.ExpiredListingsTotal,
		m.BroadcastsTotal,
		m.ConnectedSessions,
		m.PromoCodesMintedTotal,
		m.PromoCodesRedeemedTotal,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// StartMetricsServer starts an HTTP server to expose Prometheus metrics.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return server.ListenAndServe()
}
