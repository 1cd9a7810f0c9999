// Package metrics define los collectors Prometheus de la capa de routing multi-tenant.
// Vive en un paquete aparte para que store, router y middlewares lo importen sin ciclos.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinicore"

var (
	// RouterResolutions cuenta cada Resolve por placement, operación y resultado.
	RouterResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "router",
		Name:      "resolutions_total",
		Help:      "Resoluciones de store por placement (shared|tenant), op (read|write) y resultado.",
	}, []string{"placement", "op", "result"})

	// FailClosed cuenta lecturas tenant-scoped sin tenant que devolvieron vacío.
	FailClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dataaccess",
		Name:      "fail_closed_total",
		Help:      "Lecturas tenant-scoped sin tenant activo resueltas como colección vacía.",
	}, []string{"entity"})

	// StoreOpens cuenta aperturas de store por driver y resultado.
	StoreOpens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "opens_total",
		Help:      "Aperturas de store (ok|error).",
	}, []string{"driver", "result"})

	// StoreOpenLatency latencia de apertura de un store en milisegundos.
	StoreOpenLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "open_latency_ms",
		Help:      "Latencia de apertura de store en milisegundos.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	// OpenStores cantidad de handles abiertos en el registry.
	OpenStores = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "open_handles",
		Help:      "Handles abiertos en el Store Registry.",
	})

	// TenantDenials cuenta requests denegados por el middleware de tenant.
	TenantDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tenant",
		Name:      "denials_total",
		Help:      "Requests denegados por el middleware de tenant, por motivo.",
	}, []string{"reason"})

	// DanglingReferences cuenta referencias cruzadas a registros compartidos inexistentes.
	DanglingReferences = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "xref",
		Name:      "dangling_total",
		Help:      "Referencias a registros compartidos que no existen.",
	}, []string{"entity"})

	// HTTPRequests requests procesados por método, ruta (patrón chi) y status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Número total de requests procesadas.",
	}, []string{"method", "route", "status"})

	// HTTPDuration latencia de los requests.
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latencia de los requests HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// HTTPInflight requests en vuelo.
	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Requests en vuelo.",
	})
)

// All retorna todos los collectors del paquete.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		RouterResolutions,
		FailClosed,
		StoreOpens,
		StoreOpenLatency,
		OpenStores,
		TenantDenials,
		DanglingReferences,
		HTTPRequests,
		HTTPDuration,
		HTTPInflight,
	}
}

// Register registra los collectors en reg (o el default si es nil).
// Registrar dos veces no es error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range All() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
