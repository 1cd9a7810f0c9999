// Package health contiene los DTOs de health check.
package health

import "time"

// HealthResponse respuesta de GET /healthz.
type HealthResponse struct {
	Status     string                  `json:"status"` // ready | degraded | unavailable
	Components map[string]HealthStatus `json:"components"`
	Stores     []StoreStat             `json:"stores,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
	Version    string                  `json:"version,omitempty"`
}

// HealthStatus estado de un componente.
type HealthStatus struct {
	Status  string `json:"status"` // ok | error | disabled
	Message string `json:"message,omitempty"`
}

// StoreStat handle abierto en el registry.
type StoreStat struct {
	Key        string    `json:"key"`
	Driver     string    `json:"driver"`
	OpenedAt   time.Time `json:"opened_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}
