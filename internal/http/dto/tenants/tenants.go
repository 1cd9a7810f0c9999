package tenants

import "time"

// CreateTenantRequest body de POST /v1/tenants.
type CreateTenantRequest struct {
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Timezone string       `json:"timezone,omitempty"`
	Store    *StoreConfig `json:"store,omitempty"` // nil => template del servidor
}

// StoreConfig conexión propia del hospital. El DSN se guarda cifrado.
type StoreConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
	Schema string `json:"schema,omitempty"`
}

// GrantRequest body de POST /v1/tenants/{code}/grants.
type GrantRequest struct {
	AccountID string `json:"account_id"`
}

// TenantResponse hospital sin datos de conexión.
type TenantResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	OwnStore    bool      `json:"own_store"`
	StoreDriver string    `json:"store_driver,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
