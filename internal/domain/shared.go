package domain

import (
	"time"

	"github.com/dropDatabas3/clinicore/internal/placement"
)

// Roles conocidos.
const (
	RolePlatformAdmin = "platform_admin"
	RoleDoctor        = "doctor"
	RoleNurse         = "nurse"
	RoleBilling       = "billing"
	RoleReception     = "reception"
)

// Tenant es un hospital cliente. Vive en el store compartido.
type Tenant struct {
	ID        string       `json:"id"`
	Code      string       `json:"code"` // único; clave del store del hospital
	Name      string       `json:"name"`
	Active    bool         `json:"active"`
	Store     *StoreConfig `json:"store,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Tenant) EntityType() placement.EntityType { return placement.Tenant }

// StoreConfig conexión propia de un hospital. Si es nil se usa el template global.
type StoreConfig struct {
	Driver string `json:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty"`     // Plain (no persiste)
	DSNEnc string `json:"dsn_enc,omitempty"` // secretbox.Encrypt(DSN)
	Schema string `json:"schema,omitempty"`
}

// Account es un usuario de la plataforma (médico, administrativo, admin).
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Roles        []string  `json:"roles,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Account) EntityType() placement.EntityType { return placement.Account }

// HasRole indica si la cuenta tiene el rol.
func (a Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AccessGrant habilita a una cuenta a operar sobre un hospital.
type AccessGrant struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	TenantID   string    `json:"tenant_id"`
	TenantCode string    `json:"tenant_code"`
	GrantedBy  string    `json:"granted_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (AccessGrant) EntityType() placement.EntityType { return placement.AccessGrant }

// SystemConfig es configuración global de la plataforma.
type SystemConfig struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SystemConfig) EntityType() placement.EntityType { return placement.SystemConfig }
