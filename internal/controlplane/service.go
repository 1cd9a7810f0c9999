// Package controlplane proporciona la capa de servicio sobre el store compartido:
// registro de hospitales, cuentas y permisos de acceso.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                 HANDLERS / CLI / MIDDLEWARE                 │
//	└───────────────────────────┬─────────────────────────────────┘
//	                            │
//	                            ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                   CONTROLPLANE SERVICE                      │
//	│  • Validaciones (código de hospital, email, roles)          │
//	│  • Cifrado de DSN (secretbox) y hash de passwords (bcrypt)  │
//	│  • Alta de hospitales (compartido primero, luego su store)  │
//	└───────────────────────────┬─────────────────────────────────┘
//	                            │
//	                            ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                       DATAACCESS                            │
//	│  • Router: entidades Shared => store compartido             │
//	└─────────────────────────────────────────────────────────────┘
//
// Los hospitales nunca se borran en operación normal: se desactivan.
// Purge existe sólo para tooling de operaciones.
package controlplane

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/store"
)

// ─── Errors ───

var (
	ErrBadInput        = errors.New("control plane: bad input")
	ErrReservedCode    = errors.New("control plane: reserved tenant code")
	ErrTenantNotFound  = errors.New("control plane: tenant not found")
	ErrTenantExists    = errors.New("control plane: tenant already exists")
	ErrTenantInactive  = errors.New("control plane: tenant inactive")
	ErrAccountNotFound = errors.New("control plane: account not found")
	ErrAccountExists   = errors.New("control plane: account already exists")
	ErrSeedFailed      = errors.New("control plane: tenant store seed failed")
	ErrInvalidPassword = errors.New("control plane: invalid password")
	ErrNoStoreTemplate = errors.New("control plane: no store config for tenant")
)

// StoreCloser cierra el handle de un store abierto (Registry.Close).
type StoreCloser interface {
	Close(key string) error
}

// Service es el servicio del control plane.
type Service struct {
	access *dataaccess.Access
	closer StoreCloser
}

// NewService crea el servicio. closer puede ser nil.
func NewService(access *dataaccess.Access, closer StoreCloser) *Service {
	return &Service{access: access, closer: closer}
}

// ─── Helpers ───

var reTenantCode = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,31}$`)

// ValidateTenantCode valida formato y códigos reservados.
func ValidateTenantCode(code string) error {
	if !reTenantCode.MatchString(code) {
		return fmt.Errorf("%w: invalid tenant code %q", ErrBadInput, code)
	}
	// el código del store compartido no puede ser un hospital
	if code == store.SharedKey {
		return ErrReservedCode
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
