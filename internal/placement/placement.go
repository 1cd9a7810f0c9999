// Package placement clasifica cada tipo de entidad según el store donde vive:
// el store compartido (control plane) o el store propio de cada hospital.
//
// La tabla es estática. Un tipo que no figura en ella se considera TenantScoped:
// una entidad nueva nunca queda compartida entre hospitales por omisión.
package placement

import "strings"

// EntityType identifica un tipo de registro ("patient", "tenant", ...).
type EntityType string

// Placement indica en qué store vive un tipo de entidad.
type Placement int

const (
	// TenantScoped: vive en el store del hospital activo. Es el valor por defecto.
	TenantScoped Placement = iota
	// Shared: vive en el store compartido, visible sin importar el tenant activo.
	Shared
)

// String retorna el nombre usado en logs y métricas.
func (p Placement) String() string {
	switch p {
	case Shared:
		return "shared"
	default:
		return "tenant"
	}
}

// Entidades del store compartido.
const (
	Account      EntityType = "account"
	Tenant       EntityType = "tenant"
	SystemConfig EntityType = "system_config"
	AccessGrant  EntityType = "access_grant"
)

// Entidades por hospital.
const (
	Patient        EntityType = "patient"
	Appointment    EntityType = "appointment"
	Invoice        EntityType = "invoice"
	ClinicalRecord EntityType = "clinical_record"
	PharmacyStock  EntityType = "pharmacy_stock"
	Prescription   EntityType = "prescription"
	LabResult      EntityType = "lab_result"
	Admission      EntityType = "admission"
	StaffShift     EntityType = "staff_shift"
	TenantSettings EntityType = "tenant_settings"
)

var table = map[EntityType]Placement{
	Account:      Shared,
	Tenant:       Shared,
	SystemConfig: Shared,
	AccessGrant:  Shared,

	Patient:        TenantScoped,
	Appointment:    TenantScoped,
	Invoice:        TenantScoped,
	ClinicalRecord: TenantScoped,
	PharmacyStock:  TenantScoped,
	Prescription:   TenantScoped,
	LabResult:      TenantScoped,
	Admission:      TenantScoped,
	StaffShift:     TenantScoped,
	TenantSettings: TenantScoped,
}

// Of retorna la ubicación de un tipo de entidad. Tipos desconocidos => TenantScoped.
func Of(e EntityType) Placement {
	if p, ok := table[normalize(e)]; ok {
		return p
	}
	return TenantScoped
}

// IsShared es un atajo para Of(e) == Shared.
func IsShared(e EntityType) bool { return Of(e) == Shared }

// SharedEntities lista los tipos registrados como compartidos.
func SharedEntities() []EntityType {
	out := make([]EntityType, 0, 4)
	for e, p := range table {
		if p == Shared {
			out = append(out, e)
		}
	}
	return out
}

// Known indica si el tipo figura explícitamente en la tabla.
func Known(e EntityType) bool {
	_, ok := table[normalize(e)]
	return ok
}

func normalize(e EntityType) EntityType {
	return EntityType(strings.ToLower(strings.TrimSpace(string(e))))
}
