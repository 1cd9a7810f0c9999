package domain

import (
	"time"

	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/xref"
)

// Patient paciente de un hospital.
type Patient struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	MRN       string    `json:"mrn"` // número de historia clínica
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Patient) EntityType() placement.EntityType { return placement.Patient }

func (p Patient) References() []xref.Ref {
	return refs(
		xref.Ref{Entity: placement.Tenant, ID: p.TenantID},
		xref.Ref{Entity: placement.Account, ID: p.CreatedBy},
	)
}

// Appointment turno de un paciente con un profesional.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"` // Account
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Appointment) EntityType() placement.EntityType { return placement.Appointment }

func (a Appointment) References() []xref.Ref {
	return refs(xref.Ref{Entity: placement.Account, ID: a.DoctorID})
}

// Invoice factura emitida por el hospital. TenantID apunta al hospital emisor.
type Invoice struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	PatientID string    `json:"patient_id"`
	Number    string    `json:"number"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Invoice) EntityType() placement.EntityType { return placement.Invoice }

func (i Invoice) References() []xref.Ref {
	return refs(
		xref.Ref{Entity: placement.Tenant, ID: i.TenantID},
		xref.Ref{Entity: placement.Account, ID: i.CreatedBy},
	)
}

// ClinicalRecord evolución o nota clínica.
type ClinicalRecord struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	AuthorID  string    `json:"author_id"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ClinicalRecord) EntityType() placement.EntityType { return placement.ClinicalRecord }

func (c ClinicalRecord) References() []xref.Ref {
	return refs(xref.Ref{Entity: placement.Account, ID: c.AuthorID})
}

// PharmacyStock stock de farmacia del hospital.
type PharmacyStock struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PharmacyStock) EntityType() placement.EntityType { return placement.PharmacyStock }

// TenantSettings fila de sistema sembrada en el store del hospital al darlo de alta.
type TenantSettings struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	DisplayName string    `json:"display_name"`
	Timezone    string    `json:"timezone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (TenantSettings) EntityType() placement.EntityType { return placement.TenantSettings }

func (s TenantSettings) References() []xref.Ref {
	return refs(xref.Ref{Entity: placement.Tenant, ID: s.TenantID})
}

// refs descarta referencias vacías: son opcionales.
func refs(in ...xref.Ref) []xref.Ref {
	out := make([]xref.Ref, 0, len(in))
	for _, r := range in {
		if r.ID != "" {
			out = append(out, r)
		}
	}
	return out
}
