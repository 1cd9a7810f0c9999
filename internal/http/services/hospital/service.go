// Package hospital contiene los services de los recursos del hospital activo
// (pacientes, turnos y facturación). Todo el acceso pasa por dataaccess: el hospital
// sale del contexto del request, nunca de parámetros.
package hospital

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/domain"
	dto "github.com/dropDatabas3/clinicore/internal/http/dto/hospital"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/router"
	"github.com/dropDatabas3/clinicore/internal/store"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
	"github.com/dropDatabas3/clinicore/internal/xref"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidField    = errors.New("invalid field")
	ErrPatientNotFound = errors.New("patient not found")
)

const (
	AppointmentScheduled = "scheduled"
	InvoiceIssued        = "issued"
)

// TenantLookup resuelve el hospital activo (directory.Directory).
type TenantLookup interface {
	Lookup(ctx context.Context, code string) (*domain.Tenant, error)
}

// Service operaciones sobre el hospital activo.
type Service interface {
	ListPatients(ctx context.Context) ([]dto.PatientResponse, error)
	CreatePatient(ctx context.Context, actorID string, req dto.CreatePatientRequest) (*dto.PatientResponse, error)
	ListAppointments(ctx context.Context, patientID string) ([]dto.AppointmentResponse, error)
	CreateAppointment(ctx context.Context, req dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	ListInvoices(ctx context.Context) ([]dto.InvoiceResponse, error)
	CreateInvoice(ctx context.Context, actorID string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
}

// Deps dependencias del service.
type Deps struct {
	Access  *dataaccess.Access
	Tenants TenantLookup
}

type service struct {
	access  *dataaccess.Access
	tenants TenantLookup
}

// NewService crea el service.
func NewService(d Deps) Service {
	return &service{access: d.Access, tenants: d.Tenants}
}

const componentHospital = "hospital"

func (s *service) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Component(componentHospital), logger.Op(op))
}

// ─── Patients ───

func (s *service) ListPatients(ctx context.Context) ([]dto.PatientResponse, error) {
	patients, err := dataaccess.QueryAs[domain.Patient](ctx, s.access, store.All)
	if err != nil {
		return nil, err
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].MRN < patients[j].MRN })

	out := make([]dto.PatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, toPatientResponse(p))
	}
	return out, nil
}

func (s *service) CreatePatient(ctx context.Context, actorID string, req dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	req.MRN = strings.TrimSpace(req.MRN)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.MRN == "" || req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: mrn, first_name, last_name", ErrMissingFields)
	}
	if req.BirthDate != "" {
		if _, err := time.Parse(time.DateOnly, req.BirthDate); err != nil {
			return nil, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", ErrInvalidField)
		}
	}

	t, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	p, err := dataaccess.SaveAs(ctx, s.access, domain.Patient{
		TenantID:  t.ID,
		MRN:       req.MRN,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		CreatedBy: actorID,
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "CreatePatient").Info("patient created", logger.ID(p.ID))
	resp := toPatientResponse(p)
	return &resp, nil
}

// ─── Appointments ───

func (s *service) ListAppointments(ctx context.Context, patientID string) ([]dto.AppointmentResponse, error) {
	var pred store.Predicate = store.All
	if patientID != "" {
		pred = store.FieldEquals("patient_id", patientID)
	}
	items, err := dataaccess.QueryAs[domain.Appointment](ctx, s.access, pred)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ScheduledAt.Before(items[j].ScheduledAt) })

	out := make([]dto.AppointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, dto.AppointmentResponse{
			ID:          a.ID,
			PatientID:   a.PatientID,
			DoctorID:    a.DoctorID,
			ScheduledAt: a.ScheduledAt,
			Status:      a.Status,
		})
	}
	return out, nil
}

func (s *service) CreateAppointment(ctx context.Context, req dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	if req.PatientID == "" || req.DoctorID == "" || req.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: patient_id, doctor_id, scheduled_at", ErrMissingFields)
	}
	if err := s.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	a, err := dataaccess.SaveAs(ctx, s.access, domain.Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      AppointmentScheduled,
	})
	if err != nil {
		return nil, err
	}
	return &dto.AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		ScheduledAt: a.ScheduledAt,
		Status:      a.Status,
	}, nil
}

// ─── Invoices ───

func (s *service) ListInvoices(ctx context.Context) ([]dto.InvoiceResponse, error) {
	items, err := dataaccess.QueryAs[domain.Invoice](ctx, s.access, store.All)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Number < items[j].Number })

	// una resolución por hospital emisor, no por factura
	names := map[string]string{}
	out := make([]dto.InvoiceResponse, 0, len(items))
	for _, inv := range items {
		name, ok := names[inv.TenantID]
		if !ok {
			name = s.access.References().DisplayName(ctx, placement.Tenant, inv.TenantID, xref.DefaultFallback)
			names[inv.TenantID] = name
		}
		out = append(out, toInvoiceResponse(inv, name))
	}
	return out, nil
}

func (s *service) CreateInvoice(ctx context.Context, actorID string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	req.Number = strings.TrimSpace(req.Number)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.PatientID == "" || req.Number == "" || req.Currency == "" {
		return nil, fmt.Errorf("%w: patient_id, number, currency", ErrMissingFields)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidField)
	}
	if err := s.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	t, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := dataaccess.SaveAs(ctx, s.access, domain.Invoice{
		TenantID:  t.ID,
		PatientID: req.PatientID,
		Number:    req.Number,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    InvoiceIssued,
		CreatedBy: actorID,
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "CreateInvoice").Info("invoice issued", logger.ID(inv.ID))
	resp := toInvoiceResponse(inv, t.Name)
	return &resp, nil
}

// current retorna el hospital activo del contexto.
func (s *service) current(ctx context.Context) (*domain.Tenant, error) {
	code, ok := tenantctx.Code(ctx)
	if !ok {
		return nil, router.ErrNoTenantSelected
	}
	return s.tenants.Lookup(ctx, code)
}

func (s *service) requirePatient(ctx context.Context, id string) error {
	_, found, err := dataaccess.GetAs[domain.Patient](ctx, s.access, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	return nil
}

func toPatientResponse(p domain.Patient) dto.PatientResponse {
	return dto.PatientResponse{
		ID:        p.ID,
		MRN:       p.MRN,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		BirthDate: p.BirthDate,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

func toInvoiceResponse(inv domain.Invoice, hospital string) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		PatientID:    inv.PatientID,
		Amount:       inv.Amount,
		Currency:     inv.Currency,
		Status:       inv.Status,
		HospitalName: hospital,
		CreatedBy:    inv.CreatedBy,
		CreatedAt:    inv.CreatedAt,
	}
}
