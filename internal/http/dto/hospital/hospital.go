// Package hospital contiene los DTOs de los recursos del hospital activo.
package hospital

import "time"

type CreatePatientRequest struct {
	MRN       string `json:"mrn"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date,omitempty"` // YYYY-MM-DD
}

type PatientResponse struct {
	ID        string    `json:"id"`
	MRN       string    `json:"mrn"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate string    `json:"birth_date,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateAppointmentRequest struct {
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type AppointmentResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}

type CreateInvoiceRequest struct {
	PatientID string  `json:"patient_id"`
	Number    string  `json:"number"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// InvoiceResponse incluye el nombre del hospital resuelto contra el store compartido
// ("Unknown" si la referencia quedó colgada).
type InvoiceResponse struct {
	ID           string    `json:"id"`
	Number       string    `json:"number"`
	PatientID    string    `json:"patient_id"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	HospitalName string    `json:"hospital_name"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListResponse envoltorio de listados.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
