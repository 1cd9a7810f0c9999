package hospital

import (
	"net/http"

	dto "github.com/dropDatabas3/clinicore/internal/http/dto/hospital"
	"github.com/dropDatabas3/clinicore/internal/http/helpers"
	svc "github.com/dropDatabas3/clinicore/internal/http/services/hospital"
)

// AppointmentsController maneja /v1/appointments.
type AppointmentsController struct {
	service svc.Service
}

// List GET /v1/appointments?patient_id=
func (c *AppointmentsController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.service.ListAppointments(r.Context(), r.URL.Query().Get("patient_id"))
	if err != nil {
		writeServiceError(w, r, "AppointmentsController.List", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewList(items))
}

// Create POST /v1/appointments
func (c *AppointmentsController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	a, err := c.service.CreateAppointment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "AppointmentsController.Create", err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, a)
}
