package hospital

import (
	"net/http"

	dto "github.com/dropDatabas3/clinicore/internal/http/dto/hospital"
	"github.com/dropDatabas3/clinicore/internal/http/helpers"
	svc "github.com/dropDatabas3/clinicore/internal/http/services/hospital"
)

// PatientsController maneja /v1/patients.
type PatientsController struct {
	service svc.Service
}

// List GET /v1/patients
func (c *PatientsController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.service.ListPatients(r.Context())
	if err != nil {
		writeServiceError(w, r, "PatientsController.List", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewList(items))
}

// Create POST /v1/patients
func (c *PatientsController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePatientRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	p, err := c.service.CreatePatient(r.Context(), actorID(r), req)
	if err != nil {
		writeServiceError(w, r, "PatientsController.Create", err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, p)
}
