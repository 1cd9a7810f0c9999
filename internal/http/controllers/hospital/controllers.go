// Package hospital contiene los controllers de los recursos del hospital activo.
// Se montan detrás del middleware de contexto de hospital en modo scoped.
package hospital

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/clinicore/internal/http/errors"
	mw "github.com/dropDatabas3/clinicore/internal/http/middlewares"
	svc "github.com/dropDatabas3/clinicore/internal/http/services/hospital"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// Controllers agrupa los controllers del hospital.
type Controllers struct {
	Patients     *PatientsController
	Appointments *AppointmentsController
	Invoices     *InvoicesController
}

// NewControllers crea el agregador.
func NewControllers(s svc.Service) *Controllers {
	return &Controllers{
		Patients:     &PatientsController{service: s},
		Appointments: &AppointmentsController{service: s},
		Invoices:     &InvoicesController{service: s},
	}
}

func actorID(r *http.Request) string {
	if p := mw.GetPrincipal(r.Context()); p != nil {
		return p.AccountID
	}
	return ""
}

func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail(err.Error()))
		return
	case errors.Is(err, svc.ErrInvalidField):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(err.Error()))
		return
	case errors.Is(err, svc.ErrPatientNotFound):
		httperrors.WriteError(w, httperrors.ErrInvalidReference.WithDetail(err.Error()))
		return
	}

	appErr := httperrors.FromError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("hospital controller error",
			logger.Layer("controller"),
			logger.Op(op),
			logger.Err(err),
		)
	}
	httperrors.WriteError(w, appErr)
}
