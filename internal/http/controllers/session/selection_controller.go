package session

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/clinicore/internal/http/dto/session"
	httperrors "github.com/dropDatabas3/clinicore/internal/http/errors"
	"github.com/dropDatabas3/clinicore/internal/http/helpers"
	mw "github.com/dropDatabas3/clinicore/internal/http/middlewares"
	svc "github.com/dropDatabas3/clinicore/internal/http/services/session"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// SelectionController pantalla de selección de hospital:
//
//	GET    /v1/session/tenants  hospitales elegibles
//	GET    /v1/session/tenant   selección vigente
//	POST   /v1/session/tenant   elegir hospital
//	DELETE /v1/session/tenant   borrar selección
type SelectionController struct {
	service    svc.Service
	privileged []string
}

func NewSelectionController(service svc.Service, privileged []string) *SelectionController {
	return &SelectionController{service: service, privileged: privileged}
}

func (c *SelectionController) caller(r *http.Request) (svc.Caller, bool) {
	p := mw.GetPrincipal(r.Context())
	if p == nil {
		return svc.Caller{}, false
	}
	return svc.Caller{AccountID: p.AccountID, Privileged: p.HasAnyRole(c.privileged...)}, true
}

func (c *SelectionController) Options(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	opts, err := c.service.Options(r.Context(), caller)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"items": opts, "count": len(opts)})
}

func (c *SelectionController) Current(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	resp, err := c.service.Current(r.Context(), caller)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

func (c *SelectionController) Select(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	var req dto.SelectTenantRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	resp, err := c.service.Select(r.Context(), caller, req.Code)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

func (c *SelectionController) Clear(w http.ResponseWriter, r *http.Request) {
	caller, ok := c.caller(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	if err := c.service.Clear(r.Context(), caller); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *SelectionController) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code is required"))
	case errors.Is(err, svc.ErrNotAuthorized):
		httperrors.WriteError(w, httperrors.ErrTenantForbidden.WithCause(err))
	case errors.Is(err, svc.ErrTenantInactive):
		httperrors.WriteError(w, httperrors.ErrTenantInactive.WithCause(err))
	default:
		logger.From(r.Context()).Error("selection error", logger.Layer("controller"), logger.Err(err))
		httperrors.WriteError(w, err)
	}
}
