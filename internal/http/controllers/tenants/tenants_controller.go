// Package tenants contiene el controller de administración de hospitales.
// Opera sólo sobre el store compartido; no requiere hospital seleccionado.
package tenants

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/domain"
	dto "github.com/dropDatabas3/clinicore/internal/http/dto/tenants"
	httperrors "github.com/dropDatabas3/clinicore/internal/http/errors"
	"github.com/dropDatabas3/clinicore/internal/http/helpers"
	mw "github.com/dropDatabas3/clinicore/internal/http/middlewares"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// Invalidator descarta entradas del directorio cacheado (directory.Directory).
type Invalidator interface {
	InvalidateTenant(code string)
	InvalidateAccess(accountID, code string)
}

// TenantsController maneja /v1/tenants.
type TenantsController struct {
	cp    *controlplane.Service
	cache Invalidator
}

// NewTenantsController crea el controller.
func NewTenantsController(cp *controlplane.Service, cache Invalidator) *TenantsController {
	return &TenantsController{cp: cp, cache: cache}
}

// List GET /v1/tenants
func (c *TenantsController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.cp.List(r.Context())
	if err != nil {
		c.fail(w, r, "List", err)
		return
	}
	out := make([]dto.TenantResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

// Create POST /v1/tenants
func (c *TenantsController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTenantRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	in := controlplane.TenantInput{Code: req.Code, Name: req.Name, Timezone: req.Timezone}
	if req.Store != nil {
		in.Store = &domain.StoreConfig{Driver: req.Store.Driver, DSN: req.Store.DSN, Schema: req.Store.Schema}
	}

	t, err := c.cp.CreateTenant(r.Context(), in)
	if err != nil {
		c.fail(w, r, "Create", err)
		return
	}
	c.cache.InvalidateTenant(t.Code)
	helpers.WriteJSON(w, http.StatusCreated, toResponse(t))
}

// Deactivate POST /v1/tenants/{code}/deactivate
func (c *TenantsController) Deactivate(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, false)
}

// Activate POST /v1/tenants/{code}/activate
func (c *TenantsController) Activate(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, true)
}

func (c *TenantsController) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	code := chi.URLParam(r, "code")
	var (
		t   *domain.Tenant
		err error
	)
	if active {
		t, err = c.cp.Activate(r.Context(), code)
	} else {
		t, err = c.cp.Deactivate(r.Context(), code)
	}
	if err != nil {
		c.fail(w, r, "SetActive", err)
		return
	}
	c.cache.InvalidateTenant(t.Code)
	helpers.WriteJSON(w, http.StatusOK, toResponse(t))
}

// Grant POST /v1/tenants/{code}/grants
func (c *TenantsController) Grant(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req dto.GrantRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.AccountID == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("account_id is required"))
		return
	}

	grantedBy := ""
	if p := mw.GetPrincipal(r.Context()); p != nil {
		grantedBy = p.AccountID
	}
	g, err := c.cp.GrantAccess(r.Context(), req.AccountID, code, grantedBy)
	if err != nil {
		c.fail(w, r, "Grant", err)
		return
	}
	c.cache.InvalidateAccess(g.AccountID, g.TenantCode)
	helpers.WriteJSON(w, http.StatusOK, g)
}

// Revoke DELETE /v1/tenants/{code}/grants/{accountID}
func (c *TenantsController) Revoke(w http.ResponseWriter, r *http.Request) {
	code, accountID := chi.URLParam(r, "code"), chi.URLParam(r, "accountID")
	if err := c.cp.RevokeAccess(r.Context(), accountID, code); err != nil {
		c.fail(w, r, "Revoke", err)
		return
	}
	c.cache.InvalidateAccess(accountID, code)
	w.WriteHeader(http.StatusNoContent)
}

func (c *TenantsController) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := httperrors.FromError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("tenants controller error",
			logger.Layer("controller"),
			logger.Op("TenantsController."+op),
			logger.Err(err),
		)
	}
	httperrors.WriteError(w, appErr)
}

func toResponse(t *domain.Tenant) dto.TenantResponse {
	out := dto.TenantResponse{
		ID:        t.ID,
		Code:      t.Code,
		Name:      t.Name,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
	}
	if t.Store != nil {
		out.OwnStore = true
		out.StoreDriver = t.Store.Driver
	}
	return out
}
