package hospital

import (
	"net/http"

	dto "github.com/dropDatabas3/clinicore/internal/http/dto/hospital"
	"github.com/dropDatabas3/clinicore/internal/http/helpers"
	svc "github.com/dropDatabas3/clinicore/internal/http/services/hospital"
)

// InvoicesController maneja /v1/invoices.
type InvoicesController struct {
	service svc.Service
}

// List GET /v1/invoices
func (c *InvoicesController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.service.ListInvoices(r.Context())
	if err != nil {
		writeServiceError(w, r, "InvoicesController.List", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewList(items))
}

// Create POST /v1/invoices
func (c *InvoicesController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	inv, err := c.service.CreateInvoice(r.Context(), actorID(r), req)
	if err != nil {
		writeServiceError(w, r, "InvoicesController.Create", err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, inv)
}
