package session

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/clinicore/internal/http/dto/session"
	httperrors "github.com/dropDatabas3/clinicore/internal/http/errors"
	"github.com/dropDatabas3/clinicore/internal/http/helpers"
	svc "github.com/dropDatabas3/clinicore/internal/http/services/session"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// LoginController handles POST /v1/auth/login.
type LoginController struct {
	service svc.Service
}

// NewLoginController creates a new login controller.
func NewLoginController(service svc.Service) *LoginController {
	return &LoginController{service: service}
}

// Login autentica email/password y emite un access token.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Login(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email and password are required"))
		case errors.Is(err, svc.ErrInvalidCredentials):
			httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("invalid credentials"))
		case errors.Is(err, svc.ErrIssuerDisabled):
			httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("login disabled"))
		default:
			log.Error("login error", logger.Err(err))
			httperrors.WriteError(w, err)
		}
		return
	}

	w.Header().Set("Pragma", "no-cache")
	helpers.WriteJSON(w, http.StatusOK, resp)
}
