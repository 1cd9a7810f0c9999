package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/router"
	"github.com/dropDatabas3/clinicore/internal/store"
	"github.com/dropDatabas3/clinicore/internal/xref"
)

// AppError define la estructura estándar para errores de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa, para logs; no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap crea un AppError envolviendo un error existente
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FromError convierte errores de las capas inferiores en AppError.
// Lo que no se reconoce es un 500 que conserva la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	switch {
	case stderrors.Is(err, router.ErrNoTenantSelected):
		return ErrTenantRequired.WithCause(err)
	case stderrors.Is(err, store.ErrStoreUnavailable):
		return ErrStoreUnavailable.WithCause(err)
	case stderrors.Is(err, dataaccess.ErrInvalidReference):
		return ErrInvalidReference.WithDetail(err.Error()).WithCause(err)
	case stderrors.Is(err, xref.ErrDanglingReference):
		return ErrNotFound.WithCause(err)
	case stderrors.Is(err, controlplane.ErrTenantNotFound):
		return ErrTenantNotFound.WithCause(err)
	case stderrors.Is(err, controlplane.ErrAccountNotFound):
		return ErrNotFound.WithDetail("account not found").WithCause(err)
	case stderrors.Is(err, controlplane.ErrTenantInactive):
		return ErrTenantInactive.WithCause(err)
	case stderrors.Is(err, controlplane.ErrTenantExists), stderrors.Is(err, controlplane.ErrAccountExists):
		return ErrAlreadyExists.WithCause(err)
	case stderrors.Is(err, controlplane.ErrBadInput), stderrors.Is(err, controlplane.ErrReservedCode),
		stderrors.Is(err, store.ErrInvalidRecord):
		return ErrBadRequest.WithDetail(err.Error()).WithCause(err)
	case stderrors.Is(err, store.ErrNotFound):
		return ErrNotFound.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail agrega detalles adicionales. Devuelve una COPIA para no mutar los errores base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original. Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// ---------------------------------------------------------------------------------
// 400 Bad Request
// ---------------------------------------------------------------------------------

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// ---------------------------------------------------------------------------------
// 401 / 403
// ---------------------------------------------------------------------------------

var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "El token de acceso es inválido.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "No tiene permisos para realizar esta acción.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrTenantForbidden = &AppError{
		Code:       "TENANT_FORBIDDEN",
		Message:    "No tiene acceso al hospital seleccionado.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrTenantInactive = &AppError{
		Code:       "TENANT_INACTIVE",
		Message:    "El hospital seleccionado está inactivo.",
		HTTPStatus: http.StatusForbidden,
	}
)

// ---------------------------------------------------------------------------------
// 404 / 409 / 422
// ---------------------------------------------------------------------------------

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrTenantNotFound = &AppError{
		Code:       "TENANT_NOT_FOUND",
		Message:    "El hospital no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRouteNotFound = &AppError{
		Code:       "ROUTE_NOT_FOUND",
		Message:    "La ruta solicitada no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "El método HTTP no está permitido para esta ruta.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrTenantRequired = &AppError{
		Code:       "TENANT_REQUIRED",
		Message:    "Seleccione un hospital para continuar.",
		HTTPStatus: http.StatusConflict,
	}

	ErrAlreadyExists = &AppError{
		Code:       "ALREADY_EXISTS",
		Message:    "El recurso ya existe.",
		HTTPStatus: http.StatusConflict,
	}

	ErrInvalidReference = &AppError{
		Code:       "INVALID_REFERENCE",
		Message:    "El registro referencia una entidad que no existe.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
)

// ---------------------------------------------------------------------------------
// 500+
// ---------------------------------------------------------------------------------

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrStoreUnavailable = &AppError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "El almacenamiento del hospital no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
