package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/router"
	"github.com/dropDatabas3/clinicore/internal/store"
)

func TestFromError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{router.ErrNoTenantSelected, "TENANT_REQUIRED", http.StatusConflict},
		{fmt.Errorf("%w: gen: dial tcp", store.ErrStoreUnavailable), "STORE_UNAVAILABLE", http.StatusServiceUnavailable},
		{fmt.Errorf("%w: x", dataaccess.ErrInvalidReference), "INVALID_REFERENCE", http.StatusUnprocessableEntity},
		{store.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{ErrTenantForbidden, "TENANT_FORBIDDEN", http.StatusForbidden},
		{fmt.Errorf("handler: %w", ErrTenantInactive), "TENANT_INACTIVE", http.StatusForbidden},
		{stderrors.New("boom"), "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := FromError(tc.err)
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
		assert.Equal(t, tc.status, got.HTTPStatus, tc.err.Error())
	}
}

func TestWithDetailDoesNotMutateBase(t *testing.T) {
	e := ErrBadRequest.WithDetail("x")
	assert.Equal(t, "x", e.Detail)
	assert.Empty(t, ErrBadRequest.Detail)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrTenantRequired)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "TENANT_REQUIRED", body["code"])
	assert.Equal(t, "Seleccione un hospital para continuar.", body["message"])
}

func TestWriteError_RequestIDAndRetry(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set(HeaderRequestID, "rid-9")
	WriteError(rec, fmt.Errorf("%w: norte", store.ErrStoreUnavailable))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rid-9", body["request_id"])
	assert.Empty(t, body["detail"])
}
