package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/clinicore/internal/app"
	"github.com/dropDatabas3/clinicore/internal/config"
	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/domain"
)

type fixture struct {
	srv     *httptest.Server
	c       *app.Container
	aliceID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret-test-secret-test-secret!"
	c, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.ControlPlane.CreateTenant(ctx, controlplane.TenantInput{Code: "general", Name: "General Hospital"})
	require.NoError(t, err)
	_, err = c.ControlPlane.CreateTenant(ctx, controlplane.TenantInput{Code: "norte", Name: "Hospital Norte"})
	require.NoError(t, err)

	alice, err := c.ControlPlane.CreateAccount(ctx, controlplane.AccountInput{
		Email: "alice@clinic.test", Name: "Alice", Password: "alice-password", Roles: []string{domain.RoleDoctor},
	})
	require.NoError(t, err)
	_, err = c.ControlPlane.CreateAccount(ctx, controlplane.AccountInput{
		Email: "root@clinic.test", Name: "Root", Password: "root-password", Roles: []string{domain.RolePlatformAdmin},
	})
	require.NoError(t, err)
	_, err = c.ControlPlane.GrantAccess(ctx, alice.ID, "general", "")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	h, err := BuildHandler(c, Options{Registerer: reg, Gatherer: reg, Version: "test"})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, c: c, aliceID: alice.ID}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := f.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	tok, _ := body["access_token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func items(body map[string]any) []any {
	v, _ := body["items"].([]any)
	return v
}

func TestHospitalFlow(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice@clinic.test", "alice-password")

	// sin hospital elegido
	status, body := f.do(t, http.MethodGet, "/v1/patients", alice, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "TENANT_REQUIRED", body["code"])

	// sin permiso sobre norte
	status, body = f.do(t, http.MethodPost, "/v1/session/tenant", alice, map[string]string{"code": "norte"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "TENANT_FORBIDDEN", body["code"])

	status, body = f.do(t, http.MethodGet, "/v1/session/tenants", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, items(body), 1)

	status, _ = f.do(t, http.MethodPost, "/v1/session/tenant", alice, map[string]string{"code": "General"})
	require.Equal(t, http.StatusOK, status)

	status, body = f.do(t, http.MethodPost, "/v1/patients", alice, map[string]string{
		"mrn": "MRN-1", "first_name": "Ana", "last_name": "Pérez", "birth_date": "1990-04-01",
	})
	require.Equal(t, http.StatusCreated, status, body)
	patientID, _ := body["id"].(string)
	require.NotEmpty(t, patientID)
	assert.Equal(t, f.aliceID, body["created_by"])

	status, body = f.do(t, http.MethodGet, "/v1/patients", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, items(body), 1)

	status, body = f.do(t, http.MethodPost, "/v1/invoices", alice, map[string]any{
		"patient_id": patientID, "number": "F-0001", "amount": 1500.5, "currency": "ars",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "General Hospital", body["hospital_name"])
	assert.Equal(t, "ARS", body["currency"])

	status, body = f.do(t, http.MethodGet, "/v1/invoices", alice, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, items(body), 1)
	inv := items(body)[0].(map[string]any)
	assert.Equal(t, "General Hospital", inv["hospital_name"])

	status, body = f.do(t, http.MethodPost, "/v1/appointments", alice, map[string]any{
		"patient_id": patientID, "doctor_id": f.aliceID, "scheduled_at": time.Now().Add(24 * time.Hour).UTC(),
	})
	require.Equal(t, http.StatusCreated, status, body)

	// paciente de otro hospital: la referencia local no existe
	status, body = f.do(t, http.MethodPost, "/v1/appointments", alice, map[string]any{
		"patient_id": "nope", "doctor_id": f.aliceID, "scheduled_at": time.Now().UTC(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_REFERENCE", body["code"])

	status, _ = f.do(t, http.MethodDelete, "/v1/session/tenant", alice, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = f.do(t, http.MethodGet, "/v1/invoices", alice, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestIsolationAndOverride(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice@clinic.test", "alice-password")
	root := f.login(t, "root@clinic.test", "root-password")

	status, _ := f.do(t, http.MethodPost, "/v1/session/tenant", alice, map[string]string{"code": "general"})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.do(t, http.MethodPost, "/v1/patients", alice, map[string]string{"mrn": "G-1", "first_name": "A", "last_name": "B"})
	require.Equal(t, http.StatusCreated, status)

	// norte no ve los pacientes de general
	status, body := f.do(t, http.MethodGet, "/v1/patients", root, nil, "X-Tenant-Override", "norte")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, items(body))

	status, body = f.do(t, http.MethodGet, "/v1/patients", root, nil, "X-Tenant-Override", "general")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, items(body), 1)

	// el override no es una selección persistida
	status, _ = f.do(t, http.MethodGet, "/v1/patients", root, nil)
	assert.Equal(t, http.StatusConflict, status)

	// alice no puede usar el override
	status, body = f.do(t, http.MethodGet, "/v1/patients", alice, nil, "X-Tenant-Override", "norte")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, items(body), 1)
}

func TestDeactivatedTenantClearsSelection(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice@clinic.test", "alice-password")
	root := f.login(t, "root@clinic.test", "root-password")

	status, _ := f.do(t, http.MethodPost, "/v1/session/tenant", alice, map[string]string{"code": "general"})
	require.Equal(t, http.StatusOK, status)

	status, body := f.do(t, http.MethodPost, "/v1/tenants/general/deactivate", root, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, false, body["active"])

	status, body = f.do(t, http.MethodGet, "/v1/patients", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "TENANT_INACTIVE", body["code"])

	// la selección vieja se borró
	status, body = f.do(t, http.MethodGet, "/v1/patients", alice, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "TENANT_REQUIRED", body["code"])
}

func TestTenantAdminRoutes(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice@clinic.test", "alice-password")
	root := f.login(t, "root@clinic.test", "root-password")

	status, _ := f.do(t, http.MethodGet, "/v1/tenants", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// datos compartidos con hospital Unset
	status, body := f.do(t, http.MethodGet, "/v1/tenants", root, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, items(body), 2)

	status, body = f.do(t, http.MethodPost, "/v1/tenants", root, map[string]string{"code": "sur", "name": "Hospital Sur"})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = f.do(t, http.MethodPost, "/v1/tenants", root, map[string]string{"code": "sur", "name": "Otra vez"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_EXISTS", body["code"])

	status, body = f.do(t, http.MethodPost, "/v1/tenants", root, map[string]string{"code": "shared", "name": "x"})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, _ = f.do(t, http.MethodPost, "/v1/tenants/sur/grants", root, map[string]string{"account_id": f.aliceID})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.do(t, http.MethodPost, "/v1/session/tenant", alice, map[string]string{"code": "sur"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = f.do(t, http.MethodDelete, "/v1/tenants/sur/grants/"+f.aliceID, root, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, body = f.do(t, http.MethodGet, "/v1/patients", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "TENANT_FORBIDDEN", body["code"])
}

func TestAuthAndPublicRoutes(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/v1/patients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, _ = f.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "alice@clinic.test", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ROUTE_NOT_FOUND", body["code"])

	resp, err := f.srv.Client().Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "clinicore_http_requests_total")
}

func TestServer_ShutdownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{ShutdownTimeout: time.Second}, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
