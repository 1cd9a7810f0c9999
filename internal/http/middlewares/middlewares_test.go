package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/domain"
	jwtx "github.com/dropDatabas3/clinicore/internal/jwt"
	"github.com/dropDatabas3/clinicore/internal/metrics"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/session"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
)

// fakeDirectory directorio en memoria: tenants por código y grants "account|code".
type fakeDirectory struct {
	tenants map[string]*domain.Tenant
	grants  map[string]bool
}

func (d *fakeDirectory) Lookup(_ context.Context, code string) (*domain.Tenant, error) {
	t, ok := d.tenants[code]
	if !ok {
		return nil, controlplane.ErrTenantNotFound
	}
	return t, nil
}

func (d *fakeDirectory) HasAccess(_ context.Context, accountID, code string) (bool, error) {
	return d.grants[accountID+"|"+code], nil
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		tenants: map[string]*domain.Tenant{
			"general": {ID: "t-1", Code: "general", Active: true},
			"norte":   {ID: "t-2", Code: "norte", Active: true},
			"cerrado": {ID: "t-3", Code: "cerrado", Active: false},
		},
		grants: map[string]bool{
			"alice|general": true,
			"alice|cerrado": true,
		},
	}
}

func withUser(p *Principal) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p != nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// captureTenant guarda el tenant visto por el handler y el Scope del request.
type captureTenant struct {
	seen  tenantctx.Value
	scope *tenantctx.Scope
	calls int
}

func (c *captureTenant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls++
		c.seen = tenantctx.Get(r.Context())
		c.scope = tenantctx.ScopeFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Code
}

func tenantStack(cfg TenantConfig, p *Principal, h http.Handler) http.Handler {
	return Chain(h, WithRecover(), withUser(p), TenantContext(cfg))
}

var alice = &Principal{AccountID: "alice", Roles: []string{domain.RoleDoctor}}

func TestTenantContext_NoSelectionOnScopedRoute(t *testing.T) {
	sel := session.NewMemory(0)
	before := testutil.ToFloat64(metrics.TenantDenials.WithLabelValues("required"))
	c := &captureTenant{}

	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: sel, Scoped: true}, alice, c.handler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "TENANT_REQUIRED", errorCode(t, rr))
	assert.Zero(t, c.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.TenantDenials.WithLabelValues("required")))
}

func TestTenantContext_NoSelectionOnUnscopedRoute(t *testing.T) {
	c := &captureTenant{}
	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: session.NewMemory(0)}, alice, c.handler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/tenants", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, c.calls)
	assert.False(t, c.seen.IsSet())
}

func TestTenantContext_InstallsSelectedTenant(t *testing.T) {
	sel := session.NewMemory(0)
	require.NoError(t, sel.Set(context.Background(), "alice", "general"))
	c := &captureTenant{}

	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: sel, Scoped: true}, alice, c.handler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients", nil))

	require.Equal(t, http.StatusNoContent, rr.Code)
	code, ok := c.seen.Code()
	assert.True(t, ok)
	assert.Equal(t, "general", code)

	// teardown: el Scope del request quedó Unset
	assert.False(t, c.scope.Get().IsSet())
}

func TestTenantContext_ForbiddenClearsStaleSelection(t *testing.T) {
	sel := session.NewMemory(0)
	require.NoError(t, sel.Set(context.Background(), "alice", "norte"))
	c := &captureTenant{}

	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: sel, Scoped: true}, alice, c.handler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "TENANT_FORBIDDEN", errorCode(t, rr))
	assert.Zero(t, c.calls)

	_, ok, err := sel.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok, "la selección sin permiso se borra")
}

func TestTenantContext_InactiveTenant(t *testing.T) {
	sel := session.NewMemory(0)
	require.NoError(t, sel.Set(context.Background(), "alice", "cerrado"))

	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: sel, Scoped: true}, alice, (&captureTenant{}).handler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "TENANT_INACTIVE", errorCode(t, rr))
	_, ok, _ := sel.Get(context.Background(), "alice")
	assert.False(t, ok)
}

func TestTenantContext_UnknownTenantIsForbidden(t *testing.T) {
	sel := session.NewMemory(0)
	require.NoError(t, sel.Set(context.Background(), "alice", "fantasma"))

	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: sel}, alice, (&captureTenant{}).handler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/tenants", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "TENANT_FORBIDDEN", errorCode(t, rr))
}

func TestTenantContext_PrivilegedOverride(t *testing.T) {
	admin := &Principal{AccountID: "root", Roles: []string{domain.RolePlatformAdmin}}
	sel := session.NewMemory(0)
	c := &captureTenant{}

	cfg := TenantConfig{
		Directory:       newDirectory(),
		Selections:      sel,
		Scoped:          true,
		PrivilegedRoles: []string{domain.RolePlatformAdmin},
	}
	h := tenantStack(cfg, admin, c.handler())

	req := httptest.NewRequest(http.MethodGet, "/v1/patients", nil)
	req.Header.Set(DefaultOverrideHeader, " NORTE ")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	code, _ := c.seen.Code()
	assert.Equal(t, "norte", code)

	// el override no se persiste
	_, ok, _ := sel.Get(context.Background(), "root")
	assert.False(t, ok)
}

func TestTenantContext_OverrideIgnoredForRegularAccounts(t *testing.T) {
	sel := session.NewMemory(0)
	require.NoError(t, sel.Set(context.Background(), "alice", "general"))
	c := &captureTenant{}

	cfg := TenantConfig{
		Directory:       newDirectory(),
		Selections:      sel,
		Scoped:          true,
		PrivilegedRoles: []string{domain.RolePlatformAdmin},
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/patients", nil)
	req.Header.Set(DefaultOverrideHeader, "norte")
	rr := httptest.NewRecorder()
	tenantStack(cfg, alice, c.handler()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	code, _ := c.seen.Code()
	assert.Equal(t, "general", code)
}

func TestTenantContext_ClearsAfterPanic(t *testing.T) {
	sel := session.NewMemory(0)
	require.NoError(t, sel.Set(context.Background(), "alice", "general"))

	var scope *tenantctx.Scope
	var during tenantctx.Value
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope = tenantctx.ScopeFrom(r.Context())
		during = scope.Get()
		panic("boom")
	})

	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: sel, Scoped: true}, alice, boom)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotNil(t, scope)
	assert.True(t, during.IsSet())
	assert.False(t, scope.Get().IsSet())
}

func TestTenantContext_UnauthenticatedScopedRoute(t *testing.T) {
	h := tenantStack(TenantConfig{Directory: newDirectory(), Selections: session.NewMemory(0), Scoped: true}, nil, (&captureTenant{}).handler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuth(t *testing.T) {
	iss, err := jwtx.NewIssuer("clinicore-test", []byte("0123456789abcdef0123456789abcdef"), time.Minute)
	require.NoError(t, err)

	var got *Principal
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	}), RequireAuth(BearerJWT(iss)))

	t.Run("sin header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, rr))
	})

	t.Run("token inválido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "TOKEN_INVALID", errorCode(t, rr))
	})

	t.Run("token válido", func(t *testing.T) {
		tok, _, err := iss.IssueAccess("acc-1", []string{domain.RoleNurse})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, got)
		assert.Equal(t, "acc-1", got.AccountID)
		assert.Equal(t, []string{domain.RoleNurse}, got.Roles)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rr := httptest.NewRecorder()
	Chain(ok, withUser(alice), RequireRole(domain.RolePlatformAdmin)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	Chain(ok, withUser(alice), RequireRole(domain.RoleDoctor)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestIDAndLogging(t *testing.T) {
	var rid string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid = GetRequestID(r.Context())
		_, _ = w.Write([]byte("ok"))
	}), WithRequestID(), WithLogging())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rid)
	assert.Equal(t, "abc-123", rr.Header().Get(HeaderRequestID))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rr.Header().Get(HeaderRequestID))
}

func TestRequestID_RejectsUnsafeValue(t *testing.T) {
	h := Chain(http.NotFoundHandler(), WithRequestID())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc 123\nforged=1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.NotEqual(t, "abc 123\nforged=1", rr.Header().Get(HeaderRequestID))
	assert.Len(t, rr.Header().Get(HeaderRequestID), 36)
}

func TestLogging_AccessLineCarriesTenant(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	sel := session.NewMemory(0)
	require.NoError(t, sel.Set(context.Background(), "alice", "general"))
	c := &captureTenant{}
	h := Chain(c.handler(),
		WithRequestID(), WithLogging(), withUser(alice),
		TenantContext(TenantConfig{Directory: newDirectory(), Selections: sel, Scoped: true}),
	)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	lines := logs.FilterMessage("request completed").All()
	require.Len(t, lines, 1)
	fields := lines[0].ContextMap()
	assert.Equal(t, "general", fields["tenant_code"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
	assert.Equal(t, rr.Header().Get(HeaderRequestID), fields["request_id"])
}

func TestWithCORS_Preflight(t *testing.T) {
	h := Chain(http.NotFoundHandler(), WithCORS([]string{"https://app.example.com/"}))

	req := httptest.NewRequest(http.MethodOptions, "/v1/patients", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
