package controlplane_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/domain"
	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/router"
	sec "github.com/dropDatabas3/clinicore/internal/security/secretbox"
	"github.com/dropDatabas3/clinicore/internal/store"
	_ "github.com/dropDatabas3/clinicore/internal/store/adapters/memory"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
	"github.com/dropDatabas3/clinicore/internal/xref"
)

type env struct {
	reg    *store.Registry
	access *dataaccess.Access
	cp     *controlplane.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	reg := store.NewRegistry(store.RegistryConfig{Shared: store.ConnectionConfig{Driver: "memory"}})
	t.Cleanup(func() { _ = reg.CloseAll() })

	access := dataaccess.New(router.New(reg), xref.New(reg))
	cp := controlplane.NewService(access, reg)
	reg.SetResolver(cp.ConnectionResolver(store.ConnectionConfig{Driver: "memory"}))
	return &env{reg: reg, access: access, cp: cp}
}

func TestCreateTenant_WritesSharedThenSeedsTenantStore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tn, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: " GEN ", Name: "General Hospital", Timezone: "America/Argentina/Buenos_Aires"})
	require.NoError(t, err)
	assert.Equal(t, "gen", tn.Code)
	assert.True(t, tn.Active)

	got, err := e.cp.GetByCode(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, tn.ID, got.ID)

	byID, err := e.cp.GetByID(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, "gen", byID.Code)

	// la fila de sistema existe sólo en el store del hospital
	err = tenantctx.Run(ctx, "gen", func(ctx context.Context) error {
		s, found, err := dataaccess.GetAs[domain.TenantSettings](ctx, e.access, "system")
		require.True(t, found)
		assert.Equal(t, tn.ID, s.TenantID)
		assert.Equal(t, "General Hospital", s.DisplayName)
		return err
	})
	require.NoError(t, err)

	sh, err := e.reg.Shared(ctx)
	require.NoError(t, err)
	_, err = sh.Get(ctx, placement.TenantSettings, "system")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateTenant_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "shared", Name: "x"})
	assert.ErrorIs(t, err, controlplane.ErrReservedCode)

	_, err = e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "bad code!", Name: "x"})
	assert.ErrorIs(t, err, controlplane.ErrBadInput)

	_, err = e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "gen"})
	assert.ErrorIs(t, err, controlplane.ErrBadInput)

	_, err = e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "gen", Name: "General"})
	require.NoError(t, err)
	_, err = e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "gen", Name: "General"})
	assert.ErrorIs(t, err, controlplane.ErrTenantExists)
}

func TestCreateTenant_SuspendsAndRestoresCallerTenant(t *testing.T) {
	e := newEnv(t)
	_, err := e.cp.CreateTenant(context.Background(), controlplane.TenantInput{Code: "gen", Name: "General"})
	require.NoError(t, err)

	ctx, scope := tenantctx.Begin(context.Background())
	scope.Set("gen")

	_, err = e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "stm", Name: "St. Mary"})
	require.NoError(t, err)

	code, ok := tenantctx.Code(ctx)
	assert.True(t, ok)
	assert.Equal(t, "gen", code)
	assert.False(t, scope.Suspended())
}

func TestDeactivateAndActivate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "gen", Name: "General"})
	require.NoError(t, err)
	require.True(t, e.reg.Has("gen"))

	tn, err := e.cp.Deactivate(ctx, "gen")
	require.NoError(t, err)
	assert.False(t, tn.Active)
	assert.False(t, e.reg.Has("gen"))

	// un hospital inactivo no resuelve su store
	_, err = e.reg.Get(ctx, "gen")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.ErrorIs(t, err, controlplane.ErrTenantInactive)

	tn, err = e.cp.Activate(ctx, "gen")
	require.NoError(t, err)
	assert.True(t, tn.Active)
	_, err = e.reg.Get(ctx, "gen")
	assert.NoError(t, err)

	_, err = e.cp.Deactivate(ctx, "nope")
	assert.ErrorIs(t, err, controlplane.ErrTenantNotFound)
}

func TestDeactivateAndActivate_KeepsTenantData(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tn, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "gen", Name: "General"})
	require.NoError(t, err)

	require.NoError(t, tenantctx.Run(ctx, "gen", func(ctx context.Context) error {
		_, err := dataaccess.SaveAs(ctx, e.access, domain.Patient{TenantID: tn.ID, FirstName: "Ana", LastName: "Paz"})
		return err
	}))

	_, err = e.cp.Deactivate(ctx, "gen")
	require.NoError(t, err)
	_, err = e.cp.Activate(ctx, "gen")
	require.NoError(t, err)

	require.NoError(t, tenantctx.Run(ctx, "gen", func(ctx context.Context) error {
		patients, err := dataaccess.QueryAs[domain.Patient](ctx, e.access, nil)
		require.NoError(t, err)
		assert.Len(t, patients, 1)

		_, found, err := dataaccess.GetAs[domain.TenantSettings](ctx, e.access, "system")
		assert.True(t, found)
		return err
	}))
}

func TestList_SortedByCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, c := range []string{"stm", "gen", "cli"} {
		_, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: c, Name: c})
		require.NoError(t, err)
	}
	list, err := e.cp.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"cli", "gen", "stm"}, []string{list[0].Code, list[1].Code, list[2].Code})
}

func TestAccountsAndGrants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "gen", Name: "General"})
	require.NoError(t, err)

	acc, err := e.cp.CreateAccount(ctx, controlplane.AccountInput{
		Email: "Doc@Example.com", Name: "Dra. Ruiz", Password: "correct-horse", Roles: []string{domain.RoleDoctor, domain.RoleDoctor},
	})
	require.NoError(t, err)
	assert.Equal(t, "doc@example.com", acc.Email)
	assert.Equal(t, []string{domain.RoleDoctor}, acc.Roles)
	assert.NotEqual(t, "correct-horse", acc.PasswordHash)

	_, err = e.cp.CreateAccount(ctx, controlplane.AccountInput{Email: "doc@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, controlplane.ErrAccountExists)
	_, err = e.cp.CreateAccount(ctx, controlplane.AccountInput{Email: "x@example.com", Password: "short"})
	assert.ErrorIs(t, err, controlplane.ErrBadInput)

	_, err = e.cp.Authenticate(ctx, "doc@example.com", "correct-horse")
	assert.NoError(t, err)
	_, err = e.cp.Authenticate(ctx, "doc@example.com", "wrong")
	assert.ErrorIs(t, err, controlplane.ErrInvalidPassword)
	_, err = e.cp.Authenticate(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, controlplane.ErrInvalidPassword)

	ok, err := e.cp.HasAccess(ctx, acc.ID, "gen")
	require.NoError(t, err)
	assert.False(t, ok)

	g1, err := e.cp.GrantAccess(ctx, acc.ID, "gen", "admin")
	require.NoError(t, err)
	g2, err := e.cp.GrantAccess(ctx, acc.ID, "gen", "admin")
	require.NoError(t, err)
	assert.Equal(t, g1.ID, g2.ID)

	ok, err = e.cp.HasAccess(ctx, acc.ID, "gen")
	require.NoError(t, err)
	assert.True(t, ok)

	grants, err := e.cp.GrantsFor(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "gen", grants[0].TenantCode)

	ok, err = e.cp.HasAccess(ctx, acc.ID, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.cp.RevokeAccess(ctx, acc.ID, "gen"))
	require.NoError(t, e.cp.RevokeAccess(ctx, acc.ID, "gen"))
	ok, err = e.cp.HasAccess(ctx, acc.ID, "gen")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.cp.GrantAccess(ctx, "missing", "gen", "")
	assert.ErrorIs(t, err, controlplane.ErrAccountNotFound)
}

func TestPurge_LeavesDanglingReferences(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tn, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "gen", Name: "General"})
	require.NoError(t, err)
	acc, err := e.cp.CreateAccount(ctx, controlplane.AccountInput{Email: "a@b.c", Password: "12345678"})
	require.NoError(t, err)
	_, err = e.cp.GrantAccess(ctx, acc.ID, "gen", "")
	require.NoError(t, err)

	var invoiceID string
	require.NoError(t, tenantctx.Run(ctx, "gen", func(ctx context.Context) error {
		inv, err := dataaccess.SaveAs(ctx, e.access, domain.Invoice{TenantID: tn.ID, Number: "F-1"})
		invoiceID = inv.ID
		return err
	}))

	require.NoError(t, e.cp.Purge(ctx, "gen"))
	_, err = e.cp.GetByCode(ctx, "gen")
	assert.ErrorIs(t, err, controlplane.ErrTenantNotFound)
	grants, err := e.cp.GrantsFor(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)

	_, err = e.access.References().Resolve(ctx, placement.Tenant, tn.ID)
	assert.ErrorIs(t, err, xref.ErrDanglingReference)
	assert.NotEmpty(t, invoiceID)
}

func TestConnectionResolver_EncryptedDSN(t *testing.T) {
	sec.UnsafeResetForTests()
	t.Cleanup(sec.UnsafeResetForTests)
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	require.NoError(t, sec.Init(base64.StdEncoding.EncodeToString(key)))

	e := newEnv(t)
	ctx := context.Background()
	tn, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{
		Code:  "gen",
		Name:  "General",
		Store: &domain.StoreConfig{Driver: "memory", DSN: "memory://gen-secret"},
	})
	require.NoError(t, err)
	require.NotNil(t, tn.Store)
	assert.Empty(t, tn.Store.DSN)
	assert.NotEmpty(t, tn.Store.DSNEnc)
	assert.NotContains(t, tn.Store.DSNEnc, "gen-secret")

	resolve := e.cp.ConnectionResolver(store.ConnectionConfig{Driver: "bolt", DSN: "/data/{tenant}.db"})
	cfg, err := resolve(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Driver)
	assert.Equal(t, "memory://gen-secret", cfg.DSN)
}

func TestConnectionResolver_Template(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cp.CreateTenant(ctx, controlplane.TenantInput{Code: "stm", Name: "St. Mary"})
	require.NoError(t, err)

	resolve := e.cp.ConnectionResolver(store.ConnectionConfig{Driver: "postgres", DSN: "postgres://db/clinicore", Schema: "t_{tenant}"})
	cfg, err := resolve(ctx, "stm")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "t_stm", cfg.Schema)

	_, err = resolve(ctx, "ghost")
	assert.ErrorIs(t, err, controlplane.ErrTenantNotFound)

	_, err = e.cp.ConnectionResolver(store.ConnectionConfig{})(ctx, "stm")
	assert.ErrorIs(t, err, controlplane.ErrNoStoreTemplate)
}
