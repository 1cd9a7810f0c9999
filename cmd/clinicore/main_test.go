package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args ...string) error {
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	return cmd.Execute()
}

func TestTenantsList_MemoryStore(t *testing.T) {
	t.Setenv("CLINICORE_SHARED_STORE_DRIVER", "memory")
	require.NoError(t, run("tenants", "list", "--out", "json"))
}

func TestTenantsCreate_RequiresFlags(t *testing.T) {
	err := run("tenants", "create", "--code", "general")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name")
}

func TestTenantsCreate_BoltStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLINICORE_SHARED_STORE_DRIVER", "bolt")
	t.Setenv("CLINICORE_SHARED_STORE_DSN", dir+"/shared.db")
	t.Setenv("CLINICORE_TENANT_STORE_DRIVER", "bolt")
	t.Setenv("CLINICORE_TENANT_STORE_DSN", dir+"/{tenant}.db")

	require.NoError(t, run("tenants", "create", "--code", "general", "--name", "General Hospital"))
	require.NoError(t, run("tenants", "deactivate", "general"))
	require.NoError(t, run("tenants", "activate", "general"))

	// persistido en el store compartido: un segundo alta choca
	err := run("tenants", "create", "--code", "general", "--name", "Otra vez")
	require.Error(t, err)
}

func TestToken_RequiresSecret(t *testing.T) {
	t.Setenv("CLINICORE_JWT_SECRET", "")
	err := run("token", "--account", "acc-1")
	require.Error(t, err)
}

func TestSecretEncryptDSN(t *testing.T) {
	t.Setenv("SECRETBOX_MASTER_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	require.NoError(t, run("secret", "encrypt-dsn", "postgres://app:pw@db/general"))

	err := run("secret", "check-dsn", "no-es-un-cifrado")
	require.Error(t, err)
}

func TestSecretEncryptDSN_RequiresKey(t *testing.T) {
	t.Setenv("SECRETBOX_MASTER_KEY", "")
	err := run("secret", "encrypt-dsn", "postgres://db/general")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRETBOX_MASTER_KEY")
}

func TestTenantsPurge_RequiresConfirmation(t *testing.T) {
	t.Setenv("CLINICORE_SHARED_STORE_DRIVER", "memory")
	err := run("tenants", "purge", "general")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
