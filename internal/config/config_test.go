package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.SharedStore.Driver)
	assert.Equal(t, "memory", c.TenantStore.Driver)
	assert.Equal(t, 10*time.Second, c.Stores.OpenTimeout)
	assert.Equal(t, "memory", c.Selection.Driver)
	assert.Equal(t, []string{"platform_admin"}, c.Auth.PrivilegedRoles)
	assert.Equal(t, "X-Tenant-Override", c.Auth.OverrideHeader)
	assert.False(t, c.IsProd())
}

func TestLoad_YAML(t *testing.T) {
	p := writeYAML(t, `
app:
  app_env: staging
server:
  addr: ":9090"
  read_timeout: 5s
shared_store:
  driver: postgres
  dsn: postgres://db/clinicore
  schema: shared
tenant_store:
  driver: postgres
  dsn: postgres://db/clinicore
  schema: "t_{tenant}"
selection:
  driver: redis
  ttl: 1h
  redis:
    addr: redis:6379
    db: 2
directory:
  ttl: 1m
auth:
  privileged_roles: [platform_admin, support]
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "staging", c.App.Env)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, 5*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, "postgres", c.SharedStore.Driver)
	assert.Equal(t, "t_{tenant}", c.TenantStore.Schema)
	assert.Equal(t, "redis", c.Selection.Driver)
	assert.Equal(t, time.Hour, c.Selection.TTL)
	assert.Equal(t, 2, c.Selection.Redis.DB)
	assert.Equal(t, time.Minute, c.Directory.TTL)
	assert.Equal(t, []string{"platform_admin", "support"}, c.Auth.PrivilegedRoles)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLINICORE_SERVER_ADDR", ":7070")
	t.Setenv("CLINICORE_APP_ENV", "STAGING")
	t.Setenv("CLINICORE_TENANT_STORE_DRIVER", "bolt")
	t.Setenv("CLINICORE_TENANT_STORE_DSN", "/var/lib/clinicore/{tenant}.db")
	t.Setenv("CLINICORE_STORE_OPEN_TIMEOUT", "3s")
	t.Setenv("CLINICORE_REDIS_DB", "4")
	t.Setenv("CLINICORE_PRIVILEGED_ROLES", "root, platform_admin")
	t.Setenv("SECRETBOX_MASTER_KEY", "a2V5")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, "staging", c.App.Env)
	assert.Equal(t, "bolt", c.TenantStore.Driver)
	assert.Equal(t, 3*time.Second, c.Stores.OpenTimeout)
	assert.Equal(t, 4, c.Selection.Redis.DB)
	assert.Equal(t, []string{"root", "platform_admin"}, c.Auth.PrivilegedRoles)
	assert.Equal(t, "a2V5", c.Security.SecretBoxMasterKey)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("CLINICORE_DIRECTORY_TTL", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeYAML(t, "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown shared driver": func(c *Config) { c.SharedStore.Driver = "mongo" },
		"shared dsn required":   func(c *Config) { c.SharedStore.Driver = "bolt" },
		"tenant template fixed": func(c *Config) { c.TenantStore = StoreConfig{Driver: "bolt", DSN: "/data/all.db"} },
		"unknown selection":     func(c *Config) { c.Selection.Driver = "etcd" },
		"prod needs jwt secret": func(c *Config) { c.App.Env = "prod"; c.Auth.JWTSecret = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
