package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig conexión a un store. En tenant_store, DSN y Schema admiten {tenant}.
type StoreConfig struct {
	Driver       string `yaml:"driver"` // memory | bolt | postgres
	DSN          string `yaml:"dsn"`
	Schema       string `yaml:"schema"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env         string `yaml:"app_env"`
		ServiceName string `yaml:"service_name"`
		LogLevel    string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string        `yaml:"addr"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	// SharedStore store compartido (hospitales, cuentas, permisos).
	SharedStore StoreConfig `yaml:"shared_store"`

	// TenantStore template para hospitales sin conexión propia.
	TenantStore StoreConfig `yaml:"tenant_store"`

	Stores struct {
		OpenTimeout time.Duration `yaml:"open_timeout"`
	} `yaml:"stores"`

	Selection struct {
		Driver string        `yaml:"driver"` // memory | redis
		TTL    time.Duration `yaml:"ttl"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"selection"`

	Directory struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"directory"`

	Auth struct {
		JWTSecret       string   `yaml:"jwt_secret"`
		Issuer          string   `yaml:"issuer"`
		PrivilegedRoles []string `yaml:"privileged_roles"`
		OverrideHeader  string   `yaml:"override_header"`
	} `yaml:"auth"`

	Security struct {
		SecretBoxMasterKey string `yaml:"secretbox_master_key"` // base64(32 bytes) para cifrar DSN de hospitales
	} `yaml:"security"`
}

// Default retorna la configuración por defecto (sin archivo).
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load lee el YAML (path vacío => sólo defaults), aplica overrides por env y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyDefaults()
	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.ServiceName == "" {
		c.App.ServiceName = "clinicore"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.SharedStore.Driver == "" {
		c.SharedStore.Driver = "memory"
	}
	if c.TenantStore.Driver == "" {
		c.TenantStore.Driver = "memory"
	}
	if c.Stores.OpenTimeout == 0 {
		c.Stores.OpenTimeout = 10 * time.Second
	}
	if c.Selection.Driver == "" {
		c.Selection.Driver = "memory"
	}
	if c.Selection.TTL == 0 {
		c.Selection.TTL = 12 * time.Hour
	}
	if c.Directory.TTL == 0 {
		c.Directory.TTL = 30 * time.Second
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "clinicore"
	}
	if len(c.Auth.PrivilegedRoles) == 0 {
		c.Auth.PrivilegedRoles = []string{"platform_admin"}
	}
	if c.Auth.OverrideHeader == "" {
		c.Auth.OverrideHeader = "X-Tenant-Override"
	}
}

// ---- Helpers env ----

const envPrefix = "CLINICORE_"

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
	}
	return i, true, nil
}

func getEnvDur(key string) (time.Duration, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
	}
	return d, true, nil
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides pisa el YAML con variables CLINICORE_*.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"APP_ENV":             &c.App.Env,
		"LOG_LEVEL":           &c.App.LogLevel,
		"SERVER_ADDR":         &c.Server.Addr,
		"SHARED_STORE_DRIVER": &c.SharedStore.Driver,
		"SHARED_STORE_DSN":    &c.SharedStore.DSN,
		"SHARED_STORE_SCHEMA": &c.SharedStore.Schema,
		"TENANT_STORE_DRIVER": &c.TenantStore.Driver,
		"TENANT_STORE_DSN":    &c.TenantStore.DSN,
		"TENANT_STORE_SCHEMA": &c.TenantStore.Schema,
		"SELECTION_DRIVER":    &c.Selection.Driver,
		"REDIS_ADDR":          &c.Selection.Redis.Addr,
		"REDIS_PASSWORD":      &c.Selection.Redis.Password,
		"REDIS_PREFIX":        &c.Selection.Redis.Prefix,
		"JWT_SECRET":          &c.Auth.JWTSecret,
		"JWT_ISSUER":          &c.Auth.Issuer,
		"TENANT_OVERRIDE_HDR": &c.Auth.OverrideHeader,
	}
	for key, dst := range strs {
		if v, ok := getEnvStr(key); ok {
			*dst = v
		}
	}
	c.App.Env = strings.ToLower(c.App.Env)

	ints := map[string]*int{
		"SHARED_STORE_MAX_OPEN_CONNS": &c.SharedStore.MaxOpenConns,
		"TENANT_STORE_MAX_OPEN_CONNS": &c.TenantStore.MaxOpenConns,
		"REDIS_DB":                    &c.Selection.Redis.DB,
	}
	for key, dst := range ints {
		v, ok, err := getEnvInt(key)
		if err != nil {
			return err
		}
		if ok {
			*dst = v
		}
	}

	durs := map[string]*time.Duration{
		"STORE_OPEN_TIMEOUT": &c.Stores.OpenTimeout,
		"SELECTION_TTL":      &c.Selection.TTL,
		"DIRECTORY_TTL":      &c.Directory.TTL,
	}
	for key, dst := range durs {
		v, ok, err := getEnvDur(key)
		if err != nil {
			return err
		}
		if ok {
			*dst = v
		}
	}

	if v, ok := getEnvCSV("PRIVILEGED_ROLES"); ok {
		c.Auth.PrivilegedRoles = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// La clave maestra se acepta también con el nombre histórico sin prefijo.
	if v := os.Getenv("SECRETBOX_MASTER_KEY"); v != "" {
		c.Security.SecretBoxMasterKey = v
	}
	return nil
}

var knownDrivers = map[string]bool{"memory": true, "bolt": true, "postgres": true, "pg": true}

// Validate verifica la configuración ya con defaults y overrides aplicados.
func (c *Config) Validate() error {
	var errs []error
	if !knownDrivers[c.SharedStore.Driver] {
		errs = append(errs, fmt.Errorf("shared_store.driver: unknown driver %q", c.SharedStore.Driver))
	}
	if !knownDrivers[c.TenantStore.Driver] {
		errs = append(errs, fmt.Errorf("tenant_store.driver: unknown driver %q", c.TenantStore.Driver))
	}
	if c.SharedStore.Driver != "memory" && strings.TrimSpace(c.SharedStore.DSN) == "" {
		errs = append(errs, errors.New("shared_store.dsn: required for non-memory drivers"))
	}
	// un template fijo haría que todos los hospitales compartan el mismo store
	if c.TenantStore.Driver != "memory" &&
		!strings.Contains(c.TenantStore.DSN, "{tenant}") &&
		!strings.Contains(c.TenantStore.Schema, "{tenant}") {
		errs = append(errs, errors.New("tenant_store: dsn or schema must contain {tenant}"))
	}
	if c.Selection.Driver != "memory" && c.Selection.Driver != "redis" {
		errs = append(errs, fmt.Errorf("selection.driver: unknown driver %q", c.Selection.Driver))
	}
	if c.Stores.OpenTimeout < 0 {
		errs = append(errs, errors.New("stores.open_timeout: must be positive"))
	}
	if c.App.Env == "prod" && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret: at least 32 bytes required in prod"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// IsProd indica si el entorno es prod.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }
