package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func Bytes(v int) zap.Field              { return zap.Int("bytes", v) }

// ─── Tenancy / routing ───

// TenantCode es el código corto del hospital (clave de su store).
func TenantCode(v string) zap.Field { return zap.String("tenant_code", v) }

// TenantID es el ID opaco del hospital en el registry compartido.
func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

// AccountID identifica la cuenta (caller) del request.
func AccountID(v string) zap.Field { return zap.String("account_id", v) }

// Entity es el tipo de entidad sobre la que se opera.
func Entity(v string) zap.Field { return zap.String("entity", v) }

// StoreKey es la clave del store en el registry ("shared" o código de tenant).
func StoreKey(v string) zap.Field { return zap.String("store_key", v) }

// Placement es la ubicación de la entidad ("shared" | "tenant").
func Placement(v string) zap.Field { return zap.String("placement", v) }

// Driver es el adapter de almacenamiento.
func Driver(v string) zap.Field { return zap.String("driver", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// ─── Datos ───

func ID(v string) zap.Field             { return zap.String("id", v) }
func Count(v int) zap.Field             { return zap.Int("count", v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
