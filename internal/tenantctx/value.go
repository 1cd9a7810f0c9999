package tenantctx

import "strings"

// Value es Unset o Active(code).
type Value struct {
	code   string
	active bool
}

// Unset retorna el valor sin tenant.
func Unset() Value { return Value{} }

// ReservedCode es la clave del store compartido; ningún hospital puede usarla.
const ReservedCode = "shared"

// Active retorna el valor con el tenant indicado. Un código vacío o ReservedCode
// equivale a Unset.
func Active(code string) Value {
	code = Normalize(code)
	if code == "" || code == ReservedCode {
		return Value{}
	}
	return Value{code: code, active: true}
}

// Code retorna el código y si hay tenant activo.
func (v Value) Code() (string, bool) { return v.code, v.active }

// IsSet indica si hay tenant activo.
func (v Value) IsSet() bool { return v.active }

func (v Value) String() string {
	if !v.active {
		return "unset"
	}
	return "active(" + v.code + ")"
}

// Normalize lleva un código de tenant a su forma canónica (trim + minúsculas).
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
