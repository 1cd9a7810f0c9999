package tenantctx

import (
	"context"
	"fmt"
)

type scopeKey struct{}

// Begin crea un Scope nuevo (Unset) y lo asocia al contexto.
// Si ctx ya tenía un Scope, el nuevo lo oculta: nunca se hereda el tenant de otra unidad.
func Begin(ctx context.Context) (context.Context, *Scope) {
	s := &Scope{}
	return context.WithValue(ctx, scopeKey{}, s), s
}

// ScopeFrom retorna el Scope del contexto o nil.
func ScopeFrom(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Set instala el tenant en el Scope del contexto.
func Set(ctx context.Context, code string) error {
	s := ScopeFrom(ctx)
	if s == nil {
		return ErrNoScope
	}
	s.Set(code)
	return nil
}

// Get retorna el tenant del contexto. Sin Scope o sin Set => Unset.
func Get(ctx context.Context) Value {
	return ScopeFrom(ctx).Get()
}

// Code es un atajo para Get(ctx).Code().
func Code(ctx context.Context) (string, bool) {
	return Get(ctx).Code()
}

// Clear limpia el Scope del contexto (no-op si no hay).
func Clear(ctx context.Context) {
	ScopeFrom(ctx).Clear()
}

// Suspend pausa el tenant del Scope del contexto. Ver Scope.Suspend.
func Suspend(ctx context.Context) (func(), error) {
	s := ScopeFrom(ctx)
	if s == nil {
		return nil, ErrNoScope
	}
	return s.Suspend()
}

// Run ejecuta fn como unidad de trabajo del tenant indicado, con un Scope propio
// que se limpia en cualquier salida, incluso ante panic.
func Run(ctx context.Context, code string, fn func(ctx context.Context) error) error {
	ctx, s := Begin(ctx)
	defer s.Clear()

	if !Active(code).IsSet() {
		return fmt.Errorf("tenantctx: empty tenant code")
	}
	s.Set(code)
	return fn(ctx)
}
