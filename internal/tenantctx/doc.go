// Package tenantctx guarda qué hospital está activo durante una unidad de trabajo
// (un request HTTP o un job en background).
//
// El valor vive en un Scope que viaja dentro del context.Context del request.
// No hay estado global: dos requests concurrentes nunca comparten Scope, y un Scope
// muere con su request aunque la goroutine del servidor se reutilice.
//
// Uso típico (lo hace el middleware de tenant):
//
//	ctx, scope := tenantctx.Begin(r.Context())
//	defer scope.Clear()
//	scope.Set("gen")
//	next.ServeHTTP(w, r.WithContext(ctx))
//
// Jobs en background:
//
//	err := tenantctx.Run(ctx, "gen", func(ctx context.Context) error { ... })
package tenantctx
