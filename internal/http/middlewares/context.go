package middlewares

import (
	"context"
	"sync"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	ctxPrincipalKey ctxKey = "principal"
	ctxRequestIDKey ctxKey = "request_id"
	ctxMetaKey      ctxKey = "request_meta"
)

// Principal es el llamador autenticado.
type Principal struct {
	AccountID string
	Roles     []string
}

// HasAnyRole indica si el principal tiene alguno de los roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range p.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// WithPrincipal inyecta el principal en el contexto.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

// GetPrincipal retorna el principal o nil si el request no está autenticado.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxPrincipalKey).(*Principal)
	return p
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}

// requestMeta lo crea WithLogging y lo completan los middlewares internos,
// para que la línea final del request incluya cuenta y hospital.
type requestMeta struct {
	mu        sync.Mutex
	accountID string
	tenant    string
	denied    string
}

func withMeta(ctx context.Context) (context.Context, *requestMeta) {
	m := &requestMeta{}
	return context.WithValue(ctx, ctxMetaKey, m), m
}

func metaFrom(ctx context.Context) *requestMeta {
	m, _ := ctx.Value(ctxMetaKey).(*requestMeta)
	return m
}

func (m *requestMeta) set(fn func(m *requestMeta)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	fn(m)
	m.mu.Unlock()
}

func (m *requestMeta) snapshot() (accountID, tenant, denied string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accountID, m.tenant, m.denied
}
