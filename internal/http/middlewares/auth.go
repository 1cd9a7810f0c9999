package middlewares

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/clinicore/internal/http/errors"
	jwtx "github.com/dropDatabas3/clinicore/internal/jwt"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// ErrNoCredentials el request no trae credenciales.
var ErrNoCredentials = stderrors.New("no credentials")

// PrincipalResolver obtiene el llamador autenticado de un request.
type PrincipalResolver interface {
	Resolve(r *http.Request) (*Principal, error)
}

// PrincipalResolverFunc adapta una función a PrincipalResolver.
type PrincipalResolverFunc func(r *http.Request) (*Principal, error)

func (f PrincipalResolverFunc) Resolve(r *http.Request) (*Principal, error) { return f(r) }

// BearerJWT resuelve el principal desde Authorization: Bearer <JWT>.
func BearerJWT(issuer *jwtx.Issuer) PrincipalResolver {
	return PrincipalResolverFunc(func(r *http.Request) (*Principal, error) {
		ah := strings.TrimSpace(r.Header.Get("Authorization"))
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			return nil, ErrNoCredentials
		}
		claims, err := issuer.Parse(strings.TrimSpace(ah[len("Bearer "):]))
		if err != nil {
			return nil, err
		}
		sub, _ := claims["sub"].(string)
		return &Principal{AccountID: sub, Roles: jwtx.Roles(claims)}, nil
	})
}

// RequireAuth exige un principal válido. Sin credenciales o con token inválido responde 401.
func RequireAuth(resolver PrincipalResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolver.Resolve(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				if stderrors.Is(err, ErrNoCredentials) {
					errors.WriteError(w, errors.ErrUnauthorized)
					return
				}
				errors.WriteError(w, errors.ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.AccountID(p.AccountID)))
			metaFrom(ctx).set(func(m *requestMeta) { m.accountID = p.AccountID })

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole exige alguno de los roles. Debe usarse después de RequireAuth.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetPrincipal(r.Context()).HasAnyRole(roles...) {
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
