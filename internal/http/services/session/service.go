// Package session contiene los services de login y de selección de hospital.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/domain"
	dto "github.com/dropDatabas3/clinicore/internal/http/dto/session"
	jwtx "github.com/dropDatabas3/clinicore/internal/jwt"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	selection "github.com/dropDatabas3/clinicore/internal/session"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
	"github.com/dropDatabas3/clinicore/internal/util"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("tenant not authorized")
	ErrTenantInactive     = errors.New("tenant inactive")
	ErrIssuerDisabled     = errors.New("token issuer not configured")
)

// Directory lookups cacheados de hospitales y permisos (directory.Directory).
type Directory interface {
	Lookup(ctx context.Context, code string) (*domain.Tenant, error)
	HasAccess(ctx context.Context, accountID, code string) (bool, error)
}

// Caller cuenta que opera y si tiene rol privilegiado.
type Caller struct {
	AccountID  string
	Privileged bool
}

// Service login y selección de hospital.
type Service interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)

	// Options lista los hospitales que el llamador puede elegir.
	Options(ctx context.Context, c Caller) ([]dto.TenantOption, error)

	// Select valida y registra la selección. Queda vigente para los requests siguientes.
	Select(ctx context.Context, c Caller, code string) (*dto.SelectionResponse, error)

	Current(ctx context.Context, c Caller) (*dto.SelectionResponse, error)
	Clear(ctx context.Context, c Caller) error
}

// Deps dependencias del service.
type Deps struct {
	ControlPlane *controlplane.Service
	Directory    Directory
	Selections   selection.SelectionStore
	Issuer       *jwtx.Issuer
}

type service struct {
	deps Deps
}

// NewService crea el service.
func NewService(d Deps) Service {
	return &service{deps: d}
}

func (s *service) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Login"))

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if s.deps.Issuer == nil {
		return nil, ErrIssuerDisabled
	}

	acc, err := s.deps.ControlPlane.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, controlplane.ErrInvalidPassword) {
			log.Info("login rejected", logger.String("email", util.MaskEmail(req.Email)))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	tok, exp, err := s.deps.Issuer.IssueAccess(acc.ID, acc.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	log.Info("login ok", logger.AccountID(acc.ID))
	return &dto.LoginResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp).Seconds()),
	}, nil
}

func (s *service) Options(ctx context.Context, c Caller) ([]dto.TenantOption, error) {
	if c.Privileged {
		list, err := s.deps.ControlPlane.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]dto.TenantOption, 0, len(list))
		for i := range list {
			if list[i].Active {
				out = append(out, toOption(&list[i]))
			}
		}
		return out, nil
	}

	grants, err := s.deps.ControlPlane.GrantsFor(ctx, c.AccountID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TenantOption, 0, len(grants))
	for _, g := range grants {
		t, err := s.deps.Directory.Lookup(ctx, g.TenantCode)
		if err != nil {
			if errors.Is(err, controlplane.ErrTenantNotFound) {
				continue
			}
			return nil, err
		}
		if t.Active {
			out = append(out, toOption(t))
		}
	}
	return out, nil
}

func (s *service) Select(ctx context.Context, c Caller, code string) (*dto.SelectionResponse, error) {
	code = tenantctx.Normalize(code)
	if code == "" {
		return nil, ErrMissingFields
	}

	t, err := s.authorize(ctx, c, code)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Selections.Set(ctx, c.AccountID, t.Code); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("tenant selected",
		logger.Layer("service"),
		logger.AccountID(c.AccountID),
		logger.TenantCode(t.Code),
	)
	opt := toOption(t)
	return &dto.SelectionResponse{Code: t.Code, Tenant: &opt}, nil
}

func (s *service) Current(ctx context.Context, c Caller) (*dto.SelectionResponse, error) {
	code, ok, err := s.deps.Selections.Get(ctx, c.AccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &dto.SelectionResponse{}, nil
	}

	t, err := s.authorize(ctx, c, code)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) || errors.Is(err, ErrTenantInactive) {
			// selección vieja: se descarta igual que en el middleware
			_ = s.deps.Selections.Clear(ctx, c.AccountID)
			return &dto.SelectionResponse{}, nil
		}
		return nil, err
	}
	opt := toOption(t)
	return &dto.SelectionResponse{Code: t.Code, Tenant: &opt}, nil
}

func (s *service) Clear(ctx context.Context, c Caller) error {
	return s.deps.Selections.Clear(ctx, c.AccountID)
}

func (s *service) authorize(ctx context.Context, c Caller, code string) (*domain.Tenant, error) {
	t, err := s.deps.Directory.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, controlplane.ErrTenantNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotAuthorized, code)
		}
		return nil, err
	}
	if !t.Active {
		return nil, fmt.Errorf("%w: %s", ErrTenantInactive, code)
	}
	if c.Privileged {
		return t, nil
	}
	ok, err := s.deps.Directory.HasAccess(ctx, c.AccountID, t.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAuthorized, code)
	}
	return t, nil
}

func toOption(t *domain.Tenant) dto.TenantOption {
	return dto.TenantOption{ID: t.ID, Code: t.Code, Name: t.Name, Active: t.Active}
}
