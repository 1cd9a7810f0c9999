package controlplane

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/domain"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
)

// minPasswordLength mínimo para cuentas nuevas.
const minPasswordLength = 8

// AccountInput datos de alta de una cuenta.
type AccountInput struct {
	Email    string
	Name     string
	Password string // Plain, se hashea al persistir
	Roles    []string
}

// CreateAccount crea una cuenta con password hasheada (bcrypt).
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*domain.Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrBadInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password too short", ErrBadInput)
	}

	if _, err := s.GetAccountByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, email)
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc, err := dataaccess.SaveAs(ctx, s.access, domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		Roles:        uniqueStrings(in.Roles),
		Active:       true,
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("account created", logger.AccountID(acc.ID))
	return &acc, nil
}

// GetAccount busca una cuenta por ID.
func (s *Service) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	acc, found, err := dataaccess.GetAs[domain.Account](ctx, s.access, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return &acc, nil
}

// GetAccountByEmail busca una cuenta por email.
func (s *Service) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	email = normalizeEmail(email)
	list, err := dataaccess.QueryAs[domain.Account](ctx, s.access, store.FieldEquals("email", email))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, email)
	}
	return &list[0], nil
}

// Authenticate verifica email y password. Cuentas inactivas no autentican.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	acc, err := s.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	if !acc.Active || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidPassword
	}
	return acc, nil
}

// ─── Access grants ───

func grantID(accountID, tenantID string) string {
	return accountID + ":" + tenantID
}

// GrantAccess habilita a la cuenta a operar sobre el hospital. Idempotente.
func (s *Service) GrantAccess(ctx context.Context, accountID, code, grantedBy string) (*domain.AccessGrant, error) {
	acc, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	id := grantID(acc.ID, t.ID)
	if g, found, err := dataaccess.GetAs[domain.AccessGrant](ctx, s.access, id); err != nil {
		return nil, err
	} else if found {
		return &g, nil
	}

	g, err := dataaccess.SaveAs(ctx, s.access, domain.AccessGrant{
		ID:         id,
		AccountID:  acc.ID,
		TenantID:   t.ID,
		TenantCode: t.Code,
		GrantedBy:  grantedBy,
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("access granted",
		logger.AccountID(acc.ID),
		logger.TenantCode(t.Code),
	)
	return &g, nil
}

// RevokeAccess quita el permiso. Revocar un permiso inexistente no es error.
func (s *Service) RevokeAccess(ctx context.Context, accountID, code string) error {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	err = s.access.Delete(ctx, placement.AccessGrant, grantID(accountID, t.ID))
	if err != nil && !store.IsNotFound(err) {
		return err
	}
	return nil
}

// HasAccess indica si la cuenta tiene permiso sobre el hospital.
func (s *Service) HasAccess(ctx context.Context, accountID, code string) (bool, error) {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return false, nil
		}
		return false, err
	}
	_, found, err := dataaccess.GetAs[domain.AccessGrant](ctx, s.access, grantID(accountID, t.ID))
	return found, err
}

// GrantsFor lista los permisos de una cuenta.
func (s *Service) GrantsFor(ctx context.Context, accountID string) ([]domain.AccessGrant, error) {
	return dataaccess.QueryAs[domain.AccessGrant](ctx, s.access, store.FieldEquals("account_id", accountID))
}
