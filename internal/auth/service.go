package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/internal/customers"
	pkgauth "github.com/frostcrinkle/bakery-backend/pkg/auth"
	"github.com/frostcrinkle/bakery-backend/pkg/auth/session"
	"github.com/frostcrinkle/bakery-backend/pkg/config"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/security"
)

// Service issues and rotates customer sessions.
type Service interface {
	Register(ctx context.Context, dto RegisterDTO) (*SessionDTO, error)
	Login(ctx context.Context, dto LoginDTO) (*SessionDTO, error)
	Refresh(ctx context.Context, dto RefreshDTO) (*SessionDTO, error)
	Logout(ctx context.Context, accessToken string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	customers   *customers.Repository
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

type NewServiceParams struct {
	Customers   *customers.Repository
	Sessions    sessionManager
	JWTConfig   config.JWTConfig
	PasswordCfg config.PasswordConfig
	Logger      *logger.Logger
}

func NewService(params NewServiceParams) (Service, error) {
	switch {
	case params.Customers == nil:
		return nil, errors.New("auth: customers repository is required")
	case params.Sessions == nil:
		return nil, errors.New("auth: session manager is required")
	case params.Logger == nil:
		return nil, errors.New("auth: logger is required")
	}
	return &service{
		customers:   params.Customers,
		sessions:    params.Sessions,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordCfg,
		logg:        params.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, dto RegisterDTO) (*SessionDTO, error) {
	email := normalizeEmail(dto.Email)

	if _, err := s.customers.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking existing customer")
	}

	hash, err := security.HashPassword(dto.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	customer, err := s.customers.Create(ctx, customers.CreateCustomerDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(dto.Name),
		Phone:        dto.Phone,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating customer")
	}

	s.logg.Info(s.logg.WithCustomerID(ctx, customer.ID.String()), "customer registered")
	return s.issueSession(ctx, customer)
}

func (s *service) Login(ctx context.Context, dto LoginDTO) (*SessionDTO, error) {
	customer, err := s.customers.FindByEmail(ctx, normalizeEmail(dto.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}
	if !customer.IsActive {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(dto.Password, customer.PasswordHash)
	if err != nil || !ok {
		return nil, invalidCredentials()
	}

	if err := s.customers.UpdateLastLogin(ctx, customer.ID, time.Now().UTC()); err != nil {
		s.logg.Error(ctx, "updating last login failed", err)
	}

	return s.issueSession(ctx, customer)
}

func (s *service) Refresh(ctx context.Context, dto RefreshDTO) (*SessionDTO, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, dto.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, dto.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotating session")
	}

	customer, err := s.customers.FindByID(ctx, claims.CustomerID)
	if err != nil || !customer.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account unavailable")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		CustomerID: customer.ID,
		Role:       customer.Role,
		JTI:        newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &SessionDTO{
		AccessToken:  access,
		RefreshToken: newRefresh,
		Customer:     customers.FromModel(customer),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) issueSession(ctx context.Context, customer *models.Customer) (*SessionDTO, error) {
	accessID := session.NewAccessID()
	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		CustomerID: customer.ID,
		Role:       customer.Role,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing session")
	}

	return &SessionDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		Customer:     customers.FromModel(customer),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
