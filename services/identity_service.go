package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sabridemirel/arayanibul-sub003/auth"
	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
	"github.com/sabridemirel/arayanibul-sub003/federation"
	"github.com/sabridemirel/arayanibul-sub003/repositories"
)

// AuthResult is what every successful authentication path returns: the
// canonical account plus a freshly issued session token.
type AuthResult struct {
	Account domain.Account
	Token   auth.Token
}

type IIdentityService interface {
	RegisterLocal(ctx context.Context, email, password, name string) (AuthResult, error)
	AuthenticateLocal(ctx context.Context, email, password string) (AuthResult, error)
	AuthenticateFederated(ctx context.Context, provider domain.Provider, accessToken string) (AuthResult, error)
	CreateGuest(ctx context.Context) (AuthResult, error)
}

// IdentityService normalizes local, federated and guest logins into one
// canonical account model. It never holds realtime registry state: identity
// operations block on storage and provider round-trips and must stay
// independent from connection bookkeeping.
type IdentityService struct {
	accounts  repositories.IAccountRepository
	verifiers federation.VerifierSet
	issuer    *auth.TokenIssuer
	log       *slog.Logger
}

func NewIdentityService(
	accounts repositories.IAccountRepository,
	verifiers federation.VerifierSet,
	issuer *auth.TokenIssuer,
	log *slog.Logger,
) IIdentityService {
	return &IdentityService{accounts: accounts, verifiers: verifiers, issuer: issuer, log: log}
}

// RegisterLocal creates a password-backed account. Email uniqueness is
// enforced by the storage layer, not by a prior read, so two concurrent
// registrations with the same email cannot both succeed.
func (s *IdentityService) RegisterLocal(ctx context.Context, email, password, name string) (AuthResult, error) {
	valReq := auth.RegisterRequest{Email: email, Password: password, Name: name}

	// Validate business rules before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing failed: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Provider:     domain.ProviderLocal,
		CreatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.accounts.Create(account); err != nil {
		return AuthResult{}, err // Propagates ErrDuplicateEmail when the email is taken.
	}

	s.log.Info("local account registered", "account_id", account.ID)
	return s.withToken(account)
}

// AuthenticateLocal verifies a password credential and bumps LastLoginAt.
func (s *IdentityService) AuthenticateLocal(ctx context.Context, email, password string) (AuthResult, error) {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}
	if account.Provider != domain.ProviderLocal {
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}

	account, err = s.accounts.TouchLastLogin(account.ID, time.Now().UTC())
	if err != nil {
		return AuthResult{}, err
	}
	return s.withToken(account)
}

// AuthenticateFederated exchanges a provider access token for a profile,
// then logs into the account bound to (provider, providerUserId), creating
// it on first login. A provider timeout surfaces as the transient
// ErrProviderUnavailable and leaves no account behind.
func (s *IdentityService) AuthenticateFederated(ctx context.Context, provider domain.Provider, accessToken string) (AuthResult, error) {
	verifier, err := s.verifiers.For(provider)
	if err != nil {
		return AuthResult{}, err
	}

	profile, err := verifier.Verify(ctx, accessToken)
	if err != nil {
		return AuthResult{}, err
	}

	account, err := s.accounts.GetByProviderID(provider, profile.ProviderUserID)
	switch {
	case err == nil:
		account, err = s.accounts.TouchLastLogin(account.ID, time.Now().UTC())
		if err != nil {
			return AuthResult{}, err
		}
		return s.withToken(account)

	case errors.Is(err, apperrors.ErrAccountNotFound):
		now := time.Now().UTC()
		account = domain.Account{
			ID:          uuid.NewString(),
			Email:       profile.Email,
			Name:        profile.DisplayName(),
			Provider:    provider,
			ProviderID:  profile.ProviderUserID,
			CreatedAt:   now,
			LastLoginAt: now,
		}
		if err := s.accounts.Create(account); err != nil {
			if errors.Is(err, apperrors.ErrAccountCreationFailed) {
				return AuthResult{}, err
			}
			return AuthResult{}, fmt.Errorf("%w: %v", apperrors.ErrAccountCreationFailed, err)
		}
		s.log.Info("federated account created", "account_id", account.ID, "provider", provider)
		return s.withToken(account)

	default:
		return AuthResult{}, err
	}
}

// CreateGuest mints a brand-new passwordless account on every call. The
// synthesized placeholder email stays out of the email uniqueness index so
// it can never collide with a genuine user's address.
func (s *IdentityService) CreateGuest(ctx context.Context) (AuthResult, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	account := domain.Account{
		ID:          id,
		Email:       "guest-" + id + "@guest.invalid",
		Name:        "Guest-" + id[:8],
		Provider:    domain.ProviderGuest,
		IsGuest:     true,
		CreatedAt:   now,
		LastLoginAt: now,
	}

	if err := s.accounts.Create(account); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", apperrors.ErrAccountCreationFailed, err)
	}
	return s.withToken(account)
}

func (s *IdentityService) withToken(account domain.Account) (AuthResult, error) {
	token, err := s.issuer.Issue(account.ID, account.IsGuest)
	if err != nil {
		return AuthResult{}, apperrors.ErrTokenGeneration
	}
	return AuthResult{Account: account, Token: token}, nil
}
