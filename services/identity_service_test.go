package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sabridemirel/arayanibul-sub003/auth"
	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
	"github.com/sabridemirel/arayanibul-sub003/federation"
	"github.com/sabridemirel/arayanibul-sub003/mocks"
)

const testSecret = "service_test_secret_of_32_bytes!!"

func newService(t *testing.T, repo *mocks.MockIAccountRepository, verifiers federation.VerifierSet) (IIdentityService, *auth.TokenIssuer) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(testSecret, 24*time.Hour, "arayanibul")
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIdentityService(repo, verifiers, issuer, log), issuer
}

func TestIdentityService_RegisterLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIAccountRepository(ctrl)
	svc, issuer := newService(t, mockRepo, nil)
	ctx := context.Background()

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		var stored domain.Account

		mockRepo.EXPECT().
			Create(gomock.Any()).
			DoAndReturn(func(account domain.Account) error {
				stored = account
				return nil
			}).
			Times(1)

		result, err := svc.RegisterLocal(ctx, "test@example.com", "ComplexPass123!", "Test User")

		req.NoError(err)
		req.NotEmpty(result.Token)
		req.Equal(domain.ProviderLocal, result.Account.Provider)
		req.False(result.Account.IsGuest)

		// The repository must never see the plain password.
		req.NotEqual("ComplexPass123!", stored.PasswordHash)
		req.True(strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

		// The issued token resolves straight back to the new account.
		accountID, err := issuer.Validate(result.Token)
		req.NoError(err)
		req.Equal(result.Account.ID, accountID)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called.
		mockRepo.EXPECT().Create(gomock.Any()).Times(0)

		_, err := svc.RegisterLocal(ctx, "test@example.com", "simple", "Test User")

		req.ErrorIs(err, apperrors.ErrValidation)
	})

	t.Run("should surface duplicate email from storage", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			Create(gomock.Any()).
			Return(apperrors.ErrDuplicateEmail).
			Times(1)

		_, err := svc.RegisterLocal(ctx, "duplicate@example.com", "ComplexPass123!", "Test User")

		req.ErrorIs(err, apperrors.ErrDuplicateEmail)
	})
}

func TestIdentityService_AuthenticateLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIAccountRepository(ctrl)
	svc, issuer := newService(t, mockRepo, nil)
	ctx := context.Background()

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		password := "Secret123456!"
		hashedPassword, _ := auth.HashPassword(password)
		storedAccount := domain.Account{
			ID:           "uuid-123",
			Email:        "user@example.com",
			PasswordHash: hashedPassword,
			Provider:     domain.ProviderLocal,
		}

		mockRepo.EXPECT().
			GetByEmail("user@example.com").
			Return(storedAccount, nil).
			Times(1)
		mockRepo.EXPECT().
			TouchLastLogin("uuid-123", gomock.Any()).
			DoAndReturn(func(id string, at time.Time) (domain.Account, error) {
				storedAccount.LastLoginAt = at
				return storedAccount, nil
			}).
			Times(1)

		result, err := svc.AuthenticateLocal(ctx, "user@example.com", password)

		req.NoError(err)
		req.False(result.Account.LastLoginAt.IsZero())

		accountID, err := issuer.Validate(result.Token)
		req.NoError(err)
		req.Equal("uuid-123", accountID)
	})

	t.Run("should return invalid credentials on wrong password", func(t *testing.T) {
		req := require.New(t)
		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedAccount := domain.Account{
			Email:        "user@example.com",
			PasswordHash: hashedPassword,
			Provider:     domain.ProviderLocal,
		}

		mockRepo.EXPECT().
			GetByEmail("user@example.com").
			Return(storedAccount, nil).
			Times(1)
		mockRepo.EXPECT().TouchLastLogin(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.AuthenticateLocal(ctx, "user@example.com", "WrongPassword123!")

		req.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when account is missing", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetByEmail("unknown@example.com").
			Return(domain.Account{}, apperrors.ErrAccountNotFound).
			Times(1)

		_, err := svc.AuthenticateLocal(ctx, "unknown@example.com", "anyPassword1!")

		req.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})
}

func TestIdentityService_AuthenticateFederated(t *testing.T) {
	ctx := context.Background()
	profile := domain.ExternalProfile{
		ProviderUserID: "google-uid-7",
		Email:          "fed@example.com",
		GivenName:      "Fed",
		FamilyName:     "Erated",
	}

	t.Run("provider timeout is transient and creates nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		mockRepo := mocks.NewMockIAccountRepository(ctrl)
		mockVerifier := mocks.NewMockProfileVerifier(ctrl)
		svc, _ := newService(t, mockRepo, federation.VerifierSet{domain.ProviderGoogle: mockVerifier})

		mockVerifier.EXPECT().
			Verify(gomock.Any(), "slow-token").
			Return(domain.ExternalProfile{}, apperrors.ErrProviderUnavailable).
			Times(1)
		mockRepo.EXPECT().Create(gomock.Any()).Times(0)
		mockRepo.EXPECT().TouchLastLogin(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.AuthenticateFederated(ctx, domain.ProviderGoogle, "slow-token")

		req.ErrorIs(err, apperrors.ErrProviderUnavailable)
	})

	t.Run("rejected token is reported as such", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		mockRepo := mocks.NewMockIAccountRepository(ctrl)
		mockVerifier := mocks.NewMockProfileVerifier(ctrl)
		svc, _ := newService(t, mockRepo, federation.VerifierSet{domain.ProviderGoogle: mockVerifier})

		mockVerifier.EXPECT().
			Verify(gomock.Any(), "bad-token").
			Return(domain.ExternalProfile{}, apperrors.ErrInvalidProviderToken).
			Times(1)

		_, err := svc.AuthenticateFederated(ctx, domain.ProviderGoogle, "bad-token")

		req.ErrorIs(err, apperrors.ErrInvalidProviderToken)
	})

	t.Run("first login creates an account bound to the provider identity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		mockRepo := mocks.NewMockIAccountRepository(ctrl)
		mockVerifier := mocks.NewMockProfileVerifier(ctrl)
		svc, issuer := newService(t, mockRepo, federation.VerifierSet{domain.ProviderGoogle: mockVerifier})

		mockVerifier.EXPECT().
			Verify(gomock.Any(), "good-token").
			Return(profile, nil).
			Times(1)
		mockRepo.EXPECT().
			GetByProviderID(domain.ProviderGoogle, "google-uid-7").
			Return(domain.Account{}, apperrors.ErrAccountNotFound).
			Times(1)
		mockRepo.EXPECT().
			Create(gomock.Any()).
			Return(nil).
			Times(1)

		result, err := svc.AuthenticateFederated(ctx, domain.ProviderGoogle, "good-token")

		req.NoError(err)
		req.Equal(domain.ProviderGoogle, result.Account.Provider)
		req.Equal("google-uid-7", result.Account.ProviderID)
		req.Equal("Fed Erated", result.Account.Name)

		accountID, err := issuer.Validate(result.Token)
		req.NoError(err)
		req.Equal(result.Account.ID, accountID)
	})

	t.Run("repeat login reuses the bound account", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		mockRepo := mocks.NewMockIAccountRepository(ctrl)
		mockVerifier := mocks.NewMockProfileVerifier(ctrl)
		svc, _ := newService(t, mockRepo, federation.VerifierSet{domain.ProviderGoogle: mockVerifier})

		existing := domain.Account{
			ID:         "existing-id",
			Provider:   domain.ProviderGoogle,
			ProviderID: "google-uid-7",
		}

		mockVerifier.EXPECT().
			Verify(gomock.Any(), "good-token").
			Return(profile, nil).
			Times(1)
		mockRepo.EXPECT().
			GetByProviderID(domain.ProviderGoogle, "google-uid-7").
			Return(existing, nil).
			Times(1)
		mockRepo.EXPECT().
			TouchLastLogin("existing-id", gomock.Any()).
			Return(existing, nil).
			Times(1)
		mockRepo.EXPECT().Create(gomock.Any()).Times(0)

		result, err := svc.AuthenticateFederated(ctx, domain.ProviderGoogle, "good-token")

		req.NoError(err)
		req.Equal("existing-id", result.Account.ID)
	})

	t.Run("unknown provider tag is rejected before any network call", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		mockRepo := mocks.NewMockIAccountRepository(ctrl)
		svc, _ := newService(t, mockRepo, federation.VerifierSet{})

		_, err := svc.AuthenticateFederated(ctx, domain.ProviderFacebook, "any-token")

		req.ErrorIs(err, apperrors.ErrUnknownProvider)
	})
}

func TestIdentityService_CreateGuest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	mockRepo := mocks.NewMockIAccountRepository(ctrl)
	svc, _ := newService(t, mockRepo, nil)
	ctx := context.Background()

	mockRepo.EXPECT().Create(gomock.Any()).Return(nil).Times(2)

	first, err := svc.CreateGuest(ctx)
	req.NoError(err)
	second, err := svc.CreateGuest(ctx)
	req.NoError(err)

	// Every guest login is a brand-new identity.
	req.NotEqual(first.Account.ID, second.Account.ID)
	req.True(first.Account.IsGuest)
	req.True(second.Account.IsGuest)
	req.Empty(first.Account.PasswordHash)
	req.Contains(first.Account.Email, "@guest.invalid")
}
