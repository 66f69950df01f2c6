//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=../mocks/mock_profile_verifier.go -package=mocks
package federation

import (
	"context"

	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
)

// ProfileVerifier exchanges a federated provider's access token for a
// normalized external profile. One implementation exists per provider tag.
//
// Implementations must bound every outbound call with the configured
// timeout and normalize failures into exactly two kinds: the provider
// actively rejecting the token (ErrInvalidProviderToken) or the provider
// being unreachable (ErrProviderUnavailable, transient and retry-safe).
type ProfileVerifier interface {
	Verify(ctx context.Context, accessToken string) (domain.ExternalProfile, error)
}

// VerifierSet dispatches to the verifier matching a provider tag.
type VerifierSet map[domain.Provider]ProfileVerifier

func (s VerifierSet) For(provider domain.Provider) (ProfileVerifier, error) {
	verifier, ok := s[provider]
	if !ok {
		return nil, apperrors.ErrUnknownProvider
	}
	return verifier, nil
}
