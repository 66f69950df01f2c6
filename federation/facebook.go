package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
)

const facebookGraphURL = "https://graph.facebook.com/me"

// FacebookVerifier resolves a Facebook Graph access token into the profile
// it was issued for.
type FacebookVerifier struct {
	client   *http.Client
	timeout  time.Duration
	endpoint string
}

func NewFacebookVerifier(timeout time.Duration) *FacebookVerifier {
	return &FacebookVerifier{
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		endpoint: facebookGraphURL,
	}
}

type facebookProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (f *FacebookVerifier) Verify(ctx context.Context, accessToken string) (domain.ExternalProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("fields", "id,email,first_name,last_name")
	query.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		// The Graph API answers 400 for expired or revoked tokens.
		return domain.ExternalProfile{}, apperrors.ErrInvalidProviderToken
	case resp.StatusCode != http.StatusOK:
		return domain.ExternalProfile{}, fmt.Errorf("%w: graph status %d", apperrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var profile facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}
	if profile.ID == "" {
		return domain.ExternalProfile{}, apperrors.ErrInvalidProviderToken
	}

	return domain.ExternalProfile{
		ProviderUserID: profile.ID,
		Email:          profile.Email,
		GivenName:      profile.FirstName,
		FamilyName:     profile.LastName,
	}, nil
}
