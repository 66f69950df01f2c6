package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	oauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

// GoogleVerifier validates Google OAuth access tokens through the tokeninfo
// endpoint and resolves the owning profile through the userinfo endpoint.
type GoogleVerifier struct {
	client  *http.Client
	timeout time.Duration
}

func NewGoogleVerifier(timeout time.Duration) *GoogleVerifier {
	return &GoogleVerifier{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (g *GoogleVerifier) Verify(ctx context.Context, accessToken string) (domain.ExternalProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	service, err := oauth2.NewService(ctx,
		option.WithHTTPClient(g.client),
		option.WithoutAuthentication(),
	)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}

	// 1. Ask Google whether the token is live at all.
	tokenInfo, err := service.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
	if err != nil {
		return domain.ExternalProfile{}, normalizeGoogleError(err)
	}
	if tokenInfo.UserId == "" {
		return domain.ExternalProfile{}, apperrors.ErrInvalidProviderToken
	}

	// 2. Resolve the profile the token belongs to.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domain.ExternalProfile{}, apperrors.ErrInvalidProviderToken
	case resp.StatusCode != http.StatusOK:
		return domain.ExternalProfile{}, fmt.Errorf("%w: userinfo status %d", apperrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var userInfo oauth2.Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}

	return domain.ExternalProfile{
		ProviderUserID: userInfo.Id,
		Email:          userInfo.Email,
		GivenName:      userInfo.GivenName,
		FamilyName:     userInfo.FamilyName,
	}, nil
}

// normalizeGoogleError separates "Google said no" from "Google is down".
func normalizeGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
		return apperrors.ErrInvalidProviderToken
	}
	return fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
}
