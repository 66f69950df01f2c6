package federation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
)

func newFacebookVerifierFor(server *httptest.Server, timeout time.Duration) *FacebookVerifier {
	return &FacebookVerifier{
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		endpoint: server.URL,
	}
}

func TestFacebookVerifier_NormalizesProfile(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("token-abc", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"fb-123","email":"zoe@example.com","first_name":"Zoe","last_name":"Martin"}`))
	}))
	defer server.Close()

	verifier := newFacebookVerifierFor(server, time.Second)
	profile, err := verifier.Verify(context.Background(), "token-abc")

	req.NoError(err)
	req.Equal(domain.ExternalProfile{
		ProviderUserID: "fb-123",
		Email:          "zoe@example.com",
		GivenName:      "Zoe",
		FamilyName:     "Martin",
	}, profile)
	req.Equal("Zoe Martin", profile.DisplayName())
}

func TestFacebookVerifier_RejectedToken(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid OAuth access token"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	verifier := newFacebookVerifierFor(server, time.Second)
	_, err := verifier.Verify(context.Background(), "expired-token")

	req.ErrorIs(err, apperrors.ErrInvalidProviderToken)
}

func TestFacebookVerifier_TimeoutIsTransient(t *testing.T) {
	req := require.New(t)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	verifier := newFacebookVerifierFor(server, 50*time.Millisecond)
	_, err := verifier.Verify(context.Background(), "any-token")

	req.ErrorIs(err, apperrors.ErrProviderUnavailable)
}

func TestFacebookVerifier_ProviderOutage(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream maintenance", http.StatusBadGateway)
	}))
	defer server.Close()

	verifier := newFacebookVerifierFor(server, time.Second)
	_, err := verifier.Verify(context.Background(), "any-token")

	req.ErrorIs(err, apperrors.ErrProviderUnavailable)
}

func TestVerifierSet_Dispatch(t *testing.T) {
	req := require.New(t)
	set := VerifierSet{
		domain.ProviderFacebook: NewFacebookVerifier(time.Second),
	}

	verifier, err := set.For(domain.ProviderFacebook)
	req.NoError(err)
	req.NotNil(verifier)

	_, err = set.For(domain.ProviderGoogle)
	req.ErrorIs(err, apperrors.ErrUnknownProvider)
}
