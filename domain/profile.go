package domain

import "strings"

// ExternalProfile is the normalized record a federated provider returns in
// exchange for a valid access token.
type ExternalProfile struct {
	ProviderUserID string
	Email          string
	GivenName      string
	FamilyName     string
}

// DisplayName builds a human-readable name from the profile parts,
// falling back to the email local part when the provider sent no name.
func (p ExternalProfile) DisplayName() string {
	name := strings.TrimSpace(p.GivenName + " " + p.FamilyName)
	if name != "" {
		return name
	}
	if at := strings.IndexByte(p.Email, '@'); at > 0 {
		return p.Email[:at]
	}
	return p.Email
}
