// Package domain contains core concepts of the identity and presence system.
// This file defines the canonical Account record and related invariants.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"fmt"
	"time"
)

// Provider identifies the origin of an account's credentials.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderGuest    Provider = "guest"
)

// ParseProvider converts a wire-level tag into a known Provider.
func ParseProvider(tag string) (Provider, error) {
	switch Provider(tag) {
	case ProviderLocal, ProviderGoogle, ProviderFacebook, ProviderGuest:
		return Provider(tag), nil
	}
	return "", fmt.Errorf("unsupported provider %q", tag)
}

// Account is the canonical durable identity record, one per real user or
// guest session. Invariants:
//   - (Provider, ProviderID) is unique among non-guest accounts.
//   - Email is unique among non-guest accounts; guest emails are synthesized
//     placeholders excluded from that constraint.
//   - Guest logins always create a brand-new Account.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Provider     Provider
	ProviderID   string
	IsGuest      bool
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// Federated reports whether the account is bound to an external identity
// provider rather than a local password or a guest session.
func (a Account) Federated() bool {
	return a.Provider == ProviderGoogle || a.Provider == ProviderFacebook
}
