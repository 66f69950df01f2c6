package runtime

import "github.com/samber/lo"

// PresenceTracker derives online state from the registry's account index.
// It keeps no state of its own, so it can never disagree with the registry.
type PresenceTracker struct {
	registry *Registry
}

func NewPresenceTracker(registry *Registry) *PresenceTracker {
	return &PresenceTracker{registry: registry}
}

// IsOnline reports whether the account owns at least one live connection.
func (p *PresenceTracker) IsOnline(accountID string) bool {
	return p.registry.ConnectionCount(accountID) > 0
}

// OnlineAccounts filters the given ids down to those currently reachable.
func (p *PresenceTracker) OnlineAccounts(accountIDs []string) []string {
	return lo.Filter(accountIDs, func(id string, _ int) bool {
		return p.IsOnline(id)
	})
}
