package runtime

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sabridemirel/arayanibul-sub003/domain"
)

type captureSink struct {
	mu     sync.Mutex
	frames []domain.Frame
}

func (s *captureSink) Push(f domain.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return true
}

func (s *captureSink) Frames() []domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_RegisterThenUnregister_PresenceDrops(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	presence := NewPresenceTracker(registry)
	accountID := uuid.NewString()
	connID := uuid.NewString()

	// Given no connection is registered
	req.False(presence.IsOnline(accountID))

	// When the account's connection registers
	registry.Register(accountID, connID, &captureSink{})

	// Then the account is online
	req.True(presence.IsOnline(accountID))
	req.Equal(1, registry.ConnectionCount(accountID))

	// When the connection unregisters
	registry.Unregister(connID)

	// Then the account is offline again
	req.False(presence.IsOnline(accountID))
	req.Equal(0, registry.ConnectionCount(accountID))
}

func TestRegistry_Unregister_IsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	accountID := uuid.NewString()
	connID := uuid.NewString()

	registry.Register(accountID, connID, &captureSink{})

	// Unregistering twice is a no-op, not an error: disconnect races happen.
	registry.Unregister(connID)
	registry.Unregister(connID)
	registry.Unregister(uuid.NewString()) // never registered at all

	req.Equal(0, registry.ConnectionCount(accountID))
}

func TestRegistry_MultiDevicePresence(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	presence := NewPresenceTracker(registry)
	accountID := uuid.NewString()
	phone := uuid.NewString()
	laptop := uuid.NewString()

	// Given one account owning two simultaneous connections
	registry.Register(accountID, phone, &captureSink{})
	registry.Register(accountID, laptop, &captureSink{})
	req.Equal(2, registry.ConnectionCount(accountID))

	// When one device disconnects
	registry.Unregister(phone)

	// Then the account stays online through the other device
	req.True(presence.IsOnline(accountID))

	// And goes offline only when the last connection drops
	registry.Unregister(laptop)
	req.False(presence.IsOnline(accountID))
}

func TestRegistry_UnregisterLeavesAllGroups(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	sinkA, sinkB := &captureSink{}, &captureSink{}
	connA, connB := uuid.NewString(), uuid.NewString()
	group := domain.GroupID("conv:42")

	registry.Register(uuid.NewString(), connA, sinkA)
	registry.Register(uuid.NewString(), connB, sinkB)
	registry.JoinGroup(connA, group)
	registry.JoinGroup(connB, group)

	// When A disconnects without leaving the group explicitly
	registry.Unregister(connA)

	// Then fan-out reaches only B; no stale route to A is left behind
	delivered := registry.fanout(group, domain.Frame{Group: group, Payload: "hi"}, "")
	req.Equal(1, delivered)
	req.Empty(sinkA.Frames())
	req.Len(sinkB.Frames(), 1)
}

func TestRegistry_JoinAfterClose_IsNoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	connID := uuid.NewString()
	group := domain.GroupID("conv:7")

	registry.Register(uuid.NewString(), connID, &captureSink{})
	registry.Unregister(connID)

	// Joining with a closed handle must not resurrect the connection.
	registry.JoinGroup(connID, group)

	delivered := registry.fanout(group, domain.Frame{Group: group}, "")
	req.Equal(0, delivered)
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	group := domain.GroupID("conv:churn")

	const workers = 16
	const iterations = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			accountID := uuid.NewString()
			for i := 0; i < iterations; i++ {
				connID := uuid.NewString()
				registry.Register(accountID, connID, &captureSink{})
				registry.JoinGroup(connID, group)
				registry.fanout(group, domain.Frame{Group: group}, connID)
				registry.LeaveGroup(connID, group)
				registry.Unregister(connID)
			}
		}(w)
	}
	wg.Wait()

	// After the churn settles both indices must be empty and agree.
	delivered := registry.fanout(group, domain.Frame{Group: group}, "")
	req.Equal(0, delivered)
}

func TestPresenceTracker_OnlineAccounts(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	presence := NewPresenceTracker(registry)

	online := uuid.NewString()
	offline := uuid.NewString()
	registry.Register(online, uuid.NewString(), &captureSink{})

	req.Equal([]string{online}, presence.OnlineAccounts([]string{online, offline}))
}
