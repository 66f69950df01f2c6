package runtime

import (
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/sabridemirel/arayanibul-sub003/contract"
	"github.com/sabridemirel/arayanibul-sub003/domain"
)

// shardCount partitions the three indices so unrelated accounts and groups
// never contend on one lock. Must stay a power of two.
const shardCount = 32

type connEntry struct {
	// mu linearizes this connection's register/unregister/join/leave.
	// Lock order is always entry.mu before any shard lock.
	mu        sync.Mutex
	id        string
	accountID string
	sink      contract.FrameSink
	groups    map[domain.GroupID]struct{}
	closed    bool
}

type connShard struct {
	mu    sync.RWMutex
	conns map[string]*connEntry
}

type accountShard struct {
	mu       sync.RWMutex
	accounts map[string]map[string]*connEntry
}

type groupShard struct {
	// A plain Mutex: fan-out enqueues under this lock so that frames routed
	// to one group reach each member in Route invocation order.
	mu     sync.Mutex
	groups map[domain.GroupID]map[string]*connEntry
}

// Registry tracks live connections, their owning account and their group
// memberships. It keeps two coupled indices (account to connections, group
// to connections) that agree under any interleaving, and shards all three
// maps so churn on one account never serializes traffic on another.
type Registry struct {
	conns    [shardCount]connShard
	accounts [shardCount]accountShard
	groups   [shardCount]groupShard
	log      *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	r := &Registry{log: log}
	for i := 0; i < shardCount; i++ {
		r.conns[i].conns = make(map[string]*connEntry)
		r.accounts[i].accounts = make(map[string]map[string]*connEntry)
		r.groups[i].groups = make(map[domain.GroupID]map[string]*connEntry)
	}
	return r
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() & (shardCount - 1)
}

func (r *Registry) connShardFor(connID string) *connShard {
	return &r.conns[shardFor(connID)]
}

func (r *Registry) accountShardFor(accountID string) *accountShard {
	return &r.accounts[shardFor(accountID)]
}

func (r *Registry) groupShardFor(group domain.GroupID) *groupShard {
	return &r.groups[shardFor(string(group))]
}

func (r *Registry) lookup(connID string) *connEntry {
	shard := r.connShardFor(connID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return shard.conns[connID]
}

// Register adds a connection to its account's set with an empty group
// membership. An account may already own other connections (multi-device).
func (r *Registry) Register(accountID, connID string, sink contract.FrameSink) {
	entry := &connEntry{
		id:        connID,
		accountID: accountID,
		sink:      sink,
		groups:    make(map[domain.GroupID]struct{}),
	}

	// Account index first: a connection only becomes reachable once it is
	// in the conn shard, so whoever can Unregister it already finds the
	// account entry in place. The conn shard insert is the linearization
	// point of registration.
	as := r.accountShardFor(accountID)
	as.mu.Lock()
	if _, ok := as.accounts[accountID]; !ok {
		as.accounts[accountID] = make(map[string]*connEntry)
	}
	as.accounts[accountID][connID] = entry
	as.mu.Unlock()

	cs := r.connShardFor(connID)
	cs.mu.Lock()
	cs.conns[connID] = entry
	cs.mu.Unlock()

	r.log.Debug("connection registered", "conn_id", connID, "account_id", accountID)
}

// Unregister removes a connection from its account's set and from every
// group it joined. It is idempotent: disconnect races are expected, so a
// second call for the same handle is a silent no-op.
func (r *Registry) Unregister(connID string) {
	entry := r.lookup(connID)
	if entry == nil {
		return
	}

	entry.mu.Lock()
	if entry.closed {
		entry.mu.Unlock()
		return
	}
	entry.closed = true

	for group := range entry.groups {
		gs := r.groupShardFor(group)
		gs.mu.Lock()
		if members, ok := gs.groups[group]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(gs.groups, group)
			}
		}
		gs.mu.Unlock()
	}
	entry.groups = nil
	entry.mu.Unlock()

	as := r.accountShardFor(entry.accountID)
	as.mu.Lock()
	if conns, ok := as.accounts[entry.accountID]; ok {
		delete(conns, connID)
		// No empty sets left behind, so presence stays a pure length check.
		if len(conns) == 0 {
			delete(as.accounts, entry.accountID)
		}
	}
	as.mu.Unlock()

	cs := r.connShardFor(connID)
	cs.mu.Lock()
	delete(cs.conns, connID)
	cs.mu.Unlock()

	r.log.Debug("connection unregistered", "conn_id", connID, "account_id", entry.accountID)
}

// JoinGroup adds the connection to a group, updating the membership set and
// the group's reverse index together under the connection's lock. Joining
// with an unknown or already closed handle is a benign no-op.
func (r *Registry) JoinGroup(connID string, group domain.GroupID) {
	entry := r.lookup(connID)
	if entry == nil {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.closed {
		return
	}
	entry.groups[group] = struct{}{}

	gs := r.groupShardFor(group)
	gs.mu.Lock()
	if _, ok := gs.groups[group]; !ok {
		gs.groups[group] = make(map[string]*connEntry)
	}
	gs.groups[group][connID] = entry
	gs.mu.Unlock()
}

// LeaveGroup mirrors JoinGroup; both indices are updated symmetrically.
func (r *Registry) LeaveGroup(connID string, group domain.GroupID) {
	entry := r.lookup(connID)
	if entry == nil {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.closed {
		return
	}
	delete(entry.groups, group)

	gs := r.groupShardFor(group)
	gs.mu.Lock()
	if members, ok := gs.groups[group]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(gs.groups, group)
		}
	}
	gs.mu.Unlock()
}

// ConnectionCount returns how many live connections an account owns.
func (r *Registry) ConnectionCount(accountID string) int {
	as := r.accountShardFor(accountID)
	as.mu.RLock()
	defer as.mu.RUnlock()
	return len(as.accounts[accountID])
}

// fanout pushes a frame to every member of a group except the excluded
// connection. The enqueue happens under the group shard's lock so each
// recipient observes frames for this group in Route invocation order.
// Members that closed a moment earlier are skipped, never an error.
func (r *Registry) fanout(group domain.GroupID, frame domain.Frame, excludeConn string) int {
	gs := r.groupShardFor(group)
	gs.mu.Lock()
	defer gs.mu.Unlock()

	delivered := 0
	for connID, entry := range gs.groups[group] {
		if connID == excludeConn {
			continue
		}
		if entry.sink.Push(frame) {
			delivered++
		} else {
			r.log.Debug("frame dropped", "conn_id", connID, "group", string(group))
		}
	}
	return delivered
}
