package realtime

import (
	"log/slog"
	"sync"

	"github.com/example/shared-tracker/internal/persistence"
	"github.com/example/shared-tracker/internal/protocol"
)

// Registry is the process-wide map from connection identity to outbound
// mailbox. It is the only state shared across connections: registration,
// removal, and the broadcast snapshot are guarded by one mutex, while the
// fan-out itself runs outside the lock so a slow consumer cannot block new
// connections.
type Registry struct {
	mu        sync.RWMutex
	mailboxes map[string]*Mailbox
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		mailboxes: make(map[string]*Mailbox),
		logger:    logger,
	}
}

// Register creates and stores a fresh mailbox for the identity and returns
// it for the owning session to drain. A stale mailbox under the same
// identity is closed and replaced; the registry never holds two entries
// for one identity.
func (r *Registry) Register(identity string) *Mailbox {
	mailbox := newMailbox()

	r.mu.Lock()
	previous := r.mailboxes[identity]
	r.mailboxes[identity] = mailbox
	r.mu.Unlock()

	if previous != nil {
		previous.Close()
		r.logger.Warn("replaced stale mailbox", "connection_id", identity)
	}

	r.logger.Debug("connection registered", "connection_id", identity)
	return mailbox
}

// Unregister removes the identity and closes its mailbox so the owning
// writer can drain and stop. Calling it for an absent identity is a no-op.
func (r *Registry) Unregister(identity string) {
	r.mu.Lock()
	mailbox, ok := r.mailboxes[identity]
	if ok {
		delete(r.mailboxes, identity)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	mailbox.Close()
	r.logger.Debug("connection unregistered", "connection_id", identity)
}

// Broadcast pushes frame into every mailbox registered at the moment of
// the snapshot. Delivery is fire-and-forget: mailboxes closed between the
// snapshot and the push silently drop the frame, and registrations after
// the snapshot miss it.
func (r *Registry) Broadcast(frame []byte) {
	r.mu.RLock()
	snapshot := make([]*Mailbox, 0, len(r.mailboxes))
	for _, mailbox := range r.mailboxes {
		snapshot = append(snapshot, mailbox)
	}
	r.mu.RUnlock()

	for _, mailbox := range snapshot {
		mailbox.Push(frame)
	}
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mailboxes)
}

// EntryBroadcaster adapts the registry to the update pipeline's broadcast
// port.
type EntryBroadcaster struct {
	Registry *Registry
}

// BroadcastEntryUpdate fans the updated entry out to every registered
// mailbox, the sender's included.
func (b EntryBroadcaster) BroadcastEntryUpdate(entry persistence.Entry) {
	if b.Registry == nil {
		return
	}
	b.Registry.Broadcast(protocol.EncodeResponse(protocol.UpdateEntryBroadcast{Entry: entry}))
}
