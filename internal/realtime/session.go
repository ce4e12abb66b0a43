package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/example/shared-tracker/internal/persistence"
	"github.com/example/shared-tracker/internal/protocol"
)

// Session states. A session moves Connecting → Established → Active →
// Closed and never backwards.
const (
	stateConnecting int32 = iota
	stateEstablished
	stateActive
	stateClosed
)

// EntryOperations is what the session dispatches decoded requests to.
type EntryOperations interface {
	GetEntryData(ctx context.Context, key persistence.EntryKey) (*persistence.EntryValue, error)
	UpdateEntry(ctx context.Context, entry persistence.Entry) error
}

// Transport is the subset of *websocket.Conn the session drives. Read and
// write deadlines belong to the transport layer, not the session.
type Transport interface {
	ReadMessage() (messageType int, payload []byte, err error)
	WriteMessage(messageType int, payload []byte) error
	Close() error
}

// Session owns one connection: its identity, its mailbox, and the reader
// and writer pumps. Failures on this session never touch other sessions;
// the registry is the only shared state and is left via Unregister.
type Session struct {
	id        string
	transport Transport
	registry  *Registry
	entries   EntryOperations
	logger    *slog.Logger

	mailbox   *Mailbox
	state     atomic.Int32
	closeOnce sync.Once
	pumps     sync.WaitGroup
}

// NewSession creates a session in the Connecting state.
func NewSession(id string, transport Transport, registry *Registry, entries EntryOperations, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:        id,
		transport: transport,
		registry:  registry,
		entries:   entries,
		logger:    logger.With("connection_id", id),
	}
}

// ID returns the connection identity.
func (s *Session) ID() string {
	return s.id
}

// Start registers the session's mailbox, queues the connection
// acknowledgement as the first outbound frame, and launches the reader
// and writer pumps.
func (s *Session) Start() {
	s.state.Store(stateEstablished)
	s.mailbox = s.registry.Register(s.id)
	s.mailbox.Push(protocol.EncodeResponse(protocol.ConnectionEstablished{}))

	s.pumps.Add(2)
	go s.writePump()
	go s.readPump()

	s.state.Store(stateActive)
	s.logger.Info("session active")
}

// Wait blocks until both pumps have stopped.
func (s *Session) Wait() {
	s.pumps.Wait()
}

// Closed reports whether the session has terminated.
func (s *Session) Closed() bool {
	return s.state.Load() == stateClosed
}

// readPump decodes inbound frames and dispatches them. Any read or decode
// failure terminates this connection only.
func (s *Session) readPump() {
	defer s.pumps.Done()
	defer s.terminate()

	for {
		messageType, payload, err := s.transport.ReadMessage()
		if err != nil {
			s.logger.Debug("connection read ended", "error", err)
			return
		}
		if messageType != websocket.TextMessage {
			s.logger.Warn("closing connection on non-text frame", "message_type", messageType)
			return
		}

		request, err := protocol.DecodeRequest(payload)
		if err != nil {
			s.logger.Warn("closing connection on malformed frame", "error", err)
			return
		}

		s.dispatch(request)
	}
}

// writePump drains the mailbox and serialises frames to the transport. It
// stops once the mailbox is closed and drained, or on a write failure.
func (s *Session) writePump() {
	defer s.pumps.Done()

	for {
		frame, ok := s.mailbox.Receive()
		if !ok {
			return
		}
		if err := s.transport.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.logger.Debug("connection write failed", "error", err)
			s.terminate()
			return
		}
	}
}

// dispatch runs one decoded request. Store failures are logged and leave
// the connection open; the wire protocol carries no error variant.
func (s *Session) dispatch(request protocol.Request) {
	ctx := context.Background()

	switch req := request.(type) {
	case protocol.GetEntryDataRequest:
		value, err := s.entries.GetEntryData(ctx, req.EntryKey)
		if err != nil {
			s.logger.Error("entry lookup failed", "error", err)
			return
		}
		// Reply to the requester only, never broadcast.
		s.mailbox.Push(protocol.EncodeResponse(protocol.GetEntryDataResponse{
			EntryKey:  req.EntryKey,
			EntryData: value,
		}))

	case protocol.UpdateEntryRequest:
		// The pipeline broadcasts to every registered mailbox, this
		// session's included; no private echo is needed.
		if err := s.entries.UpdateEntry(ctx, req.Entry); err != nil {
			s.logger.Error("entry update failed", "error", err)
		}
	}
}

// terminate moves the session to Closed, removes it from the registry
// (closing the mailbox so the writer drains and stops), and closes the
// transport. Safe to call more than once.
func (s *Session) terminate() {
	s.closeOnce.Do(func() {
		s.state.Store(stateClosed)
		s.registry.Unregister(s.id)
		if err := s.transport.Close(); err != nil {
			s.logger.Debug("transport close failed", "error", err)
		}
		s.logger.Info("session closed")
	})
}
