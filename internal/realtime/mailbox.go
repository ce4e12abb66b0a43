package realtime

import "sync"

// Mailbox is the unbounded outbound queue of one connection. The owning
// session's writer is the only consumer; the registry and concurrent
// broadcasts are producers. Frames pushed after Close are dropped.
type Mailbox struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	wake   chan struct{}
}

func newMailbox() *Mailbox {
	return &Mailbox{wake: make(chan struct{}, 1)}
}

// Push appends a frame and wakes the consumer. It reports false when the
// mailbox is already closed and the frame was dropped.
func (m *Mailbox) Push(frame []byte) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.frames = append(m.frames, frame)
	m.mu.Unlock()

	m.signal()
	return true
}

// Receive blocks until a frame is available or the mailbox is closed and
// fully drained. The second return value is false only after close and
// drain. Receive must only be called from a single goroutine.
func (m *Mailbox) Receive() ([]byte, bool) {
	for {
		m.mu.Lock()
		if len(m.frames) > 0 {
			frame := m.frames[0]
			m.frames = m.frames[1:]
			m.mu.Unlock()
			return frame, true
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return nil, false
		}
		<-m.wake
	}
}

// Close marks the mailbox closed and wakes the consumer so it can drain
// the remaining frames and stop. Close is idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.signal()
}

// Len reports the number of queued frames.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func (m *Mailbox) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
