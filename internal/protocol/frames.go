// Package protocol defines the wire schema of the persistent channel: a
// tagged union of JSON text frames with lowerCamelCase field names. Every
// frame is one self-contained JSON document whose "type" field names the
// variant.
package protocol

import (
	"errors"

	"github.com/example/shared-tracker/internal/persistence"
)

// Frame type discriminants.
const (
	TypeConnectionEstablished = "connectionEstablished"
	TypeGetEntryData          = "getEntryData"
	TypeUpdateEntry           = "updateEntry"
)

// ErrMalformedFrame reports an inbound message that cannot be decoded into
// any known variant. It is connection-fatal for the offending session.
var ErrMalformedFrame = errors.New("protocol: malformed frame")

// Request is an inbound frame sent by a client.
type Request interface {
	requestFrame()
}

// GetEntryDataRequest asks for the live value of one entry key. The reply
// goes only to the requesting connection.
type GetEntryDataRequest struct {
	EntryKey persistence.EntryKey
}

func (GetEntryDataRequest) requestFrame() {}

// UpdateEntryRequest carries a full entry to write through the update
// pipeline.
type UpdateEntryRequest struct {
	Entry persistence.Entry
}

func (UpdateEntryRequest) requestFrame() {}

// Response is an outbound frame pushed into a session mailbox.
type Response interface {
	responseFrame()
}

// ConnectionEstablished acknowledges a completed upgrade. It is always the
// first frame a client receives.
type ConnectionEstablished struct{}

func (ConnectionEstablished) responseFrame() {}

// GetEntryDataResponse answers a GetEntryDataRequest. EntryData is nil when
// no entry with a positive amount exists for the key.
type GetEntryDataResponse struct {
	EntryKey  persistence.EntryKey
	EntryData *persistence.EntryValue
}

func (GetEntryDataResponse) responseFrame() {}

// UpdateEntryBroadcast echoes a successful update, both as the direct reply
// and as the frame fanned out to every registered mailbox.
type UpdateEntryBroadcast struct {
	Entry persistence.Entry
}

func (UpdateEntryBroadcast) responseFrame() {}
