package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/example/shared-tracker/internal/persistence"
)

// envelope is the superset of fields any frame can carry. The Type tag
// decides which subset is meaningful; extra fields are tolerated.
type envelope struct {
	Type      string                  `json:"type"`
	EntryKey  *persistence.EntryKey   `json:"entryKey,omitempty"`
	Entry     *persistence.Entry      `json:"entry,omitempty"`
	EntryData *persistence.EntryValue `json:"entryData,omitempty"`
}

// DecodeRequest parses one inbound text payload into a Request. Any failure
// (invalid JSON, unknown or missing tag, invalid variant body) reports
// ErrMalformedFrame; decoding never partially succeeds.
func DecodeRequest(payload []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Type {
	case TypeGetEntryData:
		if env.EntryKey == nil {
			return nil, fmt.Errorf("%w: getEntryData without entryKey", ErrMalformedFrame)
		}
		if err := validateEntryKey(*env.EntryKey); err != nil {
			return nil, err
		}
		return GetEntryDataRequest{EntryKey: *env.EntryKey}, nil

	case TypeUpdateEntry:
		if env.Entry == nil {
			return nil, fmt.Errorf("%w: updateEntry without entry", ErrMalformedFrame)
		}
		if err := validateEntryKey(env.Entry.Key); err != nil {
			return nil, err
		}
		if amount := env.Entry.Value.Amount; amount != nil && *amount < 0 {
			return nil, fmt.Errorf("%w: negative amount %d", ErrMalformedFrame, *amount)
		}
		return UpdateEntryRequest{Entry: *env.Entry}, nil

	default:
		return nil, fmt.Errorf("%w: unknown frame type %q", ErrMalformedFrame, env.Type)
	}
}

// DecodeResponse parses one outbound payload. It exists for clients and
// tests; the server only encodes responses.
func DecodeResponse(payload []byte) (Response, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Type {
	case TypeConnectionEstablished:
		return ConnectionEstablished{}, nil
	case TypeGetEntryData:
		if env.EntryKey == nil {
			return nil, fmt.Errorf("%w: getEntryData response without entryKey", ErrMalformedFrame)
		}
		return GetEntryDataResponse{EntryKey: *env.EntryKey, EntryData: env.EntryData}, nil
	case TypeUpdateEntry:
		if env.Entry == nil {
			return nil, fmt.Errorf("%w: updateEntry response without entry", ErrMalformedFrame)
		}
		return UpdateEntryBroadcast{Entry: *env.Entry}, nil
	default:
		return nil, fmt.Errorf("%w: unknown frame type %q", ErrMalformedFrame, env.Type)
	}
}

// EncodeResponse serialises an outbound frame. Encoding is total for the
// known variants: every field marshals without error, so the returned
// payload is always a complete JSON document.
func EncodeResponse(response Response) []byte {
	var env envelope

	switch frame := response.(type) {
	case ConnectionEstablished:
		env.Type = TypeConnectionEstablished
	case GetEntryDataResponse:
		env.Type = TypeGetEntryData
		key := frame.EntryKey
		env.EntryKey = &key
		env.EntryData = frame.EntryData
	case UpdateEntryBroadcast:
		env.Type = TypeUpdateEntry
		entry := frame.Entry
		env.Entry = &entry
	}

	// The envelope contains only plain structs and integers; Marshal
	// cannot fail on it.
	payload, _ := json.Marshal(env)
	return payload
}

// EncodeRequest serialises an inbound frame. Servers never call this; it
// keeps client code and the codec tests symmetric with EncodeResponse.
func EncodeRequest(request Request) []byte {
	var env envelope

	switch frame := request.(type) {
	case GetEntryDataRequest:
		env.Type = TypeGetEntryData
		key := frame.EntryKey
		env.EntryKey = &key
	case UpdateEntryRequest:
		env.Type = TypeUpdateEntry
		entry := frame.Entry
		env.Entry = &entry
	}

	payload, _ := json.Marshal(env)
	return payload
}

func validateEntryKey(key persistence.EntryKey) error {
	if key.RoomID == "" || key.UserID == "" {
		return fmt.Errorf("%w: entry key with empty room or user id", ErrMalformedFrame)
	}
	if key.Date.Month < 1 || key.Date.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrMalformedFrame, key.Date.Month)
	}
	if key.Date.Day < 1 || key.Date.Day > 31 {
		return fmt.Errorf("%w: day %d out of range", ErrMalformedFrame, key.Date.Day)
	}
	return nil
}
