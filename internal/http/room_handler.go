package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/shared-tracker/internal/application"
	"github.com/example/shared-tracker/internal/persistence"
)

type roomService interface {
	GetRoomProperties(ctx context.Context, params application.RoomPropertiesParams) (application.RoomProperties, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	resp := newResponder(logger)
	return &RoomHandler{service: service, responder: resp, logger: resp.logger}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

// roomPropertiesQuery is the wire form of a property lookup. Every mask
// field defaults to false; absent dates mean an empty date set.
type roomPropertiesQuery struct {
	RoomID      string                     `json:"roomId"`
	Dates       []persistence.ScheduleDate `json:"dates"`
	Entries     bool                       `json:"entries"`
	Users       bool                       `json:"users"`
	DisplayName bool                       `json:"displayName"`
	URL         bool                       `json:"url"`
	Broadcast   bool                       `json:"broadcast"`
}

type entryAggregateDTO struct {
	UserID string `json:"userId"`
	Amount *int   `json:"amount"`
}

// roomPropertiesResponse mirrors the query mask: unrequested fields are
// null, requested ones are present even when empty. Grouped maps are keyed
// by the YYYY-MM-DD form of the date.
type roomPropertiesResponse struct {
	RoomID      string                         `json:"roomId"`
	Entries     map[string][]entryAggregateDTO `json:"entries"`
	Users       map[string][]string            `json:"users"`
	DisplayName *string                        `json:"displayName"`
	URL         *string                        `json:"url"`
	Broadcast   *string                        `json:"broadcast"`
}

func (h *RoomHandler) GetRoomProperties(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query, err := decodeRoomPropertiesQuery(r.URL.Query())
	if err != nil {
		h.log(r.Context(), "GetRoomProperties", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode query", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestQuery)
		return
	}
	if strings.TrimSpace(query.RoomID) == "" {
		h.log(r.Context(), "GetRoomProperties", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	logger := h.log(r.Context(), "GetRoomProperties", "room_id", query.RoomID)

	properties, err := h.service.GetRoomProperties(r.Context(), application.RoomPropertiesParams{
		RoomID: query.RoomID,
		Dates:  query.Dates,
		Mask: application.PropertyMask{
			Entries:     query.Entries,
			Users:       query.Users,
			DisplayName: query.DisplayName,
			URL:         query.URL,
			Broadcast:   query.Broadcast,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room properties lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room properties served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomPropertiesDTO(properties))
}

// decodeRoomPropertiesQuery accepts either a single b64 parameter holding
// the base64 encoded JSON query, or the individual parameters spelled out.
// The b64 payload may arrive padded or unpadded.
func decodeRoomPropertiesQuery(values url.Values) (roomPropertiesQuery, error) {
	if encoded := values.Get("b64"); encoded != "" {
		payload, err := decodeBase64(encoded)
		if err != nil {
			return roomPropertiesQuery{}, err
		}
		var query roomPropertiesQuery
		if err := json.Unmarshal(payload, &query); err != nil {
			return roomPropertiesQuery{}, err
		}
		return query, nil
	}

	query := roomPropertiesQuery{RoomID: values.Get("roomId")}
	if raw := values.Get("dates"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &query.Dates); err != nil {
			return roomPropertiesQuery{}, err
		}
	}

	for _, field := range []struct {
		name   string
		target *bool
	}{
		{"entries", &query.Entries},
		{"users", &query.Users},
		{"displayName", &query.DisplayName},
		{"url", &query.URL},
		{"broadcast", &query.Broadcast},
	} {
		raw := values.Get(field.name)
		if raw == "" {
			continue
		}
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return roomPropertiesQuery{}, err
		}
		*field.target = parsed
	}
	return query, nil
}

func decodeBase64(encoded string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		return payload, nil
	}
	return base64.RawStdEncoding.DecodeString(encoded)
}

func toRoomPropertiesDTO(properties application.RoomProperties) roomPropertiesResponse {
	response := roomPropertiesResponse{
		RoomID:      properties.RoomID,
		DisplayName: properties.DisplayName,
		URL:         properties.URL,
		Broadcast:   properties.Broadcast,
	}

	if properties.Entries != nil {
		response.Entries = make(map[string][]entryAggregateDTO, len(properties.Entries))
		for date, aggregates := range properties.Entries {
			converted := make([]entryAggregateDTO, 0, len(aggregates))
			for _, aggregate := range aggregates {
				converted = append(converted, entryAggregateDTO{UserID: aggregate.UserID, Amount: aggregate.Amount})
			}
			response.Entries[date.String()] = converted
		}
	}
	if properties.Users != nil {
		response.Users = make(map[string][]string, len(properties.Users))
		for date, users := range properties.Users {
			response.Users[date.String()] = users
		}
	}
	return response
}
