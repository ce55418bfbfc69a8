package v1

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/amimof/metal/api/types/v1"
)

type EventType int32

const (
	EventType_Unknown EventType = iota
	EventType_NodeCreated
	EventType_NodeUpdated
	EventType_NodeDeleted
	EventType_NodeHardwareUpdated
	EventType_TagCreated
	EventType_TagUpdated
	EventType_TagDeleted
	EventType_TagPopulated
	EventType_ZoneCreated
	EventType_ZoneUpdated
	EventType_ZoneDeleted
	EventType_ScriptResultStored
	EventType_ScriptResultError
	EventType_ConfigChanged
)

var eventTypeNames = map[EventType]string{
	EventType_Unknown:             "UNKNOWN",
	EventType_NodeCreated:         "NODE_CREATED",
	EventType_NodeUpdated:         "NODE_UPDATED",
	EventType_NodeDeleted:         "NODE_DELETED",
	EventType_NodeHardwareUpdated: "NODE_HARDWARE_UPDATED",
	EventType_TagCreated:          "TAG_CREATED",
	EventType_TagUpdated:          "TAG_UPDATED",
	EventType_TagDeleted:          "TAG_DELETED",
	EventType_TagPopulated:        "TAG_POPULATED",
	EventType_ZoneCreated:         "ZONE_CREATED",
	EventType_ZoneUpdated:         "ZONE_UPDATED",
	EventType_ZoneDeleted:         "ZONE_DELETED",
	EventType_ScriptResultStored:  "SCRIPT_RESULT_STORED",
	EventType_ScriptResultError:   "SCRIPT_RESULT_ERROR",
	EventType_ConfigChanged:       "CONFIG_CHANGED",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return strconv.Itoa(int(t))
}

// EventTypes returns every known event type except Unknown
func EventTypes() []EventType {
	types := make([]EventType, 0, len(eventTypeNames)-1)
	for t := EventType_NodeCreated; t <= EventType_ConfigChanged; t++ {
		types = append(types, t)
	}
	return types
}

// ParseEventType accepts names such as NODE_CREATED or node_created
func ParseEventType(s string) (EventType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range eventTypeNames {
		if name == want {
			return t, nil
		}
	}
	return EventType_Unknown, fmt.Errorf("unknown event type %q", s)
}

// Endpoint identifies where the action that caused an event originated
type Endpoint int32

const (
	Endpoint_API Endpoint = iota
	Endpoint_WebUI
	Endpoint_CLI
)

// EndpointMetadataKey is the gRPC metadata key clients use to announce their endpoint
const EndpointMetadataKey = "metal-endpoint"

// ClientIDMetadataKey carries the id of the clientset that issued a call
const ClientIDMetadataKey = "metal-client-id"

func (e Endpoint) String() string {
	switch e {
	case Endpoint_WebUI:
		return "WebUI"
	case Endpoint_CLI:
		return "CLI"
	default:
		return "API"
	}
}

// ParseEndpoint maps a metadata value to an Endpoint. Unknown values map to API.
func ParseEndpoint(s string) Endpoint {
	switch strings.ToLower(s) {
	case "webui", "1":
		return Endpoint_WebUI
	case "cli", "2":
		return Endpoint_CLI
	default:
		return Endpoint_API
	}
}

type Event struct {
	Meta        *types.Meta `json:"meta,omitempty"`
	Type        EventType   `json:"type"`
	NodeID      string      `json:"node_id,omitempty"`
	Description string      `json:"description,omitempty"`
	Endpoint    Endpoint    `json:"endpoint"`
	// Object is a snapshot of the resource the event concerns
	Object json.RawMessage `json:"object,omitempty"`
}

func (e *Event) GetMeta() *types.Meta {
	if e == nil {
		return nil
	}
	return e.Meta
}

func (e *Event) GetType() EventType {
	if e == nil {
		return EventType_Unknown
	}
	return e.Type
}

func (e *Event) GetNodeID() string {
	if e == nil {
		return ""
	}
	return e.NodeID
}

// UnmarshalObject decodes the event's object snapshot into v
func (e *Event) UnmarshalObject(v any) error {
	if e == nil || len(e.Object) == 0 {
		return fmt.Errorf("event carries no object")
	}
	return json.Unmarshal(e.Object, v)
}
