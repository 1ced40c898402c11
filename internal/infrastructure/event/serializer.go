package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/marketplace/backend/internal/domain/shared"
)

var (
	// ErrUnknownEventType is returned for payloads whose type was never registered
	ErrUnknownEventType = errors.New("unknown event type")
	// ErrEventTypeMismatch is returned when a payload claims a different type than the one it was stored under
	ErrEventTypeMismatch = errors.New("event type mismatch")
	// ErrUnsupportedSchema is returned for payloads written by a newer schema than this build knows
	ErrUnsupportedSchema = errors.New("unsupported event schema version")
)

type eventCodec struct {
	newEvent   func() shared.DomainEvent
	maxVersion int
}

// EventSerializer encodes domain events as JSON and rebuilds them from the
// outbox by their registered type.
type EventSerializer struct {
	mu     sync.RWMutex
	codecs map[string]eventCodec
}

func NewEventSerializer() *EventSerializer {
	return &EventSerializer{codecs: make(map[string]eventCodec)}
}

// Register makes eventType decodable into a fresh *T. Payloads whose
// schema_version is above maxVersion are rejected; 0 means version 1.
func Register[T any, PT interface {
	*T
	shared.DomainEvent
}](s *EventSerializer, eventType string, maxVersion int) {
	if maxVersion < 1 {
		maxVersion = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codecs[eventType] = eventCodec{
		newEvent:   func() shared.DomainEvent { return PT(new(T)) },
		maxVersion: maxVersion,
	}
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes data stored under eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	codec, ok := s.codecs[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	event := codec.newEvent()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", eventType, err)
	}
	if got := event.EventType(); got != "" && got != eventType {
		return nil, fmt.Errorf("%w: stored as %s, payload says %s", ErrEventTypeMismatch, eventType, got)
	}
	if versioned, ok := event.(shared.VersionedEvent); ok && versioned.SchemaVersion() > codec.maxVersion {
		return nil, fmt.Errorf("%w: %s v%d", ErrUnsupportedSchema, eventType, versioned.SchemaVersion())
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codecs[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.codecs))
	for t := range s.codecs {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
