package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeSessionStart
	EventTypeShot
	EventTypeImpact
	EventTypeEnemyHit
	EventTypeEnemyKilled
	EventTypePropHit
	EventTypePropDestroyed
	EventTypePlayerHit
	EventTypeWin
	EventTypeLoss
	EventTypePause
	EventTypeResume
	EventTypeRestart
)

// EventVersion for backwards compatibility of the NDJSON log
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	TickNum   uint64          `json:"tickNum"`
	SessionID string          `json:"sessionId"`
	EntityID  string          `json:"entityId"` // Source entity (for rate limiting)
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeSessionStart:
		return "session_start"
	case EventTypeShot:
		return "shot"
	case EventTypeImpact:
		return "impact"
	case EventTypeEnemyHit:
		return "enemy_hit"
	case EventTypeEnemyKilled:
		return "enemy_killed"
	case EventTypePropHit:
		return "prop_hit"
	case EventTypePropDestroyed:
		return "prop_destroyed"
	case EventTypePlayerHit:
		return "player_hit"
	case EventTypeWin:
		return "win"
	case EventTypeLoss:
		return "loss"
	case EventTypePause:
		return "pause"
	case EventTypeResume:
		return "resume"
	case EventTypeRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// MarshalText writes the type by name so the log is readable.
func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// SessionStartPayload records the scenario a session was built from.
type SessionStartPayload struct {
	Seed    int64  `json:"seed"`
	Class   string `json:"class"`
	Enemies int    `json:"enemies"`
	Props   int    `json:"props"`
}

// ShotPayload records a spawned shell.
type ShotPayload struct {
	ProjectileID string  `json:"projectileId"`
	Friendly     bool    `json:"friendly"`
	X            float64 `json:"x"`
	Z            float64 `json:"z"`
}

// HitPayload records a shell hitting something.
type HitPayload struct {
	ProjectileID string  `json:"projectileId"`
	TargetID     string  `json:"targetId,omitempty"`
	Damage       float64 `json:"damage"`
	Health       float64 `json:"health"`
	X            float64 `json:"x"`
	Z            float64 `json:"z"`
}

// ScorePayload records a score change.
type ScorePayload struct {
	Score int `json:"score"`
	Kills int `json:"kills"`
}

// OutcomePayload records the end of a session.
type OutcomePayload struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
	Score   int    `json:"score"`
	Kills   int    `json:"kills"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, entityID string, payload any) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		EntityID:  entityID,
		Payload:   EncodePayload(payload),
	}
}
