// Package protocol defines the wire format spoken between client and server:
// inbound intents, outbound messages, the delta tagged union and game events.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/gloomdelve/server/internal/game"
)

// IntentType enumerates the client-to-server message kinds.
type IntentType string

const (
	IntentMove    IntentType = "move"
	IntentAttack  IntentType = "attack"
	IntentDescend IntentType = "descend"
	IntentPause   IntentType = "pause"
	IntentResume  IntentType = "resume"
	// IntentAck acknowledges a delivered server message, releasing one
	// slot of the in-flight send window.
	IntentAck IntentType = "ack"
)

// Direction is a movement direction.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Offset returns the grid delta for the direction.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

// Valid reports whether d is one of the four movement directions.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// Intent is a parsed client message.
type Intent struct {
	Type      IntentType `json:"type"`
	Direction Direction  `json:"direction,omitempty"`
}

// ParseIntent decodes and validates a raw client message.
func ParseIntent(data []byte) (Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return Intent{}, fmt.Errorf("malformed message: %w", err)
	}
	switch in.Type {
	case IntentMove:
		if !in.Direction.Valid() {
			return Intent{}, fmt.Errorf("invalid direction %q", in.Direction)
		}
	case IntentAttack, IntentDescend, IntentPause, IntentResume, IntentAck:
	default:
		return Intent{}, fmt.Errorf("unknown message type %q", in.Type)
	}
	return in, nil
}

// MessageType enumerates the server-to-client message kinds.
type MessageType string

const (
	MessageInit   MessageType = "init"
	MessageUpdate MessageType = "update"
	// MessageEnemyTick is reserved for server-driven enemy activity between
	// player turns; the current turn model never produces it.
	MessageEnemyTick MessageType = "enemy_tick"
	MessageError     MessageType = "error"
)

// Message is a serialisable server-to-client envelope.
type Message struct {
	Type    MessageType        `json:"type"`
	State   *game.VisibleState `json:"state,omitempty"`
	Deltas  []Delta            `json:"deltas,omitempty"`
	Message string             `json:"message,omitempty"`
}

// InitMessage builds an init envelope carrying the full visible state.
func InitMessage(state *game.VisibleState) Message {
	return Message{Type: MessageInit, State: state}
}

// UpdateMessage builds an update envelope carrying one turn's deltas.
func UpdateMessage(deltas []Delta) Message {
	return Message{Type: MessageUpdate, Deltas: deltas}
}

// ErrorMessage builds an error envelope.
func ErrorMessage(msg string) Message {
	return Message{Type: MessageError, Message: msg}
}
