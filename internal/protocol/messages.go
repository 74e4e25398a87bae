// Package protocol defines the JSON wire messages exchanged with clients
// and their codecs. Client messages are tagged unions with a "type"
// discriminator and an optional "payload" object; server messages carry the
// discriminator alongside their fields.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/playreversi/backend/internal/reversi"
)

// Client message discriminators.
const (
	TypeAuthenticate = "authenticate"
	TypeJoinQueue    = "join_queue"
	TypeLeaveQueue   = "leave_queue"
	TypeMakeMove     = "make_move"
	TypeResign       = "resign"
	TypeHeartbeat    = "heartbeat"
)

// Server message discriminators.
const (
	TypeSuccess    = "success"
	TypeError      = "error"
	TypeMatchFound = "match_found"
	TypeGameState  = "game_state"
	TypeGameOver   = "game_over"
)

// AuthenticatePayload carries the username of an authenticate request.
type AuthenticatePayload struct {
	Username string `json:"username"`
}

// MakeMovePayload carries the target cell of a move.
type MakeMovePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ClientMessage is the decoded form of a client request. Exactly the
// payload matching Type is non-nil.
type ClientMessage struct {
	Type         string
	Authenticate *AuthenticatePayload
	MakeMove     *MakeMovePayload
}

type clientEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeClientMessage parses a client text frame. Unknown discriminators
// are an error; unknown trailing fields inside a known payload are
// accepted.
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode client message: %w", err)
	}

	msg := &ClientMessage{Type: env.Type}

	switch env.Type {
	case TypeAuthenticate:
		var p AuthenticatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode authenticate payload: %w", err)
		}
		msg.Authenticate = &p

	case TypeMakeMove:
		var p MakeMovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode make_move payload: %w", err)
		}
		msg.MakeMove = &p

	case TypeJoinQueue, TypeLeaveQueue, TypeResign, TypeHeartbeat:
		// No payload.

	default:
		return nil, fmt.Errorf("unknown client message type %q", env.Type)
	}

	return msg, nil
}

// EncodeClientMessage renders a ClientMessage back to its wire form.
func EncodeClientMessage(m *ClientMessage) ([]byte, error) {
	env := clientEnvelope{Type: m.Type}

	switch m.Type {
	case TypeAuthenticate:
		if m.Authenticate == nil {
			return nil, fmt.Errorf("authenticate message without payload")
		}
		p, err := json.Marshal(m.Authenticate)
		if err != nil {
			return nil, err
		}
		env.Payload = p

	case TypeMakeMove:
		if m.MakeMove == nil {
			return nil, fmt.Errorf("make_move message without payload")
		}
		p, err := json.Marshal(m.MakeMove)
		if err != nil {
			return nil, err
		}
		env.Payload = p

	case TypeJoinQueue, TypeLeaveQueue, TypeResign, TypeHeartbeat:

	default:
		return nil, fmt.Errorf("unknown client message type %q", m.Type)
	}

	return json.Marshal(env)
}

// Success is a positive status notification.
type Success struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error is a failure notification addressed to one session.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MatchFound tells a player who they were paired against.
type MatchFound struct {
	Type     string `json:"type"`
	Opponent string `json:"opponent"`
}

// GameState is the personalized board broadcast after every accepted move.
type GameState struct {
	Type string `json:"type"`
	reversi.Snapshot
	YourColor string `json:"your_color"`
}

// GameOver announces the end of a game. Winner is the winning player's
// display name, or null on a draw.
type GameOver struct {
	Type   string  `json:"type"`
	Winner *string `json:"winner"`
	Reason string  `json:"reason"`
}

// NewSuccess builds a success message.
func NewSuccess(message string) Success {
	return Success{Type: TypeSuccess, Message: message}
}

// NewError builds an error message.
func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}

// NewMatchFound builds a match_found message.
func NewMatchFound(opponent string) MatchFound {
	return MatchFound{Type: TypeMatchFound, Opponent: opponent}
}

// NewGameState builds a game_state message for the player holding yourColor.
func NewGameState(snapshot reversi.Snapshot, yourColor reversi.Disk) GameState {
	return GameState{Type: TypeGameState, Snapshot: snapshot, YourColor: yourColor.String()}
}

// NewGameOver builds a game_over message. winner is the display name or nil.
func NewGameOver(winner *string, reason string) GameOver {
	return GameOver{Type: TypeGameOver, Winner: winner, Reason: reason}
}

// DecodeServerMessage parses a server frame into its concrete variant.
// Mostly useful to clients and tests.
func DecodeServerMessage(data []byte) (interface{}, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode server message: %w", err)
	}

	switch env.Type {
	case TypeSuccess:
		var m Success
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeError:
		var m Error
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeMatchFound:
		var m MatchFound
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeGameState:
		var m GameState
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeGameOver:
		var m GameOver
		err := json.Unmarshal(data, &m)
		return m, err
	default:
		return nil, fmt.Errorf("unknown server message type %q", env.Type)
	}
}
