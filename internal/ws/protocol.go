package ws

import "lane-games/internal/game"

const ProtocolVersion = "1.0"

// Inbound message types.
const (
	TypeJoin    = "join"
	TypeCommand = "command"
)

// Outbound message types.
const (
	TypeSnapshot       = "snapshot"
	TypeJoinResult     = "join_result"
	TypeCommandResult  = "command_result"
	TypeSessionDeleted = "session_deleted"
	TypeError          = "error"
)

const maxRequestIDLen = 64

type JoinMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Name      string `json:"name,omitempty"`
}

type CommandMessage struct {
	Type            string       `json:"type"`
	RequestID       string       `json:"request_id"`
	Command         game.Command `json:"command"`
	ExpectedVersion int64        `json:"expected_version,omitempty"`
}

type Snapshot struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Session         *game.Session `json:"session"`
}

// Result answers a join or command message. Version is the session version
// after the write when Ok.
type Result struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Ok              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
	Version         int64  `json:"version,omitempty"`
}

type SessionDeleted struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
}
