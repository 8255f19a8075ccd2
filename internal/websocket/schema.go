package websocket

import "github.com/pathwise/compass-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionAnswer Action = "answer"
	ActionState  Action = "state"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest saves one answer for the question the student is on.
type AnswerRequest struct {
	Action Action       `json:"action"`
	Answer model.Answer `json:"answer"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState Event = "state"
)

// StateResponse carries one full session state frame. The payload is
// the same State document the REST surface returns. Ping and state
// requests are both answered with a state frame; there is no separate
// pong event.
type StateResponse struct {
	Event Event       `json:"event"`
	State interface{} `json:"state"`
}
