package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionOnline Action = "online"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick   Event = "tick"
	EventTimeUp Event = "time_up"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// TickResponse carries one countdown frame. Remaining is whole seconds and
// never negative; State mirrors the attempt state machine so the UI can
// switch views without polling.
type TickResponse struct {
	Event            Event  `json:"event"`
	State            string `json:"state"`
	AttemptID        int64  `json:"attempt_id,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	PendingOutbox    int    `json:"pending_outbox"`
}

// TimeUpResponse announces that the deadline passed and the attempt is being
// force-submitted.
type TimeUpResponse struct {
	Event     Event `json:"event"`
	AttemptID int64 `json:"attempt_id"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
