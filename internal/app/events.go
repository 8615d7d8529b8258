package app

// EventKind identifies emitted match events for transport dispatch.
type EventKind string

const (
	EventParticipantJoined EventKind = "participant_joined"
	EventParticipantLeft   EventKind = "participant_left"
	EventMatchStarted      EventKind = "match_started"
	EventMatchPaused       EventKind = "match_paused"
	EventMatchResumed      EventKind = "match_resumed"
	EventMatchReset        EventKind = "match_reset"
	EventMatchEnded        EventKind = "match_ended"
	EventPhaseChanged      EventKind = "phase_changed"
	EventElixirSpent       EventKind = "elixir_spent"
	EventSnapshot          EventKind = "state_snapshot"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// Snapshot is the full observable match state, pushed after every
// state-affecting command or tick and sent privately to joiners.
type Snapshot struct {
	Variant          string   `json:"variant"`
	Phase            string   `json:"phase"`
	RemainingSeconds int      `json:"remaining_seconds"`
	FormattedTime    string   `json:"formatted_time"`
	Elixir           int      `json:"elixir"`
	MaxSpend         int      `json:"max_spend"`
	PastThreshold    bool     `json:"past_threshold"`
	Running          bool     `json:"running"`
	Over             bool     `json:"over"`
	Participants     []string `json:"participants"`
	OwnerID          string   `json:"owner_id"`
}

type ParticipantJoinedPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Owner       bool   `json:"owner"`
	Agent       bool   `json:"agent,omitempty"`
}

type ParticipantLeftPayload struct {
	UserID     string `json:"user_id"`
	NewOwnerID string `json:"new_owner_id,omitempty"`
}

type MatchStartedPayload struct {
	Variant string `json:"variant"`
	Phase   string `json:"phase"`
}

type MatchPausedPayload struct {
	UserID string `json:"user_id"`
}

type MatchResumedPayload struct {
	UserID string `json:"user_id"`
}

type MatchResetPayload struct {
	UserID string `json:"user_id"`
}

type MatchEndedPayload struct {
	Elixir int `json:"elixir"`
}

type PhaseChangedPayload struct {
	Phase            string `json:"phase"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type ElixirSpentPayload struct {
	UserID    string `json:"user_id"`
	Requested int    `json:"requested"`
	Spent     int    `json:"spent"`
	Elixir    int    `json:"elixir"`
}
