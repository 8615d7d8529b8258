package network

// Watcher command names accepted over the relay.
const (
	CmdStart  = "start"
	CmdPause  = "pause"
	CmdResume = "resume"
	CmdReset  = "reset"
	CmdSpend  = "spend"
)

// Frame is one wire message pushed to watchers. Kind mirrors the match
// event kinds, plus "error" for rejected commands.
type Frame struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload,omitempty"`
}

// Command is one instruction from a watcher.
type Command struct {
	Cmd    string `json:"cmd"`
	Amount int    `json:"amount,omitempty"`
}

// ErrorPayload reports a rejected or unreadable command back to its
// sender.
type ErrorPayload struct {
	Cmd     string `json:"cmd,omitempty"`
	Message string `json:"message"`
}
