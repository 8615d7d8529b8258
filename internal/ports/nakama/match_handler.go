package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"royale/internal/app"
	"royale/internal/bot"
	"royale/internal/config"
	"royale/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// matchTickRate is how many times per second Nakama calls MatchLoop.
const matchTickRate = 10

// tickDelta is the simulated time fed to the engine per loop pass.
const tickDelta = time.Second / matchTickRate

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	App       *app.Service                `json:"-"` // countdown and elixir rules
	Presences map[string]runtime.Presence `json:"-"` // userId -> presence for targeted messaging
	Variant   string                      `json:"variant"`
	Tick      int64                       `json:"tick"`

	MaxParticipants  int          `json:"max_participants"`
	AutopilotEnabled bool         `json:"autopilot_enabled"`
	AutopilotCount   int          `json:"autopilot_count"`
	AutopilotLevel   bot.Level    `json:"autopilot_level"`
	AgentMinDelay    int          `json:"agent_min_delay"` // ticks
	AgentMaxDelay    int          `json:"agent_max_delay"` // ticks
	AgentsSeated     bool         `json:"agents_seated"`
	Agents           []*bot.Agent `json:"-"`
	LastLabel        string       `json:"-"`
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created. The variant comes from
// the create params; roster size and autopilot behavior come from the
// runtime environment.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	variant := config.DefaultVariant()
	if v, ok := params["variant"].(string); ok && v != "" {
		variant = v
	}
	matchConfig, ok := domain.ConfigForVariant(variant)
	if !ok {
		logger.Warn("MatchInit: unknown variant %q, falling back to %q", variant, domain.VariantStandard)
		variant = domain.VariantStandard
		matchConfig, _ = domain.ConfigForVariant(variant)
	}

	state := &MatchState{
		App:             app.NewService(matchConfig),
		Presences:       make(map[string]runtime.Presence),
		Variant:         variant,
		MaxParticipants: config.MaxParticipants(),
		AutopilotCount:  config.AutopilotCount(),
		AgentMinDelay:   5,
		AgentMaxDelay:   20,
	}

	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["royale_max_participants"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.MaxParticipants = i
			}
		}
		if val, ok := env["royale_autopilot_enabled"]; ok {
			state.AutopilotEnabled = val == "true"
		}
		if val, ok := env["royale_autopilot_count"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.AutopilotCount = i
			}
		}
		if val, ok := env["royale_autopilot_level"]; ok {
			level, err := bot.ParseLevel(val)
			if err != nil {
				logger.Warn("MatchInit: %v", err)
			} else {
				state.AutopilotLevel = level
			}
		}
		if val, ok := env["royale_agent_min_delay_ticks"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.AgentMinDelay = i
			}
		}
		if val, ok := env["royale_agent_max_delay_ticks"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.AgentMaxDelay = i
			}
		}
	}

	label := buildLabel(state)
	state.LastLabel = label
	logger.Debug("MatchInit: variant %s, %d seats, autopilot=%v", variant, state.MaxParticipants, state.AutopilotEnabled)
	return state, matchTickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// reconnects are always allowed
	if matchState.App.IsParticipant(presence.GetUserId()) {
		return state, true, ""
	}
	if matchState.App.Over() {
		return state, false, "match over"
	}
	if matchState.App.ParticipantCount() >= matchState.MaxParticipants {
		return state, false, "match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		displayName := p.GetUsername()
		if displayName == "" {
			displayName = p.GetUserId()
		}
		events, err := matchState.App.Join(p.GetUserId(), displayName)
		if err != nil {
			logger.Warn("MatchJoin: %s could not join: %v", p.GetUserId(), err)
			continue
		}
		for _, ev := range events {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more participants leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		for _, ev := range matchState.App.Leave(p.GetUserId()) {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: no connected participants left, terminating match")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	if matchState.AutopilotEnabled && !matchState.AgentsSeated {
		mh.seatAgents(matchState, dispatcher, logger)
	}

	// Handle incoming messages
	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStart:
			mh.handleCommand(matchState, dispatcher, logger, msg, "start", matchState.App.Start)
		case OpPause:
			mh.handleCommand(matchState, dispatcher, logger, msg, "pause", matchState.App.Pause)
		case OpResume:
			mh.handleCommand(matchState, dispatcher, logger, msg, "resume", matchState.App.Resume)
		case OpReset:
			mh.handleCommand(matchState, dispatcher, logger, msg, "reset", matchState.App.Reset)
		case OpSpend:
			mh.handleSpend(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: unknown opcode received: %d", msg.GetOpCode())
		}
	}

	// Advance simulated time by one tick
	for _, ev := range matchState.App.Advance(tickDelta) {
		mh.broadcastEvent(matchState, dispatcher, logger, ev)
	}

	// Autopilot logic
	if matchState.AutopilotEnabled {
		mh.processAgents(matchState, dispatcher, logger)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// handleCommand runs one of the owner lifecycle commands and broadcasts
// its events. Rejections go back to the sender only.
func (mh *matchHandler) handleCommand(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, name string, command func(string) ([]app.Event, error)) {
	senderID := msg.GetUserId()
	events, err := command(senderID)
	if err != nil {
		logger.Warn("MatchLoop: %s from %s rejected: %v", name, senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 403, err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleSpend(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request SpendRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleSpend: invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid spend payload")
		return
	}

	events, err := state.App.Spend(senderID, request.Amount)
	if err != nil {
		logger.Warn("handleSpend: %s failed to spend %d: %v", senderID, request.Amount, err)
		mh.sendError(state, dispatcher, logger, senderID, 403, err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// seatAgents fills the roster with autopilot participants on the first
// loop pass. Agents never own the match, so the first human keeps
// control even when agents are seated before anyone connects.
func (mh *matchHandler) seatAgents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.AgentsSeated = true
	for i := 0; i < state.AutopilotCount; i++ {
		agent, err := bot.NewAgent(i, state.AutopilotLevel, state.AgentMinDelay, state.AgentMaxDelay, nil)
		if err != nil {
			logger.Error("seatAgents: %v", err)
			return
		}
		events, err := state.App.JoinAgent(agent.ID, agent.Name)
		if err != nil {
			logger.Warn("seatAgents: could not seat %s: %v", agent.ID, err)
			continue
		}
		state.Agents = append(state.Agents, agent)
		for _, ev := range events {
			mh.broadcastEvent(state, dispatcher, logger, ev)
		}
		logger.Info("seatAgents: seated %s (%s)", agent.Name, agent.ID)
	}
}

func (mh *matchHandler) processAgents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snap := state.App.Snapshot()
	for _, agent := range state.Agents {
		amount, ok := agent.Act(state.Tick, snap)
		if !ok {
			continue
		}
		events, err := state.App.Spend(agent.ID, amount)
		if err != nil {
			logger.Warn("processAgents: agent %s spend rejected: %v", agent.ID, err)
			continue
		}
		for _, ev := range events {
			mh.broadcastEvent(state, dispatcher, logger, ev)
		}
		snap = state.App.Snapshot()
	}
}

// broadcastEvent converts an app event to its opcode and dispatches it.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := opCodeFor(ev.Kind)
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	data, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// If the intended recipients are not connected (e.g. they are
		// agents), we MUST NOT broadcast to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, data, recipients, nil, true)
}

// sendError sends an ErrorEvent to a specific participant.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	data, err := json.Marshal(ErrorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal ErrorEvent: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpError, data, []runtime.Presence{presence}, nil, true)
}

func opCodeFor(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventSnapshot:
		return OpSnapshot, true
	case app.EventMatchStarted:
		return OpMatchStarted, true
	case app.EventMatchPaused:
		return OpMatchPaused, true
	case app.EventMatchResumed:
		return OpMatchResumed, true
	case app.EventMatchReset:
		return OpMatchReset, true
	case app.EventPhaseChanged:
		return OpPhaseChanged, true
	case app.EventMatchEnded:
		return OpMatchEnded, true
	case app.EventElixirSpent:
		return OpElixirSpent, true
	case app.EventParticipantJoined:
		return OpParticipantJoined, true
	case app.EventParticipantLeft:
		return OpParticipantLeft, true
	}
	return 0, false
}

func buildLabel(state *MatchState) string {
	snap := state.App.Snapshot()
	label := Label{
		Open:    !snap.Over && state.App.ParticipantCount() < state.MaxParticipants,
		Variant: state.Variant,
		Phase:   snap.Phase,
	}
	data, _ := json.Marshal(label)
	return string(data)
}

// updateLabel refreshes the listing label when it actually changed.
func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label := buildLabel(state)
	if label == state.LastLabel {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
		return
	}
	state.LastLabel = label
}

// MatchTerminate pushes one last snapshot so clients can settle their UI.
func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	if data, err := json.Marshal(matchState.App.Snapshot()); err == nil {
		dispatcher.BroadcastMessage(OpSnapshot, data, nil, nil, true)
	}
	logger.Debug("MatchTerminate: shutting down, %d second grace", graceSeconds)
	return matchState
}

// MatchSignal answers out-of-band queries; "snapshot" returns the
// observable state as JSON for debugging.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	if data == "snapshot" {
		out, err := json.Marshal(matchState.App.Snapshot())
		if err != nil {
			logger.Error("MatchSignal: marshal snapshot: %v", err)
			return matchState, ""
		}
		return matchState, string(out)
	}
	return matchState, ""
}
