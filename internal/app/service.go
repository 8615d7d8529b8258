package app

import (
	"errors"
	"sort"
	"time"

	"royale/internal/domain"
)

// Participant is one roster entry in a match.
type Participant struct {
	UserID      string
	DisplayName string
	Order       int  // join order; the longest-seated participant inherits ownership
	Agent       bool // scripted participants spend but never own the match
}

// Service contains the match use-cases: it owns one engine and the
// participant roster, applies transport commands, and returns the events
// to dispatch. Callers serialize access; the match loop or session mutex
// provides that boundary.
type Service struct {
	engine       *domain.Engine
	participants map[string]*Participant
	ownerID      string
	joinSeq      int
}

// NewService constructs a Service around a fresh engine for the given
// variant table.
func NewService(config domain.MatchConfig) *Service {
	return &Service{
		engine:       domain.NewEngine(config),
		participants: make(map[string]*Participant),
	}
}

var (
	ErrNotOwner        = errors.New("actor is not match owner")
	ErrNotParticipant  = errors.New("actor is not in the match")
	ErrAlreadyRunning  = errors.New("match already running")
	ErrMatchOver       = errors.New("match already over")
	ErrNothingToResume = errors.New("no match time left to resume")
	ErrInvalidSpend    = errors.New("spend amount must be positive")
)

// Join adds a user to the roster. The first joiner becomes owner. The
// joiner gets a private snapshot; everyone hears participant_joined.
// Rejoining is a quiet no-op.
func (s *Service) Join(userID, displayName string) ([]Event, error) {
	if s.engine.Over() {
		return nil, ErrMatchOver
	}
	if _, ok := s.participants[userID]; ok {
		return nil, nil
	}
	s.joinSeq++
	s.participants[userID] = &Participant{
		UserID:      userID,
		DisplayName: displayName,
		Order:       s.joinSeq,
	}
	if s.ownerID == "" {
		s.ownerID = userID
	}
	return []Event{
		{
			Kind: EventParticipantJoined,
			Payload: ParticipantJoinedPayload{
				UserID:      userID,
				DisplayName: displayName,
				Owner:       s.ownerID == userID,
			},
		},
		{
			Kind:       EventSnapshot,
			Payload:    s.Snapshot(),
			Recipients: []string{userID},
		},
	}, nil
}

// JoinAgent adds a scripted participant. Agents spend like anyone else
// but never own the match, so a human joining after a row of agents
// still gets control.
func (s *Service) JoinAgent(userID, displayName string) ([]Event, error) {
	if s.engine.Over() {
		return nil, ErrMatchOver
	}
	if _, ok := s.participants[userID]; ok {
		return nil, nil
	}
	s.joinSeq++
	s.participants[userID] = &Participant{
		UserID:      userID,
		DisplayName: displayName,
		Order:       s.joinSeq,
		Agent:       true,
	}
	return []Event{
		{
			Kind: EventParticipantJoined,
			Payload: ParticipantJoinedPayload{
				UserID:      userID,
				DisplayName: displayName,
				Agent:       true,
			},
		},
	}, nil
}

// Leave removes a user from the roster. Ownership passes to the
// longest-seated remaining participant. Unknown users produce nothing.
func (s *Service) Leave(userID string) []Event {
	if _, ok := s.participants[userID]; !ok {
		return nil
	}
	delete(s.participants, userID)
	payload := ParticipantLeftPayload{UserID: userID}
	if s.ownerID == userID {
		s.ownerID = ""
		if next := s.oldestParticipant(); next != nil {
			s.ownerID = next.UserID
			payload.NewOwnerID = next.UserID
		}
	}
	return []Event{{Kind: EventParticipantLeft, Payload: payload}}
}

// Start begins (or, after an ended match, restarts) the countdown from
// the top of the table. Owner only; a running match must be reset first.
func (s *Service) Start(actorID string) ([]Event, error) {
	if err := s.requireOwner(actorID); err != nil {
		return nil, err
	}
	if s.engine.Running() {
		return nil, ErrAlreadyRunning
	}
	s.engine.Start()
	return []Event{
		{
			Kind: EventMatchStarted,
			Payload: MatchStartedPayload{
				Variant: s.engine.Config().Variant,
				Phase:   s.engine.Phase(),
			},
		},
		s.snapshotEvent(),
	}, nil
}

// Pause halts the countdown. Owner only. Pausing a paused match changes
// nothing and dispatches nothing.
func (s *Service) Pause(actorID string) ([]Event, error) {
	if err := s.requireOwner(actorID); err != nil {
		return nil, err
	}
	if !s.engine.Running() {
		return nil, nil
	}
	s.engine.Pause()
	return []Event{
		{Kind: EventMatchPaused, Payload: MatchPausedPayload{UserID: actorID}},
		s.snapshotEvent(),
	}, nil
}

// Resume continues a paused countdown. Owner only.
func (s *Service) Resume(actorID string) ([]Event, error) {
	if err := s.requireOwner(actorID); err != nil {
		return nil, err
	}
	if s.engine.Running() {
		return nil, ErrAlreadyRunning
	}
	if !s.engine.Resume() {
		return nil, ErrNothingToResume
	}
	return []Event{
		{Kind: EventMatchResumed, Payload: MatchResumedPayload{UserID: actorID}},
		s.snapshotEvent(),
	}, nil
}

// Reset restores the initial table state without running. Owner only.
func (s *Service) Reset(actorID string) ([]Event, error) {
	if err := s.requireOwner(actorID); err != nil {
		return nil, err
	}
	s.engine.Reset()
	return []Event{
		{Kind: EventMatchReset, Payload: MatchResetPayload{UserID: actorID}},
		s.snapshotEvent(),
	}, nil
}

// Spend deducts elixir for actorID. Any participant may spend; the
// engine clamps overdraw per the variant table, so a valid request can
// legitimately deduct less than asked, down to nothing.
func (s *Service) Spend(actorID string, amount int) ([]Event, error) {
	if _, ok := s.participants[actorID]; !ok {
		return nil, ErrNotParticipant
	}
	if s.engine.Over() {
		return nil, ErrMatchOver
	}
	if amount <= 0 {
		return nil, ErrInvalidSpend
	}
	spent := s.engine.Spend(amount)
	return []Event{
		{
			Kind: EventElixirSpent,
			Payload: ElixirSpentPayload{
				UserID:    actorID,
				Requested: amount,
				Spent:     spent,
				Elixir:    s.engine.Elixir(),
			},
		},
		s.snapshotEvent(),
	}, nil
}

// Advance feeds elapsed time to the engine and reports what changed.
// Transports drive it from their tick source; a snapshot is emitted only
// when observable state moved, so idle paused matches stay silent.
func (s *Service) Advance(delta time.Duration) []Event {
	if !s.engine.Running() {
		return nil
	}
	prevPhase := s.engine.Phase()
	prevRemaining := s.engine.RemainingSeconds()
	prevElixir := s.engine.Elixir()

	s.engine.Advance(delta)

	var events []Event
	if phase := s.engine.Phase(); phase != prevPhase {
		events = append(events, Event{
			Kind: EventPhaseChanged,
			Payload: PhaseChangedPayload{
				Phase:            phase,
				RemainingSeconds: s.engine.RemainingSeconds(),
			},
		})
	}
	if !s.engine.Running() {
		events = append(events, Event{
			Kind:    EventMatchEnded,
			Payload: MatchEndedPayload{Elixir: s.engine.Elixir()},
		})
	}
	if s.engine.RemainingSeconds() != prevRemaining || s.engine.Elixir() != prevElixir || len(events) > 0 {
		events = append(events, s.snapshotEvent())
	}
	return events
}

// Snapshot returns the observable state plus roster, sorted for stable
// serialization.
func (s *Service) Snapshot() Snapshot {
	participants := make([]string, 0, len(s.participants))
	for id := range s.participants {
		participants = append(participants, id)
	}
	sort.Strings(participants)
	return Snapshot{
		Variant:          s.engine.Config().Variant,
		Phase:            s.engine.Phase(),
		RemainingSeconds: s.engine.RemainingSeconds(),
		FormattedTime:    s.engine.FormattedTime(),
		Elixir:           s.engine.Elixir(),
		MaxSpend:         s.engine.MaxSpend(),
		PastThreshold:    s.engine.PastThreshold(),
		Running:          s.engine.Running(),
		Over:             s.engine.Over(),
		Participants:     participants,
		OwnerID:          s.ownerID,
	}
}

// Running reports whether the countdown is consuming time.
func (s *Service) Running() bool {
	return s.engine.Running()
}

// Over reports whether the final phase has run out.
func (s *Service) Over() bool {
	return s.engine.Over()
}

// OwnerID returns the current owner, empty while the roster is empty.
func (s *Service) OwnerID() string {
	return s.ownerID
}

// ParticipantCount returns the roster size.
func (s *Service) ParticipantCount() int {
	return len(s.participants)
}

// IsParticipant reports whether userID is in the roster.
func (s *Service) IsParticipant(userID string) bool {
	_, ok := s.participants[userID]
	return ok
}

func (s *Service) requireOwner(actorID string) error {
	if _, ok := s.participants[actorID]; !ok {
		return ErrNotParticipant
	}
	if actorID != s.ownerID {
		return ErrNotOwner
	}
	return nil
}

func (s *Service) oldestParticipant() *Participant {
	var oldest *Participant
	for _, p := range s.participants {
		if p.Agent {
			continue
		}
		if oldest == nil || p.Order < oldest.Order {
			oldest = p
		}
	}
	return oldest
}

func (s *Service) snapshotEvent() Event {
	return Event{Kind: EventSnapshot, Payload: s.Snapshot()}
}
