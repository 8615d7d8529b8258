package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"royale/internal/app"
	"royale/internal/bot"
	"royale/internal/clock"
	"royale/internal/domain"
	"royale/internal/ports"
)

// Session hosts one match outside a Nakama cluster: the match service
// behind a mutex, identified by a stable ID, fed by a Driver and watched
// over the relay. The mutex is the serialization boundary that ticks and
// transport commands share; events publish while it is held, so watchers
// observe them in application order.
type Session struct {
	ID        string
	Variant   string
	CreatedAt time.Time

	mu      sync.Mutex
	svc     *app.Service
	agents  []*bot.Agent
	ticks   int64
	endedAt time.Time

	publisher ports.EventPublisher
	clk       clock.Clock
	metrics   metrics
}

// New builds a stopped session for the given variant table. A nil clock
// falls back to wall time.
func New(variant string, config domain.MatchConfig, publisher ports.EventPublisher, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.NewReal()
	}
	return &Session{
		ID:        uuid.NewString(),
		Variant:   variant,
		CreatedAt: clk.Now(),
		svc:       app.NewService(config),
		publisher: publisher,
		clk:       clk,
		metrics:   newMetrics(),
	}
}

// Join seats a watcher in the match roster.
func (s *Session) Join(userID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.svc.Join(userID, displayName)
	s.publishLocked(events)
	s.countCommand(err)
	return err
}

// Leave removes a watcher from the roster.
func (s *Session) Leave(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(s.svc.Leave(userID))
}

// AttachAgent seats an autopilot participant. The driver acts for it on
// every tick from then on.
func (s *Session) AttachAgent(agent *bot.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.svc.JoinAgent(agent.ID, agent.Name)
	if err != nil {
		return err
	}
	s.publishLocked(events)
	s.agents = append(s.agents, agent)
	return nil
}

// Start begins the countdown from the top of the table.
func (s *Session) Start(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.svc.Start(actorID)
	if err == nil {
		s.endedAt = time.Time{}
	}
	s.publishLocked(events)
	s.countCommand(err)
	return err
}

// Pause halts the countdown.
func (s *Session) Pause(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.svc.Pause(actorID)
	s.publishLocked(events)
	s.countCommand(err)
	return err
}

// Resume continues a paused countdown.
func (s *Session) Resume(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.svc.Resume(actorID)
	s.publishLocked(events)
	s.countCommand(err)
	return err
}

// Reset restores the initial table without running.
func (s *Session) Reset(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.svc.Reset(actorID)
	if err == nil {
		s.endedAt = time.Time{}
	}
	s.publishLocked(events)
	s.countCommand(err)
	return err
}

// Spend deducts elixir for the given participant.
func (s *Session) Spend(actorID string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.svc.Spend(actorID, amount)
	s.publishLocked(events)
	s.countCommand(err)
	return err
}

// Tick feeds one driver interval to the engine and lets seated agents
// act on the state it produced.
func (s *Session) Tick(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	s.publishLocked(s.svc.Advance(delta))
	if s.svc.Over() && s.endedAt.IsZero() {
		s.endedAt = s.clk.Now()
	}
	for _, agent := range s.agents {
		amount, ok := agent.Act(s.ticks, s.svc.Snapshot())
		if !ok {
			continue
		}
		events, err := s.svc.Spend(agent.ID, amount)
		if err != nil {
			continue
		}
		s.publishLocked(events)
		s.metrics.AgentSpends.Inc()
	}
	s.metrics.TicksDriven.Inc()
}

// Snapshot returns the current observable match state.
func (s *Session) Snapshot() app.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc.Snapshot()
}

// Expired reports whether the match finished more than ttl ago.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.endedAt.IsZero() && now.Sub(s.endedAt) > ttl
}

func (s *Session) publishLocked(events []app.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	s.publisher.Publish(s.ID, events)
}

func (s *Session) countCommand(err error) {
	if err != nil {
		s.metrics.CommandsRejected.Inc()
		return
	}
	s.metrics.CommandsApplied.Inc()
}
