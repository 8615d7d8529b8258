package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"royale/internal/app"
	"royale/internal/clock"
	"royale/internal/domain"
	"royale/internal/logging"
	"royale/internal/ports"
)

// ErrUnknownVariant rejects session creation for variants without a
// rule table.
var ErrUnknownVariant = errors.New("unknown match variant")

const reapInterval = 30 * time.Second

// Options configures a Manager.
type Options struct {
	Publisher    ports.EventPublisher
	Clock        clock.Clock
	Logger       logging.Logger
	TickInterval time.Duration
	SessionTTL   time.Duration
}

// Manager tracks live sessions by ID, runs one driver per session, and
// reaps finished sessions once their TTL passes.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed

	publisher ports.EventPublisher
	clk       clock.Clock
	log       logging.Logger
	interval  time.Duration
	ttl       time.Duration
	metrics   metrics
}

type managed struct {
	session *Session
	driver  *Driver
}

// Info pairs a session ID with its observable state, for listings.
type Info struct {
	ID        string       `json:"id"`
	Variant   string       `json:"variant"`
	CreatedAt time.Time    `json:"created_at"`
	Snapshot  app.Snapshot `json:"snapshot"`
}

// NewManager builds a Manager, filling unset options with defaults.
func NewManager(o Options) *Manager {
	if o.Clock == nil {
		o.Clock = clock.NewReal()
	}
	if o.Logger == nil {
		o.Logger = logging.Noop()
	}
	if o.TickInterval <= 0 {
		o.TickInterval = 100 * time.Millisecond
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = 10 * time.Minute
	}
	return &Manager{
		sessions:  make(map[string]*managed),
		publisher: o.Publisher,
		clk:       o.Clock,
		log:       o.Logger,
		interval:  o.TickInterval,
		ttl:       o.SessionTTL,
		metrics:   newMetrics(),
	}
}

// Create builds a session for the variant and starts driving it. The
// driver runs until the session expires or the manager shuts down;
// driving a stopped match is a no-op, so starting it immediately is
// harmless.
func (mgr *Manager) Create(variant string) (*Session, error) {
	config, ok := domain.ConfigForVariant(variant)
	if !ok {
		return nil, ErrUnknownVariant
	}
	sess := New(variant, config, mgr.publisher, mgr.clk)
	sess.metrics = mgr.metrics
	driver := NewDriver(sess, mgr.interval)

	mgr.mu.Lock()
	mgr.sessions[sess.ID] = &managed{session: sess, driver: driver}
	mgr.mu.Unlock()

	go driver.Run(context.Background())
	mgr.metrics.SessionsCreated.Inc()
	mgr.log.Info("session %s created, variant %s", sess.ID, variant)
	return sess, nil
}

// Get returns the session with the given ID.
func (mgr *Manager) Get(id string) (*Session, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	entry, ok := mgr.sessions[id]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

// List returns every live session, oldest first.
func (mgr *Manager) List() []Info {
	mgr.mu.Lock()
	infos := make([]Info, 0, len(mgr.sessions))
	for _, entry := range mgr.sessions {
		infos = append(infos, Info{
			ID:        entry.session.ID,
			Variant:   entry.session.Variant,
			CreatedAt: entry.session.CreatedAt,
			Snapshot:  entry.session.Snapshot(),
		})
	}
	mgr.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Count returns the number of live sessions.
func (mgr *Manager) Count() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.sessions)
}

// Run reaps expired sessions until the context ends, then stops every
// driver. Blocks; run it in its own goroutine.
func (mgr *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			mgr.stopAll()
			return
		case <-ticker.C:
			mgr.reap()
		}
	}
}

func (mgr *Manager) reap() {
	now := mgr.clk.Now()
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for id, entry := range mgr.sessions {
		if !entry.session.Expired(now, mgr.ttl) {
			continue
		}
		entry.driver.Stop()
		delete(mgr.sessions, id)
		mgr.metrics.SessionsExpired.Inc()
		mgr.log.Info("session %s expired", id)
	}
}

func (mgr *Manager) stopAll() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for _, entry := range mgr.sessions {
		entry.driver.Stop()
	}
}
