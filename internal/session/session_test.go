package session

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"royale/internal/app"
	"royale/internal/bot"
	"royale/internal/clock"
	"royale/internal/domain"
)

type capturePublisher struct {
	mu       sync.Mutex
	sessions map[string]bool
	kinds    []app.EventKind
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{sessions: make(map[string]bool)}
}

func (p *capturePublisher) Publish(sessionID string, events []app.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID] = true
	for _, ev := range events {
		p.kinds = append(p.kinds, ev.Kind)
	}
}

func (p *capturePublisher) captured() []app.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]app.EventKind(nil), p.kinds...)
}

func testClock() *clock.Manual {
	return clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestSessionPublishesCommandFlow(t *testing.T) {
	pub := newCapturePublisher()
	sess := New(domain.VariantStandard, domain.StandardConfig(), pub, testClock())

	if sess.ID == "" {
		t.Fatal("session should mint an ID")
	}
	if err := sess.Join("u1", "Alice"); err != nil {
		t.Fatalf("join error: %v", err)
	}
	if err := sess.Start("u1"); err != nil {
		t.Fatalf("start error: %v", err)
	}
	sess.Tick(time.Second)

	want := []app.EventKind{
		app.EventParticipantJoined,
		app.EventSnapshot,
		app.EventMatchStarted,
		app.EventSnapshot,
		app.EventSnapshot,
	}
	if got := pub.captured(); !reflect.DeepEqual(got, want) {
		t.Fatalf("published kinds = %v, want %v", got, want)
	}
	if !pub.sessions[sess.ID] || len(pub.sessions) != 1 {
		t.Fatalf("events should carry the session ID, got %v", pub.sessions)
	}
	if snap := sess.Snapshot(); snap.RemainingSeconds != 179 {
		t.Fatalf("remaining = %d, want 179", snap.RemainingSeconds)
	}
}

func TestSessionTickRunsAgents(t *testing.T) {
	pub := newCapturePublisher()
	sess := New(domain.VariantStandard, domain.StandardConfig(), pub, testClock())

	agent, err := bot.NewAgent(0, bot.LevelSteady, 0, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewAgent error: %v", err)
	}
	if err := sess.AttachAgent(agent); err != nil {
		t.Fatalf("attach error: %v", err)
	}
	if err := sess.Join("u1", "Alice"); err != nil {
		t.Fatalf("join error: %v", err)
	}
	if err := sess.Start("u1"); err != nil {
		t.Fatalf("start error: %v", err)
	}

	// an undelayed steady agent spends on the first driven tick
	sess.Tick(10 * time.Millisecond)
	if snap := sess.Snapshot(); snap.Elixir != 4 {
		t.Fatalf("elixir = %d, want 4 after the agent spend", snap.Elixir)
	}

	sawSpend := false
	for _, kind := range pub.captured() {
		if kind == app.EventElixirSpent {
			sawSpend = true
		}
	}
	if !sawSpend {
		t.Fatal("agent spend should publish elixir_spent")
	}
}

func TestSessionExpiry(t *testing.T) {
	clk := testClock()
	sess := New(domain.VariantSimple, domain.SimpleConfig(), nil, clk)
	sess.Join("u1", "Alice")
	sess.Start("u1")

	sess.Tick(300 * time.Second)
	if snap := sess.Snapshot(); !snap.Over {
		t.Fatalf("match should be over, snapshot %+v", snap)
	}
	if sess.Expired(clk.Now(), 10*time.Minute) {
		t.Fatal("session should not expire before the TTL")
	}

	clk.Advance(10*time.Minute + time.Second)
	if !sess.Expired(clk.Now(), 10*time.Minute) {
		t.Fatal("session should expire after the TTL")
	}

	// resetting a finished match clears the expiry stamp
	if err := sess.Reset("u1"); err != nil {
		t.Fatalf("reset error: %v", err)
	}
	if sess.Expired(clk.Now(), 10*time.Minute) {
		t.Fatal("reset session should not be expired")
	}
}

func TestDriverStopEndsRun(t *testing.T) {
	sess := New(domain.VariantStandard, domain.StandardConfig(), nil, testClock())
	driver := NewDriver(sess, time.Millisecond)

	done := make(chan struct{})
	go func() {
		driver.Run(context.Background())
		close(done)
	}()

	driver.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop")
	}

	// a second stop must not panic
	driver.Stop()
}

func TestDriverContextCancelEndsRun(t *testing.T) {
	sess := New(domain.VariantStandard, domain.StandardConfig(), nil, testClock())
	driver := NewDriver(sess, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		driver.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop on context cancel")
	}
}

func TestManagerCreateGetReap(t *testing.T) {
	clk := testClock()
	mgr := NewManager(Options{
		Clock:        clk,
		TickInterval: time.Hour, // keep background drivers quiet
		SessionTTL:   time.Minute,
	})

	if _, err := mgr.Create("bogus"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("create bogus variant = %v, want ErrUnknownVariant", err)
	}

	sess, err := mgr.Create(domain.VariantSimple)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if got, ok := mgr.Get(sess.ID); !ok || got != sess {
		t.Fatalf("Get(%s) = (%v, %v)", sess.ID, got, ok)
	}

	// run the match out, then age it past the TTL
	sess.Join("u1", "Alice")
	sess.Start("u1")
	sess.Tick(300 * time.Second)
	clk.Advance(2 * time.Minute)

	mgr.reap()
	if _, ok := mgr.Get(sess.ID); ok {
		t.Fatal("expired session should be reaped")
	}
	if mgr.Count() != 0 {
		t.Fatalf("count = %d, want 0", mgr.Count())
	}
}

func TestManagerListOrdersByAge(t *testing.T) {
	clk := testClock()
	mgr := NewManager(Options{Clock: clk, TickInterval: time.Hour})

	first, err := mgr.Create(domain.VariantStandard)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	clk.Advance(time.Second)
	second, err := mgr.Create(domain.VariantSimple)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	infos := mgr.List()
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}
	if infos[0].ID != first.ID || infos[1].ID != second.ID {
		t.Fatalf("list order = [%s %s], want oldest first", infos[0].ID, infos[1].ID)
	}
	if infos[1].Variant != domain.VariantSimple {
		t.Fatalf("variant = %q, want %q", infos[1].Variant, domain.VariantSimple)
	}
}
